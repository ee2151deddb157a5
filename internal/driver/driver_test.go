package driver_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

func TestUnimplementedReturnsUnsupportedFeature(t *testing.T) {
	u := driver.Unimplemented{DriverName: "stub"}
	_, err := u.Schema(context.Background())
	var uf *xerror.UnsupportedFeatureError
	require.True(t, errors.As(err, &uf))
	assert.Equal(t, "stub", uf.Driver)
	assert.Equal(t, "schema", uf.Operation)
	assert.True(t, errors.Is(err, xerror.ErrUnsupportedFeature))
}

func TestFeatureSetSupports(t *testing.T) {
	fs := driver.FeatureSet{IfExistsModes: []driver.IfExistsMode{driver.IfExistsAppend, driver.IfExistsUpsert}}
	assert.True(t, fs.Supports(driver.IfExistsUpsert))
	assert.False(t, fs.Supports(driver.IfExistsOverwrite))
}

func TestNewFutureResolvesToResult(t *testing.T) {
	f := driver.NewFuture(func() error { return nil })
	assert.NoError(t, f.Wait(context.Background()))

	wantErr := fmt.Errorf("boom")
	f2 := driver.NewFuture(func() error { return wantErr })
	assert.ErrorIs(t, f2.Wait(context.Background()), wantErr)
}

func TestFutureWaitRespectsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	f := driver.NewFuture(func() error {
		<-block
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	close(block)
}
