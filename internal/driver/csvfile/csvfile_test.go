package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/locator"
)

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(locator.Locator{Raw: "csv:", Body: ""})
	assert.Error(t, err)
}

func TestTableNameForStdin(t *testing.T) {
	d, err := Open(locator.Locator{Raw: "csv:-", Body: "-"})
	require.NoError(t, err)
	assert.Equal(t, "stdin", d.tableName())
}

func TestSchemaSniffsHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,alice\n"), 0o644))

	d, err := Open(locator.Locator{Raw: "csv:" + path, Body: path})
	require.NoError(t, err)
	s, err := d.Schema(context.Background())
	require.NoError(t, err)
	cols := s.Table().Columns
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "name", cols[1].Name)
}

func TestLocalDataThenWriteLocalDataRoundTrips(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "in.csv")
	dstPath := filepath.Join(dir, "out.csv")
	content := "id,name\n1,alice\n2,bob\n"
	require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

	ctx := context.Background()
	src, err := Open(locator.Locator{Raw: "csv:" + srcPath, Body: srcPath})
	require.NoError(t, err)
	srcSchema, err := src.Schema(ctx)
	require.NoError(t, err)

	ds, err := src.LocalData(ctx, driver.SharedArgs{StreamSizeHint: 1 << 20})
	require.NoError(t, err)

	dst, err := Open(locator.Locator{Raw: "csv:" + dstPath, Body: dstPath})
	require.NoError(t, err)
	future, err := dst.WriteLocalData(ctx, srcSchema, *ds, driver.SharedArgs{
		IfExists: driver.IfExists{Mode: driver.IfExistsOverwrite},
	})
	require.NoError(t, err)
	require.NoError(t, future.Wait(ctx))

	got, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestOpenForWriteErrorModeRejectsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\n"), 0o644))

	d, err := Open(locator.Locator{Raw: "csv:" + path, Body: path})
	require.NoError(t, err)
	_, _, err = d.openForWrite(driver.IfExistsError)
	assert.Error(t, err)
}
