package stream_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/csvfmt"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
)

func header() []csvfmt.RawField {
	return []csvfmt.RawField{{Text: "id"}, {Text: "name"}}
}

func TestSplitProducesOneStreamWhenBelowTarget(t *testing.T) {
	ctx := context.Background()
	input := "id,name\n1,a\n2,b\n3,c\n"
	ds := stream.Split(ctx, header(), strings.NewReader(strings.TrimPrefix(input, "id,name\n")), 1<<20)

	var parts [][]byte
	for {
		part, ok, err := ds.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		data, err := io.ReadAll(part.Body)
		require.NoError(t, err)
		parts = append(parts, data)
	}
	require.Len(t, parts, 1)
	assert.Equal(t, input, string(parts[0]))
}

func TestSplitAtRecordBoundariesRepeatsHeader(t *testing.T) {
	ctx := context.Background()
	input := "id,name\n1,a\n2,b\n3,c\n4,d\n"
	ds := stream.Split(ctx, header(), strings.NewReader(strings.TrimPrefix(input, "id,name\n")), 10)

	var parts []string
	for {
		part, ok, err := ds.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		data, err := io.ReadAll(part.Body)
		require.NoError(t, err)
		parts = append(parts, string(data))
	}
	require.True(t, len(parts) >= 2, "expected more than one part, got %d", len(parts))
	for _, p := range parts {
		assert.True(t, strings.HasPrefix(p, "id,name\n"), "part missing repeated header: %q", p)
	}

	// Re-assembled data rows (ignoring repeated headers) must match the
	// original input's data rows, in order.
	var rows []string
	for _, p := range parts {
		lines := strings.Split(strings.TrimSuffix(p, "\n"), "\n")
		rows = append(rows, lines[1:]...)
	}
	assert.Equal(t, []string{"1,a", "2,b", "3,c", "4,d"}, rows)
}

func TestSplitZeroRowsStillEmitsHeaderOnlyPart(t *testing.T) {
	ctx := context.Background()
	ds := stream.Split(ctx, header(), strings.NewReader(""), 1<<20)

	part, ok, err := ds.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	data, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n", string(data))

	_, ok, err = ds.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcatenateDropsRepeatedHeaders(t *testing.T) {
	ctx := context.Background()
	input := "id,name\n1,a\n2,b\n3,c\n4,d\n5,e\n"
	ds := stream.Split(ctx, header(), strings.NewReader(strings.TrimPrefix(input, "id,name\n")), 10)

	var out strings.Builder
	require.NoError(t, stream.Concatenate(ctx, ds, &out))
	assert.Equal(t, input, out.String())
}

// TestGroupBoundsConcurrency asserts invariant 4: no more than max_streams
// tasks run at once, regardless of how many are submitted.
func TestGroupBoundsConcurrency(t *testing.T) {
	ctx := context.Background()
	g, gctx := stream.NewGroup(ctx, 2)

	var running, maxRunning int
	var mu sync.Mutex
	for i := 0; i < 6; i++ {
		g.Go(gctx, func(ctx context.Context) error {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, maxRunning, 2)
}

// TestGroupPropagatesFirstError asserts the first-error-wins contract of §7.
func TestGroupPropagatesFirstError(t *testing.T) {
	ctx := context.Background()
	g, gctx := stream.NewGroup(ctx, 4)

	wantErr := fmt.Errorf("boom")
	g.Go(gctx, func(ctx context.Context) error { return wantErr })
	g.Go(gctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := g.Wait()
	assert.ErrorIs(t, err, wantErr)
}

// TestCleanupRunsInReverseOrder asserts the LIFO unwind order of §7/§9.
func TestCleanupRunsInReverseOrder(t *testing.T) {
	var c stream.Cleanup
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		c.Register(func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}
	require.Equal(t, 3, c.Len())
	errs := c.RunAll(context.Background())
	assert.Empty(t, errs)
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, c.Len())
}

// TestCleanupErrorsDoNotMaskEachOther asserts §7's "cleanup errors are
// logged but do not mask the original error" by showing RunAll collects
// every failure rather than stopping at the first.
func TestCleanupErrorsDoNotMaskEachOther(t *testing.T) {
	var c stream.Cleanup
	c.Register(func(context.Context) error { return fmt.Errorf("first") })
	c.Register(func(context.Context) error { return fmt.Errorf("second") })
	errs := c.RunAll(context.Background())
	require.Len(t, errs, 2)
	assert.Equal(t, "second", errs[0].Error())
	assert.Equal(t, "first", errs[1].Error())
}

// TestCancellationReachesRunningTasks asserts invariant 6: cancelling the
// context passed to NewGroup reaches every running task.
func TestCancellationReachesRunningTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := stream.NewGroup(ctx, 2)

	started := make(chan struct{})
	g.Go(gctx, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	cancel()
	err := g.Wait()
	assert.Error(t, err)
}
