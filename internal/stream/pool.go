// Package stream implements the stream-of-streams data plane (§4.F): a
// lazy outer sequence of inner CSV byte streams, a bounded worker pool
// gated by max_streams, and a cleanup registry for temporary resources.
//
// Cancellation itself uses plain context.Context — no dbcrossbar-specific
// cancellation token exists, since context.Context already is the single
// cancellation handle threaded through every task (§4.D, §5) and every
// pack repo that does concurrent I/O uses it the same way.
package stream

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Group is the engine's single bounded worker pool (§5, §9 "Worker
// pool"): every driver task is submitted through one Group per copy, and
// the embedded semaphore is the stream gate that bounds how many inner
// streams run concurrently to max_streams.
type Group struct {
	eg   *errgroup.Group
	gate *semaphore.Weighted
}

// NewGroup returns a Group bound to ctx, and the derived context that
// tasks submitted to it should use — cancelled automatically when any
// task returns a non-nil error or when ctx itself is cancelled.
func NewGroup(ctx context.Context, maxStreams int64) (*Group, context.Context) {
	if maxStreams < 1 {
		maxStreams = 1
	}
	eg, gctx := errgroup.WithContext(ctx)
	return &Group{eg: eg, gate: semaphore.NewWeighted(maxStreams)}, gctx
}

// Go submits fn to run once a stream-gate slot is free. It returns
// immediately; fn's error (if any) is observed by Wait.
func (g *Group) Go(ctx context.Context, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if err := g.gate.Acquire(ctx, 1); err != nil {
			return err
		}
		defer g.gate.Release(1)
		return fn(ctx)
	})
}

// Wait blocks until every submitted task has returned, and returns the
// first non-nil error (§7: "the first error wins; subsequent errors are
// logged and discarded" — discarding subsequent errors is the caller's
// job, using Cleanup.RunAll's own error log rather than Wait's).
func (g *Group) Wait() error {
	return g.eg.Wait()
}
