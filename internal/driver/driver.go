// Package driver defines the contract every source/destination backend
// implements (§4.D): a small set of capability-gated operations plus the
// shared argument bundle every copy passes through. Concrete backends
// (internal/driver/postgres, .../bigquery, .../gcs, .../s3,
// .../csvfile) each register a locator.Factory that returns a Driver.
package driver

import (
	"context"

	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
)

// IfExistsMode selects what happens when the destination already holds
// data (§4.G).
type IfExistsMode int

const (
	IfExistsError IfExistsMode = iota
	IfExistsAppend
	IfExistsOverwrite
	IfExistsUpsert
)

func (m IfExistsMode) String() string {
	switch m {
	case IfExistsError:
		return "error"
	case IfExistsAppend:
		return "append"
	case IfExistsOverwrite:
		return "overwrite"
	case IfExistsUpsert:
		return "upsert"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the mode as its string name (the "features" CLI
// command prints a FeatureSet as JSON; a bare integer would be opaque).
func (m IfExistsMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// IfExists bundles the mode with the upsert key columns, populated only
// when Mode == IfExistsUpsert.
type IfExists struct {
	Mode       IfExistsMode
	UpsertKeys []string
}

// FeatureSet is a driver's honest declaration of what it supports
// (§4.D, invariant 8 "capability honesty"). The planner consults this
// before calling an operation; calling one that isn't advertised here is
// a programming error, not a runtime condition to recover from.
type FeatureSet struct {
	ReadSchema  bool
	WriteSchema bool
	ReadData    bool
	WriteData   bool

	IfExistsModes []IfExistsMode

	// TemporariesRequired lists the locator schemes this driver needs a
	// temporary resource for (e.g. "gs" for BigQuery's load-job shortcut).
	TemporariesRequired []string

	SourceArgs []string
	DestArgs   []string

	Count bool
}

// Supports reports whether mode is among the driver's advertised
// if-exists modes.
func (f FeatureSet) Supports(mode IfExistsMode) bool {
	for _, m := range f.IfExistsModes {
		if m == mode {
			return true
		}
	}
	return false
}

// SharedArgs bundles every argument common to all drivers for one leg of
// a copy (§4.D "shared_args bundles..."). Cancellation itself travels on
// ctx, not on this struct.
type SharedArgs struct {
	IfExists       IfExists
	Temporaries    []string
	FromArgs       map[string]string
	ToArgs         map[string]string
	WhereClause    string
	MaxStreams     int64
	StreamSizeHint int64

	// Pool is the worker pool this leg's inner streams must run under;
	// a driver submits every concurrent task to it rather than spawning
	// goroutines directly, so the whole copy stays under one max_streams
	// gate (§5 "Worker pool").
	Pool *stream.Group
	// Cleanup is where this leg registers teardown for any temporary
	// resource it acquires (a temp table, a staging blob, a local file).
	Cleanup *stream.Cleanup
}

// WriteFuture is returned by a write operation so the planner can await
// completion without blocking the call that started it, enabling
// pipelined fan-out across multiple concurrent streams (§4.D
// "returns per-stream completion signals to allow pipelining").
type WriteFuture interface {
	// Wait blocks until the write completes (success or error) or ctx is
	// cancelled first.
	Wait(ctx context.Context) error
}

// funcFuture adapts a plain function into a WriteFuture.
type funcFuture struct {
	done chan error
}

// NewFuture starts fn in its own goroutine and returns a WriteFuture
// that resolves to its result.
func NewFuture(fn func() error) WriteFuture {
	f := &funcFuture{done: make(chan error, 1)}
	go func() { f.done <- fn() }()
	return f
}

func (f *funcFuture) Wait(ctx context.Context) error {
	select {
	case err := <-f.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Driver is the contract every source/destination backend implements
// (§4.D). A driver need not implement every method meaningfully: a
// method not advertised in Features() may be a no-op that always
// returns UnsupportedFeature, since the planner never calls it.
type Driver interface {
	// Name identifies the driver for logging and error messages (e.g.
	// "postgres", "bigquery", "csv").
	Name() string

	// Features declares this driver's capabilities.
	Features() FeatureSet

	// Schema retrieves this driver's notion of the dataset's structure.
	Schema(ctx context.Context) (*schema.Schema, error)

	// LocalData opens a DatasetStream reading this driver's data, or
	// (nil, nil) to signal "use a shortcut or fail" (§4.D "None signals
	// use shortcut or fail").
	LocalData(ctx context.Context, args SharedArgs) (*stream.DatasetStream, error)

	// WriteLocalData writes input (conforming to destSchema) to this
	// driver, returning a WriteFuture for pipelined completion tracking.
	WriteLocalData(ctx context.Context, destSchema *schema.Schema, input stream.DatasetStream, args SharedArgs) (WriteFuture, error)

	// SupportsWriteRemoteData reports whether this driver, as a
	// destination, can fetch directly from source without routing bytes
	// through the generic local_data/write_local_data path.
	SupportsWriteRemoteData(source Driver) bool

	// WriteRemoteData is the shortcut path (§4.D): the destination pulls
	// directly from source (e.g. BigQuery loading a gs:// prefix the
	// source already staged). Only called when SupportsWriteRemoteData
	// returned true for source.
	WriteRemoteData(ctx context.Context, destSchema *schema.Schema, source Driver, args SharedArgs) (WriteFuture, error)

	// Count returns a fast row count, or (0, false, nil) if this driver
	// has no cheaper path than counting rows of a local_data stream.
	Count(ctx context.Context, s *schema.Schema, whereClause string) (count int64, ok bool, err error)
}
