package driver

import (
	"context"

	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

// Unimplemented embeds into a concrete driver to supply Schema,
// LocalData, WriteLocalData and WriteRemoteData as UnsupportedFeature
// errors, the way the teacher's adapter interfaces return
// ErrOperationNotSupported for capability categories a given database
// lacks. Features returns an empty FeatureSet, SupportsWriteRemoteData
// returns false, and Count reports no fast path (ok == false, no error).
// A concrete driver overrides only the methods its FeatureSet actually
// advertises.
type Unimplemented struct {
	DriverName string
}

func (u Unimplemented) Name() string { return u.DriverName }

func (u Unimplemented) Features() FeatureSet { return FeatureSet{} }

func (u Unimplemented) unsupported(op string) error {
	return &xerror.UnsupportedFeatureError{Driver: u.DriverName, Operation: op}
}

func (u Unimplemented) Schema(ctx context.Context) (*schema.Schema, error) {
	return nil, u.unsupported("schema")
}

func (u Unimplemented) LocalData(ctx context.Context, args SharedArgs) (*stream.DatasetStream, error) {
	return nil, u.unsupported("local_data")
}

func (u Unimplemented) WriteLocalData(ctx context.Context, destSchema *schema.Schema, input stream.DatasetStream, args SharedArgs) (WriteFuture, error) {
	return nil, u.unsupported("write_local_data")
}

func (u Unimplemented) SupportsWriteRemoteData(source Driver) bool { return false }

func (u Unimplemented) WriteRemoteData(ctx context.Context, destSchema *schema.Schema, source Driver, args SharedArgs) (WriteFuture, error) {
	return nil, u.unsupported("write_remote_data")
}

func (u Unimplemented) Count(ctx context.Context, s *schema.Schema, whereClause string) (int64, bool, error) {
	return 0, false, nil
}
