// Package planner implements the copy algorithm (§4.G): given a source
// and destination driver, resolve schemas, validate options against the
// destination's advertised features, probe for a write_remote_data
// shortcut, and otherwise drive the generic local_data/write_local_data
// path. Temporary resources are tracked through a stream.Cleanup that is
// always drained on exit, success or failure (§7, §9 "no-leak").
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/bigqueryschema"
	"github.com/dbcrossbar/dbcrossbar/internal/codec/pgsql"
	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/driver/bigquery"
	"github.com/dbcrossbar/dbcrossbar/internal/driver/postgres"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
	"github.com/dbcrossbar/dbcrossbar/internal/warning"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
	"github.com/dbcrossbar/dbcrossbar/internal/xlog"
)

// Options bundles every cp-command input the planner needs, matching the
// flags enumerated in §6.
type Options struct {
	// Schema, when non-nil, is the --schema-supplied schema: it always
	// wins over introspecting the source (§9 Open Question, resolved in
	// DESIGN.md).
	Schema *schema.Schema

	IfExists       driver.IfExists
	Temporaries    []string
	FromArgs       map[string]string
	ToArgs         map[string]string
	WhereClause    string
	MaxStreams     int64
	StreamSizeHint int64

	// Log receives progress messages for each step of the algorithm. Left
	// nil, Copy builds a default console logger.
	Log *xlog.Logger
}

// Result carries what the CLI reports back to the user after a copy.
type Result struct {
	// DestLocators lists the concrete locator(s) the destination actually
	// wrote, when it differs from the one the user passed
	// (--display-output-locators, SPEC_FULL.md supplemented feature 2).
	DestLocators []string
	Warnings     []warning.Warning
}

// Copy runs the §4.G algorithm end to end.
func Copy(ctx context.Context, source, dest driver.Driver, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = xlog.New("planner")
	}
	log = log.With(map[string]string{"from": source.Name(), "to": dest.Name()})

	group, gctx := stream.NewGroup(ctx, opts.MaxStreams)
	cleanup := &stream.Cleanup{}
	defer func() {
		for _, err := range cleanup.RunAll(context.Background()) {
			log.Warn("cleanup error: %v", err)
		}
	}()

	result := &Result{}

	sourceSchema, err := resolveSourceSchema(gctx, source, opts)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved source schema with %d column(s)", len(sourceSchema.Table().Columns))

	destSchema, warnings, err := normalizeSchema(dest, sourceSchema)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn("%s", w.String())
	}
	result.Warnings = append(result.Warnings, warnings...)

	if err := validateOptions(dest, opts); err != nil {
		return nil, err
	}
	if err := validateCaseFoldedColumns(dest, destSchema); err != nil {
		return nil, err
	}
	if err := validateTemporaries(dest, opts.Temporaries); err != nil {
		return nil, err
	}
	if opts.IfExists.Mode == driver.IfExistsUpsert {
		if err := validateUpsertKeysNotNull(destSchema, opts.IfExists.UpsertKeys); err != nil {
			return nil, err
		}
	}

	args := driver.SharedArgs{
		IfExists:       opts.IfExists,
		Temporaries:    opts.Temporaries,
		FromArgs:       opts.FromArgs,
		ToArgs:         opts.ToArgs,
		WhereClause:    opts.WhereClause,
		MaxStreams:     opts.MaxStreams,
		StreamSizeHint: opts.StreamSizeHint,
		Pool:           group,
		Cleanup:        cleanup,
	}

	// Only one WriteFuture is ever awaited per copy, and nothing in this
	// path submits work through group: "first error wins" therefore falls
	// out directly from future.Wait's single return value, with no
	// secondary-cancellation race to suppress.
	if dest.SupportsWriteRemoteData(source) {
		log.Info("using write_remote_data shortcut")
		future, err := dest.WriteRemoteData(gctx, destSchema, source, args)
		if err != nil {
			return nil, err
		}
		if err := future.Wait(gctx); err != nil {
			return nil, err
		}
		log.Info("copy complete")
		return result, nil
	}

	log.Info("using generic local_data/write_local_data path")
	ds, err := source.LocalData(gctx, args)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("planner: %s has no local data to read: %w", source.Name(), xerror.ErrUnsupportedFeature)
	}

	future, err := dest.WriteLocalData(gctx, destSchema, *ds, args)
	if err != nil {
		return nil, err
	}
	if err := future.Wait(gctx); err != nil {
		return nil, err
	}
	log.Info("copy complete")
	return result, nil
}

// resolveSourceSchema honors the --schema-wins-unconditionally precedence
// decision (§9 Open Question, DESIGN.md): a user-supplied schema is used
// as-is; otherwise the source is introspected.
func resolveSourceSchema(ctx context.Context, source driver.Driver, opts Options) (*schema.Schema, error) {
	if opts.Schema != nil {
		return opts.Schema, nil
	}
	if !source.Features().ReadSchema {
		return nil, &xerror.UnsupportedFeatureError{Driver: source.Name(), Operation: "schema"}
	}
	return source.Schema(ctx)
}

// normalizeSchema applies step 2 of §4.G: coerce the portable schema to
// the destination dialect's type support by rendering then re-parsing it
// through that dialect's own codec (§4.B), so the exact same mapping
// table backs both introspection and normalization.
func normalizeSchema(dest driver.Driver, s *schema.Schema) (*schema.Schema, []warning.Warning, error) {
	switch dest.(type) {
	case *postgres.Driver:
		sql, warnings, err := pgsql.Render(s)
		if err != nil {
			return nil, nil, err
		}
		normalized, parseWarnings, err := pgsql.Parse(sql)
		if err != nil {
			return nil, nil, err
		}
		return normalized, append(warnings, parseWarnings...), nil
	case *bigquery.Driver:
		data, warnings, err := bigqueryschema.Render(s)
		if err != nil {
			return nil, nil, err
		}
		normalized, err := bigqueryschema.Parse(s.Table().Name, data)
		if err != nil {
			return nil, nil, err
		}
		return normalized, warnings, nil
	default:
		// csv/gcs/s3 destinations carry no dialect-specific type
		// restrictions beyond the CSV interchange format itself
		// (§4.E), so the portable schema passes through unchanged.
		return s, nil, nil
	}
}

// validateOptions implements step 3: reject an if_exists mode the
// destination hasn't advertised.
func validateOptions(dest driver.Driver, opts Options) error {
	if !dest.Features().Supports(opts.IfExists.Mode) {
		return &xerror.UnsupportedFeatureError{Driver: dest.Name(), Operation: "if_exists mode"}
	}
	return nil
}

// validateCaseFoldedColumns enforces §3.2/§4.G's destination
// case-folded-collision rule: a destination with case-insensitive
// identifiers (BigQuery) must reject a schema whose column names
// collide once folded, before any stream is opened.
func validateCaseFoldedColumns(dest driver.Driver, destSchema *schema.Schema) error {
	if _, ok := dest.(*bigquery.Driver); !ok {
		return nil
	}
	if dups := destSchema.CaseFoldedDuplicateColumns(); len(dups) > 0 {
		return &xerror.SchemaMismatchError{
			Reason: fmt.Sprintf("%s: columns collide case-insensitively: %s", dest.Name(), strings.Join(dups, ", ")),
		}
	}
	return nil
}

// validateTemporaries implements step 4: every scheme the destination's
// FeatureSet says it needs a temporary resource for must be present
// among the ones the user supplied with --temporary.
func validateTemporaries(dest driver.Driver, supplied []string) error {
	for _, scheme := range dest.Features().TemporariesRequired {
		if !containsString(supplied, scheme) {
			return fmt.Errorf("planner: %s requires a %q temporary: %w", dest.Name(), scheme, xerror.ErrTemporaryRequired)
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// validateUpsertKeysNotNull enforces §8 scenario 5: every upsert key
// must reference a NOT NULL column in the destination schema, checked
// before opening any stream.
func validateUpsertKeysNotNull(destSchema *schema.Schema, keys []string) error {
	if len(keys) == 0 {
		return &xerror.SchemaMismatchError{Reason: "upsert requires at least one key column"}
	}
	cols := make(map[string]schema.Column, len(destSchema.Table().Columns))
	for _, c := range destSchema.Table().Columns {
		cols[c.Name] = c
	}
	for _, key := range keys {
		col, ok := cols[key]
		if !ok {
			return &xerror.SchemaMismatchError{Reason: fmt.Sprintf("upsert key %q is not a column of the destination schema", key)}
		}
		if col.IsNullable {
			return &xerror.SchemaMismatchError{Reason: "upsert key must be NOT NULL"}
		}
	}
	return nil
}
