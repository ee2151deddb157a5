// Package postgres implements internal/driver.Driver for PostgreSQL,
// registering itself under the "postgres" locator scheme. Schema
// introspection is built on top of internal/codec/pgsql: rather than
// re-deriving the dbtype.DataType mapping table a second time, this
// driver renders a synthetic CREATE TABLE statement from pg_catalog and
// feeds it straight through the same parser the postgres-sql: schema locator
// uses, so both paths share one type-mapping table.
package postgres

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/pgsql"
	"github.com/dbcrossbar/dbcrossbar/internal/csvfmt"
	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/locator"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

func init() {
	locator.Register("postgres", func(loc locator.Locator) (any, error) {
		return Open(loc)
	})
}

// Driver is a postgres: locator driver backed by a pgxpool.Pool.
type Driver struct {
	driver.Unimplemented
	pool  *pgxpool.Pool
	table string
}

// Open connects to the database named by loc.Body and targets the table
// named by loc.Fragment (e.g. "postgres://user@host/db#widgets").
func Open(loc locator.Locator) (*Driver, error) {
	if loc.Fragment == "" {
		return nil, &xerror.LocatorError{Locator: loc.Raw, Reason: "postgres: locator requires a #table fragment"}
	}
	connString := "postgres:" + loc.Body
	if len(loc.Query) > 0 {
		connString += "?" + loc.Query.Encode()
	}
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, xerror.Wrap("postgres: connect", err)
	}
	return &Driver{Unimplemented: driver.Unimplemented{DriverName: "postgres"}, pool: pool, table: loc.Fragment}, nil
}

// Close releases the connection pool.
func (d *Driver) Close() { d.pool.Close() }

func (d *Driver) Features() driver.FeatureSet {
	return driver.FeatureSet{
		ReadSchema:  true,
		WriteSchema: true,
		ReadData:    true,
		WriteData:   true,
		IfExistsModes: []driver.IfExistsMode{
			driver.IfExistsError, driver.IfExistsAppend, driver.IfExistsOverwrite, driver.IfExistsUpsert,
		},
		Count: true,
	}
}

func (d *Driver) Schema(ctx context.Context) (*schema.Schema, error) {
	const introspectionQuery = `
SELECT a.attname,
       pg_catalog.format_type(a.atttypid, a.atttypmod),
       a.attnotnull,
       pg_catalog.col_description(a.attrelid, a.attnum)
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON a.attrelid = c.oid
WHERE c.relname = $1 AND a.attnum > 0 AND NOT a.attisdropped
ORDER BY a.attnum`

	rows, err := d.pool.Query(ctx, introspectionQuery, d.table)
	if err != nil {
		return nil, xerror.Wrap("postgres: introspect schema", err)
	}
	defer rows.Close()

	var sql strings.Builder
	var comments strings.Builder
	fmt.Fprintf(&sql, "CREATE TABLE %q (\n", d.table)
	first := true
	for rows.Next() {
		var name, pgType string
		var notNull bool
		var comment *string
		if err := rows.Scan(&name, &pgType, &notNull, &comment); err != nil {
			return nil, xerror.Wrap("postgres: scan column", err)
		}
		if !first {
			sql.WriteString(",\n")
		}
		first = false
		fmt.Fprintf(&sql, "  %q %s", name, pgType)
		if notNull {
			sql.WriteString(" NOT NULL")
		}
		if comment != nil && *comment != "" {
			fmt.Fprintf(&comments, "COMMENT ON COLUMN %q.%q IS '%s';\n", d.table, name, strings.ReplaceAll(*comment, "'", "''"))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, xerror.Wrap("postgres: read columns", err)
	}
	sql.WriteString("\n);\n")
	sql.WriteString(comments.String())

	s, _, err := pgsql.Parse(sql.String())
	if err != nil {
		return nil, xerror.Wrap("postgres: parse introspected schema", err)
	}
	return s, nil
}

func (d *Driver) selectQuery(whereClause string) string {
	q := fmt.Sprintf("SELECT * FROM %q", d.table)
	if whereClause != "" {
		q += " WHERE " + whereClause
	}
	return q
}

func (d *Driver) LocalData(ctx context.Context, args driver.SharedArgs) (*stream.DatasetStream, error) {
	s, err := d.Schema(ctx)
	if err != nil {
		return nil, err
	}
	query := d.selectQuery(args.WhereClause)

	ds := stream.Produce(ctx, 1, func(ctx context.Context, emit func(stream.OutputStream) error) error {
		rows, err := d.pool.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		header := csvfmt.Header(s)
		index := 0
		var buf bytes.Buffer
		w := csvfmt.NewWriter(&buf)
		if err := w.WriteRecord(header); err != nil {
			return err
		}

		flush := func(force bool) error {
			if buf.Len() == 0 && !force {
				return nil
			}
			if err := w.Flush(); err != nil {
				return err
			}
			data := append([]byte(nil), buf.Bytes()...)
			name := fmt.Sprintf("%s-%04d.csv", d.table, index)
			if err := emit(stream.OutputStream{Name: name, Body: nopCloser{bytes.NewReader(data)}}); err != nil {
				return err
			}
			index++
			buf.Reset()
			w = csvfmt.NewWriter(&buf)
			return w.WriteRecord(header)
		}

		wrote := false
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return err
			}
			record, err := csvfmt.EncodeRow(s, values)
			if err != nil {
				return err
			}
			if err := w.WriteRecord(record); err != nil {
				return err
			}
			wrote = true
			if err := w.Flush(); err != nil {
				return err
			}
			if args.StreamSizeHint > 0 && int64(buf.Len()) >= args.StreamSizeHint {
				if err := flush(false); err != nil {
					return err
				}
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return flush(!wrote && index == 0)
	})
	return &ds, nil
}

func (d *Driver) WriteLocalData(ctx context.Context, destSchema *schema.Schema, input stream.DatasetStream, args driver.SharedArgs) (driver.WriteFuture, error) {
	if !d.Features().Supports(args.IfExists.Mode) {
		return nil, &xerror.UnsupportedFeatureError{Driver: "postgres", Operation: "if_exists mode"}
	}
	return driver.NewFuture(func() error {
		conn, err := d.pool.Acquire(ctx)
		if err != nil {
			return err
		}
		defer conn.Release()

		targetTable := d.table
		if args.IfExists.Mode == driver.IfExistsOverwrite || args.IfExists.Mode == driver.IfExistsUpsert {
			targetTable = d.table + "_dbcrossbar_tmp"
			if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE TEMP TABLE %q (LIKE %q INCLUDING ALL)", targetTable, d.table)); err != nil {
				return err
			}
			args.Cleanup.Register(func(ctx context.Context) error {
				_, err := conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", targetTable))
				return err
			})
		}

		columns := destSchema.Table().Columns
		colNames := make([]string, len(columns))
		for i, c := range columns {
			colNames[i] = c.Name
		}
		copySQL := fmt.Sprintf("COPY %q (%s) FROM STDIN WITH (FORMAT csv, HEADER true)", targetTable, quoteIdentList(colNames))

		for {
			part, ok, err := input.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			_, err = conn.Conn().PgConn().CopyFrom(ctx, part.Body, copySQL)
			part.Body.Close()
			if err != nil {
				return err
			}
		}

		switch args.IfExists.Mode {
		case driver.IfExistsOverwrite:
			_, err := conn.Exec(ctx, fmt.Sprintf("BEGIN; TRUNCATE %q; INSERT INTO %q SELECT * FROM %q; COMMIT;", d.table, d.table, targetTable))
			return err
		case driver.IfExistsUpsert:
			return d.mergeUpsert(ctx, conn, targetTable, colNames, args.IfExists.UpsertKeys)
		default:
			return nil
		}
	}), nil
}

func (d *Driver) mergeUpsert(ctx context.Context, conn *pgxpool.Conn, tmpTable string, columns, keys []string) error {
	setClauses := make([]string, 0, len(columns))
	for _, c := range columns {
		if !contains(keys, c) {
			setClauses = append(setClauses, fmt.Sprintf("%q = EXCLUDED.%q", c, c))
		}
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %q (%s) SELECT %s FROM %q ON CONFLICT (%s) DO UPDATE SET %s",
		d.table, quoteIdentList(columns), quoteIdentList(columns), tmpTable, quoteIdentList(keys), strings.Join(setClauses, ", "),
	)
	_, err := conn.Exec(ctx, insertSQL)
	return err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func quoteIdentList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

func (d *Driver) Count(ctx context.Context, s *schema.Schema, whereClause string) (int64, bool, error) {
	q := fmt.Sprintf("SELECT count(*) FROM %q", d.table)
	if whereClause != "" {
		q += " WHERE " + whereClause
	}
	var n int64
	if err := d.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, false, xerror.Wrap("postgres: count", err)
	}
	return n, true, nil
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }
