package pgsql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/pgsql"
	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

func TestParseBasicTable(t *testing.T) {
	s, warnings, err := pgsql.Parse(`CREATE TABLE t (id bigint NOT NULL, n text, t timestamp with time zone, a int[])`)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	cols := s.Table().Columns
	require.Len(t, cols, 4)
	assert.Equal(t, "id", cols[0].Name)
	assert.False(t, cols[0].IsNullable)
	assert.True(t, dbtype.Equal(dbtype.Int64Type{}, cols[0].DataType))

	assert.True(t, cols[1].IsNullable)
	assert.True(t, dbtype.Equal(dbtype.TextType{}, cols[1].DataType))

	assert.True(t, dbtype.Equal(dbtype.TimestampWithTimeZoneType{}, cols[2].DataType))
	assert.True(t, dbtype.Equal(dbtype.ArrayType{Element: dbtype.Int32Type{}}, cols[3].DataType))
}

func TestParseEnumAsNamed(t *testing.T) {
	s, _, err := pgsql.Parse(`
		CREATE TYPE status AS ENUM ('open', 'closed');
		CREATE TABLE t (id bigint NOT NULL, s status NOT NULL);
	`)
	require.NoError(t, err)

	cols := s.Table().Columns
	require.Len(t, cols, 2)
	named, ok := cols[1].DataType.(dbtype.NamedType)
	require.True(t, ok)
	assert.Equal(t, "status", named.Name)

	dt, ok := s.NamedDataType("status")
	require.True(t, ok)
	oo, ok := dt.(dbtype.OneOfType)
	require.True(t, ok)
	assert.Equal(t, []string{"open", "closed"}, oo.Values)
}

func TestParseIgnoresConstraintsWithWarning(t *testing.T) {
	s, warnings, err := pgsql.Parse(`CREATE TABLE t (id bigint NOT NULL, PRIMARY KEY (id))`)
	require.NoError(t, err)
	assert.Len(t, s.Table().Columns, 1)
	assert.NotEmpty(t, warnings)
}

func TestParseColumnComment(t *testing.T) {
	s, _, err := pgsql.Parse(`
		CREATE TABLE t (id bigint NOT NULL);
		COMMENT ON COLUMN t.id IS 'the primary key';
	`)
	require.NoError(t, err)
	assert.Equal(t, "the primary key", s.Table().Columns[0].Comment)
}

func TestRenderTypeMapping(t *testing.T) {
	out, warnings, err := pgsql.Parse(`CREATE TABLE t (id bigint NOT NULL, n text)`)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	rendered, renderWarnings, err := pgsql.Render(out)
	require.NoError(t, err)
	assert.Empty(t, renderWarnings)
	assert.Contains(t, rendered, "bigint")
	assert.Contains(t, rendered, "NOT NULL")
	assert.Contains(t, rendered, "text")
}

func TestRenderStructEmitsWarning(t *testing.T) {
	st, err := dbtype.NewStruct([]dbtype.StructField{{Name: "a", DataType: dbtype.TextType{}}})
	require.NoError(t, err)

	s, err := schema.New(schema.Table{
		Name: "t",
		Columns: []schema.Column{
			{Name: "id", DataType: dbtype.Int64Type{}},
			{Name: "payload", IsNullable: true, DataType: st},
		},
	}, nil)
	require.NoError(t, err)

	rendered, warnings, err := pgsql.Render(s)
	require.NoError(t, err)
	assert.Contains(t, rendered, "jsonb")
	assert.NotEmpty(t, warnings)
}

func TestRoundTrip(t *testing.T) {
	input := `CREATE TABLE widgets (id bigint NOT NULL, name text, count integer NOT NULL)`
	s1, _, err := pgsql.Parse(input)
	require.NoError(t, err)

	rendered, _, err := pgsql.Render(s1)
	require.NoError(t, err)

	s2, _, err := pgsql.Parse(rendered)
	require.NoError(t, err)

	assert.Equal(t, s1.Table().Name, s2.Table().Name)
	require.Len(t, s2.Table().Columns, len(s1.Table().Columns))
	for i := range s1.Table().Columns {
		assert.True(t, dbtype.Equal(s1.Table().Columns[i].DataType, s2.Table().Columns[i].DataType))
		assert.Equal(t, s1.Table().Columns[i].IsNullable, s2.Table().Columns[i].IsNullable)
	}
}
