package nativejson_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/nativejson"
	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

func buildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	status, err := dbtype.NewOneOf([]string{"open", "closed"})
	require.NoError(t, err)

	s, err := schema.New(schema.Table{
		Name: "widgets",
		Columns: []schema.Column{
			{Name: "id", DataType: dbtype.Int64Type{}},
			{Name: "name", IsNullable: true, DataType: dbtype.TextType{}, Comment: "display name"},
			{Name: "location", IsNullable: true, DataType: dbtype.NewGeoJSON(0)},
			{Name: "tags", IsNullable: true, DataType: dbtype.ArrayType{Element: dbtype.TextType{}}},
			{Name: "status", DataType: dbtype.NamedType{Name: "Status"}},
		},
	}, map[string]dbtype.DataType{"Status": status})
	require.NoError(t, err)
	return s
}

func TestRoundTrip(t *testing.T) {
	s := buildSchema(t)

	data, err := nativejson.Render(s)
	require.NoError(t, err)

	got, err := nativejson.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, s.Table().Name, got.Table().Name)
	assert.Equal(t, s.Table().Columns, got.Table().Columns)
	assert.ElementsMatch(t, s.NamedDataTypeNames(), got.NamedDataTypeNames())
}

func TestIdempotentRendering(t *testing.T) {
	s := buildSchema(t)

	data1, err := nativejson.Render(s)
	require.NoError(t, err)
	parsed, err := nativejson.Parse(data1)
	require.NoError(t, err)
	data2, err := nativejson.Render(parsed)
	require.NoError(t, err)

	assert.JSONEq(t, string(data1), string(data2))
}

func TestParseRejectsMultipleTables(t *testing.T) {
	_, err := nativejson.Parse([]byte(`{"named_data_types":[],"tables":[
		{"name":"a","columns":[{"name":"x","is_nullable":false,"data_type":"int32"}]},
		{"name":"b","columns":[{"name":"y","is_nullable":false,"data_type":"int32"}]}
	]}`))
	assert.Error(t, err)
}

func TestParseRejectsUnresolvedNamed(t *testing.T) {
	_, err := nativejson.Parse([]byte(`{"named_data_types":[],"tables":[
		{"name":"a","columns":[{"name":"x","is_nullable":false,"data_type":{"named":"Missing"}}]}
	]}`))
	assert.Error(t, err)
}
