package bigqueryschema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/bigqueryschema"
	"github.com/dbcrossbar/dbcrossbar/internal/codec/pgsql"
)

// TestPgsqlToBigQueryRoundTrip implements end-to-end scenario 1 from the
// engine's testable-properties section: a PG-SQL to BQ-JSON translation.
func TestPgsqlToBigQueryRoundTrip(t *testing.T) {
	s, _, err := pgsql.Parse(`CREATE TABLE t (id bigint NOT NULL, n text, t timestamp with time zone, a int[])`)
	require.NoError(t, err)

	out, warnings, err := bigqueryschema.Render(s)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got, 4)

	assert.Equal(t, "id", got[0]["name"])
	assert.Equal(t, "INT64", got[0]["type"])
	assert.Equal(t, "REQUIRED", got[0]["mode"])

	assert.Equal(t, "n", got[1]["name"])
	assert.Equal(t, "STRING", got[1]["type"])
	assert.Equal(t, "NULLABLE", got[1]["mode"])

	assert.Equal(t, "t", got[2]["name"])
	assert.Equal(t, "TIMESTAMP", got[2]["type"])
	assert.Equal(t, "NULLABLE", got[2]["mode"])

	assert.Equal(t, "a", got[3]["name"])
	assert.Equal(t, "INT64", got[3]["type"])
	assert.Equal(t, "REPEATED", got[3]["mode"])
}

func TestParseNestedRecord(t *testing.T) {
	doc := `[
		{"name": "id", "type": "INT64", "mode": "REQUIRED"},
		{"name": "addr", "type": "RECORD", "mode": "NULLABLE", "fields": [
			{"name": "city", "type": "STRING", "mode": "NULLABLE"},
			{"name": "zips", "type": "STRING", "mode": "REPEATED"}
		]}
	]`
	s, err := bigqueryschema.Parse("t", []byte(doc))
	require.NoError(t, err)
	assert.Len(t, s.Table().Columns, 2)
}

func TestRoundTrip(t *testing.T) {
	doc := `[
		{"name": "id", "type": "INT64", "mode": "REQUIRED"},
		{"name": "n", "type": "STRING", "mode": "NULLABLE"}
	]`
	s1, err := bigqueryschema.Parse("t", []byte(doc))
	require.NoError(t, err)

	rendered, _, err := bigqueryschema.Render(s1)
	require.NoError(t, err)

	s2, err := bigqueryschema.Parse("t", rendered)
	require.NoError(t, err)

	assert.Equal(t, s1.Table().Columns, s2.Table().Columns)
}
