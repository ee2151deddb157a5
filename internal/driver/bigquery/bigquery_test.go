package bigquery

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocatorBody(t *testing.T) {
	project, dataset, table, err := parseLocatorBody("my-project:my_dataset.my_table")
	require.NoError(t, err)
	assert.Equal(t, "my-project", project)
	assert.Equal(t, "my_dataset", dataset)
	assert.Equal(t, "my_table", table)
}

func TestParseLocatorBodyRejectsMissingColon(t *testing.T) {
	_, _, _, err := parseLocatorBody("my_dataset.my_table")
	assert.Error(t, err)
}

func TestParseLocatorBodyRejectsMissingDot(t *testing.T) {
	_, _, _, err := parseLocatorBody("my-project:my_table")
	assert.Error(t, err)
}

func TestWireFieldsRoundTrip(t *testing.T) {
	schema := bigquery.Schema{
		{Name: "id", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "tags", Type: bigquery.StringFieldType, Repeated: true},
		{Name: "address", Type: bigquery.RecordFieldType, Schema: bigquery.Schema{
			{Name: "city", Type: bigquery.StringFieldType},
		}},
	}

	wire := toWireFields(schema)
	require.Len(t, wire, 3)
	assert.Equal(t, "REQUIRED", wire[0].Mode)
	assert.Equal(t, "REPEATED", wire[1].Mode)
	assert.Equal(t, "NULLABLE", wire[2].Mode)
	require.Len(t, wire[2].Fields, 1)
	assert.Equal(t, "city", wire[2].Fields[0].Name)

	back := fromWireFields(wire)
	require.Len(t, back, 3)
	assert.True(t, back[0].Required)
	assert.True(t, back[1].Repeated)
	assert.Equal(t, bigquery.RecordFieldType, back[2].Type)
	require.Len(t, back[2].Schema, 1)
	assert.Equal(t, "city", back[2].Schema[0].Name)
}
