package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

func TestNewRejectsEmptyTable(t *testing.T) {
	_, err := schema.New(schema.Table{Name: "t"}, nil)
	assert.Error(t, err)
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	_, err := schema.New(schema.Table{
		Name: "t",
		Columns: []schema.Column{
			{Name: "id", DataType: dbtype.Int64Type{}},
			{Name: "id", DataType: dbtype.TextType{}},
		},
	}, nil)
	assert.Error(t, err)
}

func TestNewResolvesNamedTypes(t *testing.T) {
	_, err := schema.New(schema.Table{
		Name: "t",
		Columns: []schema.Column{
			{Name: "status", DataType: dbtype.NamedType{Name: "Status"}},
		},
	}, nil)
	assert.Error(t, err, "unresolved Named reference must fail construction")

	oneOf, err := dbtype.NewOneOf([]string{"open", "closed"})
	require.NoError(t, err)

	s, err := schema.New(schema.Table{
		Name: "t",
		Columns: []schema.Column{
			{Name: "status", DataType: dbtype.NamedType{Name: "Status"}},
		},
	}, map[string]dbtype.DataType{"Status": oneOf})
	require.NoError(t, err)

	resolved, err := s.Resolve(dbtype.NamedType{Name: "Status"})
	require.NoError(t, err)
	assert.True(t, dbtype.Equal(oneOf, resolved))
}

func TestCaseFoldedDuplicateColumns(t *testing.T) {
	s, err := schema.New(schema.Table{
		Name: "t",
		Columns: []schema.Column{
			{Name: "ID", DataType: dbtype.Int64Type{}},
			{Name: "id", DataType: dbtype.TextType{}},
			{Name: "name", DataType: dbtype.TextType{}},
		},
	}, nil)
	require.NoError(t, err)

	dups := s.CaseFoldedDuplicateColumns()
	assert.ElementsMatch(t, []string{"ID", "id"}, dups)
}
