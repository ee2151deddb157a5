package tsschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/tsschema"
	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
)

// TestMagicAliases implements end-to-end scenario 6: magic alias
// resolution wins over a shadowing `type` declaration.
func TestMagicAliases(t *testing.T) {
	s, err := tsschema.Parse(`type decimal = number|string; interface R { v: decimal }`, "#R")
	require.NoError(t, err)

	cols := s.Table().Columns
	require.Len(t, cols, 1)
	assert.Equal(t, "v", cols[0].Name)
	assert.False(t, cols[0].IsNullable)
	assert.True(t, dbtype.Equal(dbtype.DecimalType{}, cols[0].DataType))
}

func TestNullableUnion(t *testing.T) {
	s, err := tsschema.Parse(`interface R { name: string | null; count: number }`, "#R")
	require.NoError(t, err)

	cols := s.Table().Columns
	require.Len(t, cols, 2)
	assert.True(t, cols[0].IsNullable)
	assert.True(t, dbtype.Equal(dbtype.TextType{}, cols[0].DataType))
	assert.False(t, cols[1].IsNullable)
	assert.True(t, dbtype.Equal(dbtype.Float64Type{}, cols[1].DataType))
}

func TestArraySuffix(t *testing.T) {
	s, err := tsschema.Parse(`interface R { tags: string[] }`, "#R")
	require.NoError(t, err)

	cols := s.Table().Columns
	require.Len(t, cols, 1)
	assert.True(t, dbtype.Equal(dbtype.ArrayType{Element: dbtype.TextType{}}, cols[0].DataType))
}

func TestOptionalFieldIsNullable(t *testing.T) {
	s, err := tsschema.Parse(`interface R { name?: string }`, "#R")
	require.NoError(t, err)
	assert.True(t, s.Table().Columns[0].IsNullable)
}

func TestNestedInterfaceBecomesNamed(t *testing.T) {
	s, err := tsschema.Parse(`
		interface Address { city: string }
		interface R { addr: Address }
	`, "#R")
	require.NoError(t, err)

	cols := s.Table().Columns
	require.Len(t, cols, 1)
	named, ok := cols[0].DataType.(dbtype.NamedType)
	require.True(t, ok)
	assert.Equal(t, "Address", named.Name)

	dt, ok := s.NamedDataType("Address")
	require.True(t, ok)
	_, ok = dt.(dbtype.StructType)
	assert.True(t, ok)
}

func TestMissingFragmentIsParseError(t *testing.T) {
	_, err := tsschema.Parse(`interface R { v: string }`, "#Missing")
	assert.Error(t, err)
}

func TestInlineStructField(t *testing.T) {
	s, err := tsschema.Parse(`interface R { addr: { city: string, zip: string | null } }`, "#R")
	require.NoError(t, err)

	st, ok := s.Table().Columns[0].DataType.(dbtype.StructType)
	require.True(t, ok)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "city", st.Fields[0].Name)
	assert.True(t, st.Fields[1].IsNullable)
}
