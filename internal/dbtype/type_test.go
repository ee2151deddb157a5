package dbtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
)

func roundTrip(t *testing.T, dt dbtype.DataType) dbtype.DataType {
	t.Helper()
	data, err := dbtype.Marshal(dt)
	require.NoError(t, err)
	got, err := dbtype.Unmarshal(data)
	require.NoError(t, err)
	return got
}

func TestScalarRoundTrip(t *testing.T) {
	cases := []dbtype.DataType{
		dbtype.BoolType{},
		dbtype.DateType{},
		dbtype.DecimalType{},
		dbtype.Float32Type{},
		dbtype.Float64Type{},
		dbtype.Int16Type{},
		dbtype.Int32Type{},
		dbtype.Int64Type{},
		dbtype.JSONType{},
		dbtype.TextType{},
		dbtype.TimestampWithoutTimeZoneType{},
		dbtype.TimestampWithTimeZoneType{},
		dbtype.UUIDType{},
	}
	for _, c := range cases {
		got := roundTrip(t, c)
		assert.True(t, dbtype.Equal(c, got), "round trip of %s produced %s", c, got)
	}
}

func TestGeoJSONDefaultSRID(t *testing.T) {
	gj := dbtype.NewGeoJSON(0)
	assert.Equal(t, dbtype.DefaultGeoJSONSRID, gj.SRID)

	got := roundTrip(t, dbtype.NewGeoJSON(3857))
	assert.True(t, dbtype.Equal(dbtype.GeoJSONType{SRID: 3857}, got))
}

func TestArrayRoundTrip(t *testing.T) {
	arr := dbtype.ArrayType{Element: dbtype.ArrayType{Element: dbtype.Int32Type{}}}
	got := roundTrip(t, arr)
	assert.True(t, dbtype.Equal(arr, got))
}

func TestStructRequiresFieldsAndUniqueNames(t *testing.T) {
	_, err := dbtype.NewStruct(nil)
	assert.Error(t, err)

	_, err = dbtype.NewStruct([]dbtype.StructField{
		{Name: "a", DataType: dbtype.TextType{}},
		{Name: "a", DataType: dbtype.Int32Type{}},
	})
	assert.Error(t, err)

	st, err := dbtype.NewStruct([]dbtype.StructField{
		{Name: "a", DataType: dbtype.TextType{}},
		{Name: "b", IsNullable: true, DataType: dbtype.Int32Type{}},
	})
	require.NoError(t, err)
	got := roundTrip(t, st)
	assert.True(t, dbtype.Equal(st, got))
}

func TestOneOfNormalizesAndRejectsDuplicates(t *testing.T) {
	_, err := dbtype.NewOneOf(nil)
	assert.Error(t, err)

	_, err = dbtype.NewOneOf([]string{"a", ""})
	assert.Error(t, err)

	_, err = dbtype.NewOneOf([]string{"red", "red"})
	assert.Error(t, err)

	oo, err := dbtype.NewOneOf([]string{"red", "green", "blue"})
	require.NoError(t, err)
	got := roundTrip(t, oo)
	assert.True(t, dbtype.Equal(oo, got))
}

func TestNamedIsNominal(t *testing.T) {
	a := dbtype.NamedType{Name: "Foo"}
	b := dbtype.NamedType{Name: "Foo"}
	c := dbtype.NamedType{Name: "Bar"}
	assert.True(t, dbtype.Equal(a, b))
	assert.False(t, dbtype.Equal(a, c))

	got := roundTrip(t, a)
	assert.True(t, dbtype.Equal(a, got))
}

func TestUnknownScalarIsRejected(t *testing.T) {
	_, err := dbtype.Unmarshal([]byte(`"not_a_real_type"`))
	assert.Error(t, err)
}

func TestCompositeObjectMustHaveOneKey(t *testing.T) {
	_, err := dbtype.Unmarshal([]byte(`{"array": "int32", "named": "X"}`))
	assert.Error(t, err)
}
