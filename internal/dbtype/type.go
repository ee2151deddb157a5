// Package dbtype implements the portable type algebra shared by every
// schema codec and driver in dbcrossbar. A DataType is a closed, tagged
// variant: each case is a concrete Go type implementing the DataType
// marker interface, following the same pattern ariga.io/atlas uses for
// its own schema.Type (a private marker method plus one struct per case)
// rather than a single struct with a discriminator field.
//
// Adding a case here is a breaking change: every codec in internal/codec
// and every switch over DataType elsewhere in the module must be updated
// to handle it (see DESIGN.md).
package dbtype

import "fmt"

// DataType is the portable representation of a column or field type.
// Implementations are value types (safe to compare with Equal, copy, and
// share across goroutines); none of them carry driver resources.
type DataType interface {
	// dataType is unexported so only this package can add new cases.
	dataType()

	// String renders a short, human-readable form used in error messages
	// and warnings (not a serialization format; see MarshalJSON for that).
	String() string
}

// Scalar cases. Each is a zero-size struct: distinct Go types give us
// exhaustiveness checking via type switches without a discriminator field.
type (
	BoolType                      struct{}
	DateType                      struct{}
	DecimalType                   struct{}
	Float32Type                   struct{}
	Float64Type                   struct{}
	Int16Type                     struct{}
	Int32Type                     struct{}
	Int64Type                     struct{}
	JSONType                      struct{}
	TextType                      struct{}
	TimestampWithoutTimeZoneType  struct{}
	TimestampWithTimeZoneType     struct{}
	UUIDType                      struct{}
)

// GeoJSONType is geometry serialized as GeoJSON in a given spatial
// reference system. SRID 4326 (WGS 84) is the default when a source
// dialect does not carry one; use NewGeoJSON to apply that default.
type GeoJSONType struct {
	SRID uint32
}

// ArrayType is a homogeneous, possibly-nested sequence of Element.
type ArrayType struct {
	Element DataType
}

// StructField is one named member of a StructType.
type StructField struct {
	Name       string
	IsNullable bool
	DataType   DataType
}

// StructType is an ordered list of uniquely-named fields. A Struct with
// zero fields is illegal (invariant ii); construct with NewStruct to
// enforce that.
type StructType struct {
	Fields []StructField
}

// OneOfType is a closed enumeration of allowed textual values. Values are
// unique (after Unicode NFC normalization) and non-empty (invariant iii);
// order is significant for display. Construct with NewOneOf to enforce
// that.
type OneOfType struct {
	Values []string
}

// NamedType is a reference to a type declared in a Schema's
// NamedDataTypes table (experimental). Two NamedType values are equal iff
// their Name is equal: typing here is nominal, not structural.
type NamedType struct {
	Name string
}

func (BoolType) dataType()                     {}
func (DateType) dataType()                     {}
func (DecimalType) dataType()                  {}
func (Float32Type) dataType()                  {}
func (Float64Type) dataType()                  {}
func (GeoJSONType) dataType()                  {}
func (Int16Type) dataType()                    {}
func (Int32Type) dataType()                    {}
func (Int64Type) dataType()                    {}
func (JSONType) dataType()                     {}
func (TextType) dataType()                     {}
func (TimestampWithoutTimeZoneType) dataType() {}
func (TimestampWithTimeZoneType) dataType()    {}
func (UUIDType) dataType()                     {}
func (ArrayType) dataType()                    {}
func (StructType) dataType()                   {}
func (OneOfType) dataType()                    {}
func (NamedType) dataType()                    {}

func (BoolType) String() string    { return "bool" }
func (DateType) String() string    { return "date" }
func (DecimalType) String() string { return "decimal" }
func (Float32Type) String() string { return "float32" }
func (Float64Type) String() string { return "float64" }
func (t GeoJSONType) String() string {
	return fmt.Sprintf("geo_json(srid=%d)", t.SRID)
}
func (Int16Type) String() string                    { return "int16" }
func (Int32Type) String() string                    { return "int32" }
func (Int64Type) String() string                    { return "int64" }
func (JSONType) String() string                     { return "json" }
func (TextType) String() string                     { return "text" }
func (TimestampWithoutTimeZoneType) String() string { return "timestamp_without_time_zone" }
func (TimestampWithTimeZoneType) String() string    { return "timestamp_with_time_zone" }
func (UUIDType) String() string                     { return "uuid" }

func (t ArrayType) String() string {
	return fmt.Sprintf("array(%s)", t.Element)
}

func (t StructType) String() string {
	s := "struct("
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ": " + f.DataType.String()
	}
	return s + ")"
}

func (t OneOfType) String() string {
	s := "one_of("
	for i, v := range t.Values {
		if i > 0 {
			s += ", "
		}
		s += v
	}
	return s + ")"
}

func (t NamedType) String() string {
	return "named(" + t.Name + ")"
}

// DefaultGeoJSONSRID is the SRID assumed when a source dialect does not
// specify one (invariant iv).
const DefaultGeoJSONSRID uint32 = 4326

// NewGeoJSON builds a GeoJSONType, applying DefaultGeoJSONSRID when srid
// is zero.
func NewGeoJSON(srid uint32) GeoJSONType {
	if srid == 0 {
		srid = DefaultGeoJSONSRID
	}
	return GeoJSONType{SRID: srid}
}
