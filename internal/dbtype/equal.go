package dbtype

// Equal reports whether a and b are structurally identical. NamedType
// equality is nominal: two NamedType values are equal iff their Name
// matches, regardless of what the name resolves to (callers comparing
// resolved schemas should resolve both sides first).
func Equal(a, b DataType) bool {
	switch av := a.(type) {
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case DateType:
		_, ok := b.(DateType)
		return ok
	case DecimalType:
		_, ok := b.(DecimalType)
		return ok
	case Float32Type:
		_, ok := b.(Float32Type)
		return ok
	case Float64Type:
		_, ok := b.(Float64Type)
		return ok
	case GeoJSONType:
		bv, ok := b.(GeoJSONType)
		return ok && av.SRID == bv.SRID
	case Int16Type:
		_, ok := b.(Int16Type)
		return ok
	case Int32Type:
		_, ok := b.(Int32Type)
		return ok
	case Int64Type:
		_, ok := b.(Int64Type)
		return ok
	case JSONType:
		_, ok := b.(JSONType)
		return ok
	case TextType:
		_, ok := b.(TextType)
		return ok
	case TimestampWithoutTimeZoneType:
		_, ok := b.(TimestampWithoutTimeZoneType)
		return ok
	case TimestampWithTimeZoneType:
		_, ok := b.(TimestampWithTimeZoneType)
		return ok
	case UUIDType:
		_, ok := b.(UUIDType)
		return ok
	case ArrayType:
		bv, ok := b.(ArrayType)
		return ok && Equal(av.Element, bv.Element)
	case StructType:
		bv, ok := b.(StructType)
		if !ok || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for i, f := range av.Fields {
			g := bv.Fields[i]
			if f.Name != g.Name || f.IsNullable != g.IsNullable || !Equal(f.DataType, g.DataType) {
				return false
			}
		}
		return true
	case OneOfType:
		bv, ok := b.(OneOfType)
		if !ok || len(av.Values) != len(bv.Values) {
			return false
		}
		for i, v := range av.Values {
			if v != bv.Values[i] {
				return false
			}
		}
		return true
	case NamedType:
		bv, ok := b.(NamedType)
		return ok && av.Name == bv.Name
	default:
		return false
	}
}
