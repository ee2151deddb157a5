package dbtype

import (
	"encoding/json"
	"fmt"
)

// scalarNames maps every scalar DataType to its native-JSON bare-string
// spelling (§6) and back.
var scalarNames = map[string]DataType{
	"bool":                         BoolType{},
	"date":                         DateType{},
	"decimal":                      DecimalType{},
	"float32":                      Float32Type{},
	"float64":                      Float64Type{},
	"int16":                        Int16Type{},
	"int32":                        Int32Type{},
	"int64":                        Int64Type{},
	"json":                         JSONType{},
	"text":                         TextType{},
	"timestamp_without_time_zone": TimestampWithoutTimeZoneType{},
	"timestamp_with_time_zone":    TimestampWithTimeZoneType{},
	"uuid":                         UUIDType{},
}

func scalarName(t DataType) (string, bool) {
	switch t.(type) {
	case BoolType:
		return "bool", true
	case DateType:
		return "date", true
	case DecimalType:
		return "decimal", true
	case Float32Type:
		return "float32", true
	case Float64Type:
		return "float64", true
	case Int16Type:
		return "int16", true
	case Int32Type:
		return "int32", true
	case Int64Type:
		return "int64", true
	case JSONType:
		return "json", true
	case TextType:
		return "text", true
	case TimestampWithoutTimeZoneType:
		return "timestamp_without_time_zone", true
	case TimestampWithTimeZoneType:
		return "timestamp_with_time_zone", true
	case UUIDType:
		return "uuid", true
	default:
		return "", false
	}
}

// jsonStructField mirrors §6's Column shape for fields nested in a
// {"struct": [...]}  case.
type jsonStructField struct {
	Name       string          `json:"name"`
	IsNullable bool            `json:"is_nullable"`
	DataType   json.RawMessage `json:"data_type"`
}

// Marshal renders t in the native JSON schema format from §6: a bare
// string for scalars, a single-key object for every composite case.
func Marshal(t DataType) ([]byte, error) {
	if name, ok := scalarName(t); ok {
		return json.Marshal(name)
	}
	switch v := t.(type) {
	case GeoJSONType:
		return json.Marshal(map[string]uint32{"geo_json": v.SRID})
	case ArrayType:
		elem, err := Marshal(v.Element)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{"array": elem})
	case StructType:
		fields := make([]jsonStructField, len(v.Fields))
		for i, f := range v.Fields {
			raw, err := Marshal(f.DataType)
			if err != nil {
				return nil, err
			}
			fields[i] = jsonStructField{Name: f.Name, IsNullable: f.IsNullable, DataType: raw}
		}
		return json.Marshal(map[string][]jsonStructField{"struct": fields})
	case OneOfType:
		return json.Marshal(map[string][]string{"one_of": v.Values})
	case NamedType:
		return json.Marshal(map[string]string{"named": v.Name})
	default:
		return nil, fmt.Errorf("dbtype: unhandled DataType %T", t)
	}
}

// Unmarshal parses the native JSON schema format from §6 back into a
// DataType.
func Unmarshal(data []byte) (DataType, error) {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		if t, ok := scalarNames[bare]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("dbtype: unknown scalar type %q", bare)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("dbtype: data_type must be a string or single-key object: %w", err)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("dbtype: composite data_type object must have exactly one key, got %d", len(obj))
	}

	for key, raw := range obj {
		switch key {
		case "geo_json":
			var srid uint32
			if err := json.Unmarshal(raw, &srid); err != nil {
				return nil, fmt.Errorf("dbtype: geo_json: %w", err)
			}
			return NewGeoJSON(srid), nil
		case "array":
			elem, err := Unmarshal(raw)
			if err != nil {
				return nil, fmt.Errorf("dbtype: array: %w", err)
			}
			return ArrayType{Element: elem}, nil
		case "struct":
			var raws []jsonStructField
			if err := json.Unmarshal(raw, &raws); err != nil {
				return nil, fmt.Errorf("dbtype: struct: %w", err)
			}
			fields := make([]StructField, len(raws))
			for i, rf := range raws {
				dt, err := Unmarshal(rf.DataType)
				if err != nil {
					return nil, fmt.Errorf("dbtype: struct field %q: %w", rf.Name, err)
				}
				fields[i] = StructField{Name: rf.Name, IsNullable: rf.IsNullable, DataType: dt}
			}
			return NewStruct(fields)
		case "one_of":
			var values []string
			if err := json.Unmarshal(raw, &values); err != nil {
				return nil, fmt.Errorf("dbtype: one_of: %w", err)
			}
			return NewOneOf(values)
		case "named":
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return nil, fmt.Errorf("dbtype: named: %w", err)
			}
			return NamedType{Name: name}, nil
		default:
			return nil, fmt.Errorf("dbtype: unknown composite data_type key %q", key)
		}
	}
	panic("unreachable")
}

// Wrapped adapts a DataType to encoding/json's Marshaler/Unmarshaler so it
// can be embedded directly as a struct field elsewhere in the module.
type Wrapped struct {
	DataType
}

func (w Wrapped) MarshalJSON() ([]byte, error) {
	return Marshal(w.DataType)
}

func (w *Wrapped) UnmarshalJSON(data []byte) error {
	t, err := Unmarshal(data)
	if err != nil {
		return err
	}
	w.DataType = t
	return nil
}
