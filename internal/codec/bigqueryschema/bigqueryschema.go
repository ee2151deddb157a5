// Package bigqueryschema implements the BigQuery JSON schema codec
// (§4.B.3): the published [{"name","type","mode","fields"}] shape BigQuery
// itself accepts for `bq mk --schema` and returns from `bq show --schema`.
package bigqueryschema

import (
	"encoding/json"
	"fmt"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/warning"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

const (
	modeNullable = "NULLABLE"
	modeRequired = "REQUIRED"
	modeRepeated = "REPEATED"
)

// field is one entry of the BigQuery schema array.
type field struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Mode   string  `json:"mode,omitempty"`
	Fields []field `json:"fields,omitempty"`
}

// Parse reads a BigQuery JSON schema array into a Schema. The single
// table's name must be supplied by the caller, since a bare BigQuery
// schema document carries no table name of its own.
func Parse(tableName string, data []byte) (*schema.Schema, error) {
	var fields []field
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("bigqueryschema: %w", err)
	}

	table := schema.Table{Name: tableName}
	for _, f := range fields {
		col, err := fieldToColumn(f)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}

	s, err := schema.New(table, nil)
	if err != nil {
		return nil, fmt.Errorf("bigqueryschema: %w", err)
	}
	return s, nil
}

func fieldToColumn(f field) (schema.Column, error) {
	dt, err := fieldToType(f)
	if err != nil {
		return schema.Column{}, err
	}
	return schema.Column{
		Name:       f.Name,
		IsNullable: f.Mode != modeRequired && f.Mode != modeRepeated,
		DataType:   dt,
	}, nil
}

func fieldToType(f field) (dbtype.DataType, error) {
	var scalar dbtype.DataType
	switch f.Type {
	case "INT64", "INTEGER":
		scalar = dbtype.Int64Type{}
	case "FLOAT64", "FLOAT":
		scalar = dbtype.Float64Type{}
	case "NUMERIC", "BIGNUMERIC":
		scalar = dbtype.DecimalType{}
	case "STRING":
		scalar = dbtype.TextType{}
	case "BOOL", "BOOLEAN":
		scalar = dbtype.BoolType{}
	case "DATE":
		scalar = dbtype.DateType{}
	case "DATETIME":
		scalar = dbtype.TimestampWithoutTimeZoneType{}
	case "TIMESTAMP":
		scalar = dbtype.TimestampWithTimeZoneType{}
	case "GEOGRAPHY":
		scalar = dbtype.NewGeoJSON(0)
	case "JSON":
		scalar = dbtype.JSONType{}
	case "RECORD", "STRUCT":
		fields := make([]dbtype.StructField, 0, len(f.Fields))
		for _, sub := range f.Fields {
			dt, err := fieldToType(sub)
			if err != nil {
				return nil, err
			}
			fields = append(fields, dbtype.StructField{
				Name:       sub.Name,
				IsNullable: sub.Mode != modeRequired && sub.Mode != modeRepeated,
				DataType:   dt,
			})
		}
		st, err := dbtype.NewStruct(fields)
		if err != nil {
			return nil, fmt.Errorf("bigqueryschema: field %q: %w", f.Name, err)
		}
		scalar = st
	default:
		return nil, &xerror.ParseError{Message: fmt.Sprintf("unknown BigQuery type %q for field %q", f.Type, f.Name)}
	}

	if f.Mode == modeRepeated {
		return dbtype.ArrayType{Element: scalar}, nil
	}
	return scalar, nil
}

// Render emits the BigQuery JSON schema array for s's single table.
func Render(s *schema.Schema) ([]byte, []warning.Warning, error) {
	var c warning.Collector
	table := s.Table()
	fields := make([]field, 0, len(table.Columns))
	for _, col := range table.Columns {
		f, err := columnToField(col.Name, col.DataType, col.IsNullable, &c)
		if err != nil {
			return nil, nil, err
		}
		fields = append(fields, f)
	}
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("bigqueryschema: %w", err)
	}
	return data, c.Warnings(), nil
}

func columnToField(name string, dt dbtype.DataType, nullable bool, c *warning.Collector) (field, error) {
	if arr, ok := dt.(dbtype.ArrayType); ok {
		inner, err := typeToField(name, arr.Element, c)
		if err != nil {
			return field{}, err
		}
		inner.Mode = modeRepeated
		return inner, nil
	}
	f, err := typeToField(name, dt, c)
	if err != nil {
		return field{}, err
	}
	if nullable {
		f.Mode = modeNullable
	} else {
		f.Mode = modeRequired
	}
	return f, nil
}

func typeToField(name string, dt dbtype.DataType, c *warning.Collector) (field, error) {
	switch v := dt.(type) {
	case dbtype.Int16Type, dbtype.Int32Type, dbtype.Int64Type:
		return field{Name: name, Type: "INT64"}, nil
	case dbtype.Float32Type, dbtype.Float64Type:
		return field{Name: name, Type: "FLOAT64"}, nil
	case dbtype.DecimalType:
		return field{Name: name, Type: "NUMERIC"}, nil
	case dbtype.TextType, dbtype.UUIDType, dbtype.JSONType:
		return field{Name: name, Type: "STRING"}, nil
	case dbtype.OneOfType:
		c.Add(name, "one_of rendered as STRING; enumeration constraint is lost")
		return field{Name: name, Type: "STRING"}, nil
	case dbtype.BoolType:
		return field{Name: name, Type: "BOOL"}, nil
	case dbtype.DateType:
		return field{Name: name, Type: "DATE"}, nil
	case dbtype.TimestampWithoutTimeZoneType:
		return field{Name: name, Type: "DATETIME"}, nil
	case dbtype.TimestampWithTimeZoneType:
		return field{Name: name, Type: "TIMESTAMP"}, nil
	case dbtype.GeoJSONType:
		return field{Name: name, Type: "GEOGRAPHY"}, nil
	case dbtype.StructType:
		subFields := make([]field, 0, len(v.Fields))
		for _, sf := range v.Fields {
			sub, err := columnToField(sf.Name, sf.DataType, sf.IsNullable, c)
			if err != nil {
				return field{}, err
			}
			subFields = append(subFields, sub)
		}
		return field{Name: name, Type: "RECORD", Fields: subFields}, nil
	case dbtype.NamedType:
		c.Add(name, "named type %q rendered as STRING", v.Name)
		return field{Name: name, Type: "STRING"}, nil
	default:
		return field{}, &xerror.UnsupportedType{DataType: dt.String(), Target: "bigqueryschema"}
	}
}
