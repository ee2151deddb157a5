package csvfmt

import (
	"fmt"

	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

// Header returns the RawFields for s's header record, in column order
// (§4.E: "first row is header with exact column names in schema order").
func Header(s *schema.Schema) []RawField {
	cols := s.Table().Columns
	fields := make([]RawField, len(cols))
	for i, c := range cols {
		fields[i] = RawField{Text: c.Name}
	}
	return fields
}

// EncodeRow renders one row of values (in column order, Named types
// already resolved against s) as RawFields.
func EncodeRow(s *schema.Schema, values []any) ([]RawField, error) {
	cols := s.Table().Columns
	if len(values) != len(cols) {
		return nil, fmt.Errorf("csvfmt: row has %d values, schema has %d columns", len(values), len(cols))
	}
	fields := make([]RawField, len(cols))
	for i, c := range cols {
		dt, err := s.Resolve(c.DataType)
		if err != nil {
			return nil, err
		}
		f, err := Encode(dt, values[i])
		if err != nil {
			return nil, fmt.Errorf("csvfmt: column %q: %w", c.Name, err)
		}
		fields[i] = f
	}
	return fields, nil
}

// DecodeRow parses one record's RawFields into values per s's columns.
func DecodeRow(s *schema.Schema, fields []RawField) ([]any, error) {
	cols := s.Table().Columns
	if len(fields) != len(cols) {
		return nil, fmt.Errorf("csvfmt: record has %d fields, schema has %d columns", len(fields), len(cols))
	}
	values := make([]any, len(cols))
	for i, c := range cols {
		dt, err := s.Resolve(c.DataType)
		if err != nil {
			return nil, err
		}
		v, err := Decode(dt, fields[i])
		if err != nil {
			return nil, fmt.Errorf("csvfmt: column %q: %w", c.Name, err)
		}
		values[i] = v
	}
	return values, nil
}
