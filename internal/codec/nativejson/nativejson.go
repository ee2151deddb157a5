// Package nativejson implements the reference schema codec (§4.B.1): a
// bijective JSON encoding of internal/schema.Schema. Every other codec's
// round-trip law is checked against this one, since it is the only codec
// that carries the full DataType algebra (including Named) without loss.
package nativejson

import (
	"encoding/json"
	"fmt"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

// wireNamedDataType is one entry of the "named_data_types" array (§6).
type wireNamedDataType struct {
	Name     string          `json:"name"`
	DataType json.RawMessage `json:"data_type"`
}

// wireColumn mirrors schema.Column on the wire.
type wireColumn struct {
	Name       string          `json:"name"`
	IsNullable bool            `json:"is_nullable"`
	DataType   json.RawMessage `json:"data_type"`
	Comment    string          `json:"comment,omitempty"`
}

// wireTable mirrors schema.Table on the wire.
type wireTable struct {
	Name    string       `json:"name"`
	Columns []wireColumn `json:"columns"`
}

// wireSchema is the top-level §6 document shape.
type wireSchema struct {
	NamedDataTypes []wireNamedDataType `json:"named_data_types"`
	Tables         []wireTable         `json:"tables"`
}

// Parse decodes the native JSON schema format into a *schema.Schema.
func Parse(data []byte) (*schema.Schema, error) {
	var w wireSchema
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("nativejson: %w", err)
	}
	if len(w.Tables) != 1 {
		return nil, fmt.Errorf("nativejson: exactly one table is required, got %d", len(w.Tables))
	}

	named := make(map[string]dbtype.DataType, len(w.NamedDataTypes))
	for _, n := range w.NamedDataTypes {
		dt, err := dbtype.Unmarshal(n.DataType)
		if err != nil {
			return nil, fmt.Errorf("nativejson: named type %q: %w", n.Name, err)
		}
		named[n.Name] = dt
	}

	wt := w.Tables[0]
	table := schema.Table{Name: wt.Name}
	for _, wc := range wt.Columns {
		dt, err := dbtype.Unmarshal(wc.DataType)
		if err != nil {
			return nil, fmt.Errorf("nativejson: column %q: %w", wc.Name, err)
		}
		table.Columns = append(table.Columns, schema.Column{
			Name:       wc.Name,
			IsNullable: wc.IsNullable,
			DataType:   dt,
			Comment:    wc.Comment,
		})
	}

	s, err := schema.New(table, named)
	if err != nil {
		return nil, fmt.Errorf("nativejson: %w", err)
	}
	return s, nil
}

// Render encodes s in the native JSON schema format (§6).
func Render(s *schema.Schema) ([]byte, error) {
	w := wireSchema{}
	for _, name := range s.NamedDataTypeNames() {
		dt, _ := s.NamedDataType(name)
		raw, err := dbtype.Marshal(dt)
		if err != nil {
			return nil, fmt.Errorf("nativejson: named type %q: %w", name, err)
		}
		w.NamedDataTypes = append(w.NamedDataTypes, wireNamedDataType{Name: name, DataType: raw})
	}

	table := s.Table()
	wt := wireTable{Name: table.Name}
	for _, c := range table.Columns {
		raw, err := dbtype.Marshal(c.DataType)
		if err != nil {
			return nil, fmt.Errorf("nativejson: column %q: %w", c.Name, err)
		}
		wt.Columns = append(wt.Columns, wireColumn{
			Name:       c.Name,
			IsNullable: c.IsNullable,
			DataType:   raw,
			Comment:    c.Comment,
		})
	}
	w.Tables = []wireTable{wt}

	data, err := json.MarshalIndent(&w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("nativejson: %w", err)
	}
	return data, nil
}
