// Package csvschema implements the CSV-sniff schema codec (§4.B.5): a
// schema inferred purely from a CSV header row, with every column typed
// Text and nullable. It has no render direction — a sniffed schema is
// always a stand-in for a real one, never a destination format.
package csvschema

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

// Sniff reads the header row of a CSV document and builds an all-Text,
// all-nullable Schema preserving the header's column order.
func Sniff(tableName string, header []byte) (*schema.Schema, error) {
	r := csv.NewReader(strings.NewReader(string(header)))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csvschema: reading header: %w", err)
	}

	table := schema.Table{Name: tableName}
	for _, name := range record {
		table.Columns = append(table.Columns, schema.Column{
			Name:       name,
			IsNullable: true,
			DataType:   dbtype.TextType{},
		})
	}

	s, err := schema.New(table, nil)
	if err != nil {
		return nil, fmt.Errorf("csvschema: %w", err)
	}
	return s, nil
}
