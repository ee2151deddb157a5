// Package schema defines the portable Schema container (§3.2): an
// immutable value built by a codec (internal/codec/...) or by driver
// introspection, and consumed by destination drivers and the CSV codec.
// Schemas own no driver resources and require no teardown.
package schema

import (
	"fmt"
	"strings"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
)

// Column is one column of a Table.
type Column struct {
	Name       string
	IsNullable bool
	DataType   dbtype.DataType
	Comment    string
}

// Table is an ordered list of Columns under a name.
type Table struct {
	Name    string
	Columns []Column
}

// Schema is the portable representation of a dataset's structure. It is
// immutable once constructed: all fields are set by New and never
// mutated afterward.
type Schema struct {
	namedDataTypes map[string]dbtype.DataType
	// namedOrder preserves insertion order for deterministic rendering.
	namedOrder []string
	table      Table
}

// New builds a Schema from a single table and its named-type table. The
// core currently requires exactly one table (§3.2); multi-table schemas
// are rejected.
func New(table Table, namedDataTypes map[string]dbtype.DataType) (*Schema, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	for name, t := range namedDataTypes {
		if _, ok := t.(dbtype.NamedType); ok {
			return nil, fmt.Errorf("schema: named type %q cannot itself be a Named reference", name)
		}
	}
	s := &Schema{
		table:          table,
		namedDataTypes: make(map[string]dbtype.DataType, len(namedDataTypes)),
	}
	for name, t := range namedDataTypes {
		s.namedDataTypes[name] = t
		s.namedOrder = append(s.namedOrder, name)
	}
	if err := s.checkNamedReferencesResolve(); err != nil {
		return nil, err
	}
	return s, nil
}

func validateTable(table Table) error {
	if table.Name == "" {
		return fmt.Errorf("schema: table name must not be empty")
	}
	if len(table.Columns) == 0 {
		return fmt.Errorf("schema: table %q must have at least one column", table.Name)
	}
	seen := make(map[string]struct{}, len(table.Columns))
	for _, c := range table.Columns {
		if c.Name == "" {
			return fmt.Errorf("schema: table %q has a column with an empty name", table.Name)
		}
		if c.DataType == nil {
			return fmt.Errorf("schema: column %q has a nil data type", c.Name)
		}
		// Column names are unique case-sensitively in the portable model;
		// drivers that fold case (BigQuery) apply their own stricter
		// check in the planner (see internal/planner).
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("schema: duplicate column name %q in table %q", c.Name, table.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// checkNamedReferencesResolve walks every DataType reachable from the
// table and the named-type table itself, failing if a NamedType
// references a name absent from namedDataTypes (invariant i).
func (s *Schema) checkNamedReferencesResolve() error {
	var walk func(t dbtype.DataType) error
	walk = func(t dbtype.DataType) error {
		switch v := t.(type) {
		case dbtype.ArrayType:
			return walk(v.Element)
		case dbtype.StructType:
			for _, f := range v.Fields {
				if err := walk(f.DataType); err != nil {
					return err
				}
			}
		case dbtype.NamedType:
			if _, ok := s.namedDataTypes[v.Name]; !ok {
				return fmt.Errorf("schema: named type %q does not resolve", v.Name)
			}
		}
		return nil
	}
	for _, c := range s.table.Columns {
		if err := walk(c.DataType); err != nil {
			return err
		}
	}
	for _, name := range s.namedOrder {
		if err := walk(s.namedDataTypes[name]); err != nil {
			return fmt.Errorf("schema: resolving named type %q: %w", name, err)
		}
	}
	return nil
}

// Table returns the schema's single table.
func (s *Schema) Table() Table {
	return s.table
}

// NamedDataType looks up a name in the schema's named-type table.
func (s *Schema) NamedDataType(name string) (dbtype.DataType, bool) {
	t, ok := s.namedDataTypes[name]
	return t, ok
}

// NamedDataTypeNames returns the names of the schema's named types, in
// declaration order.
func (s *Schema) NamedDataTypeNames() []string {
	return append([]string(nil), s.namedOrder...)
}

// Resolve follows NamedType references until it reaches a non-Named
// DataType, or returns an error if a name does not resolve. It does not
// recurse into Array/Struct members — those keep whatever Named
// references they hold; only the top-level type is resolved.
func (s *Schema) Resolve(t dbtype.DataType) (dbtype.DataType, error) {
	for {
		named, ok := t.(dbtype.NamedType)
		if !ok {
			return t, nil
		}
		next, ok := s.namedDataTypes[named.Name]
		if !ok {
			return nil, fmt.Errorf("schema: named type %q does not resolve", named.Name)
		}
		t = next
	}
}

// CaseFoldedDuplicateColumns returns the set of column names (original
// casing) that collide with another column under ASCII case-insensitive
// folding. Destinations with case-insensitive identifiers (BigQuery) use
// this to detect the ambiguous-source-names case called out in §4.G's
// Open Questions.
func (s *Schema) CaseFoldedDuplicateColumns() []string {
	byFold := make(map[string][]string)
	for _, c := range s.table.Columns {
		fold := strings.ToLower(c.Name)
		byFold[fold] = append(byFold[fold], c.Name)
	}
	var dups []string
	for _, names := range byFold {
		if len(names) > 1 {
			dups = append(dups, names...)
		}
	}
	return dups
}
