package dbtype

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// NewStruct builds a StructType, enforcing invariant (ii) — at least one
// field — and that field names are unique within the struct.
func NewStruct(fields []StructField) (StructType, error) {
	if len(fields) == 0 {
		return StructType{}, fmt.Errorf("dbtype: struct must have at least one field")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return StructType{}, fmt.Errorf("dbtype: struct field name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return StructType{}, fmt.Errorf("dbtype: duplicate struct field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return StructType{Fields: append([]StructField(nil), fields...)}, nil
}

// NewOneOf builds a OneOfType, enforcing invariant (iii): values are
// normalized to Unicode NFC, must be non-empty, and must be distinct
// after normalization. Order is preserved (it is significant for
// display).
func NewOneOf(values []string) (OneOfType, error) {
	if len(values) == 0 {
		return OneOfType{}, fmt.Errorf("dbtype: one_of must have at least one value")
	}
	normalized := make([]string, len(values))
	seen := make(map[string]struct{}, len(values))
	for i, v := range values {
		n := norm.NFC.String(v)
		if n == "" {
			return OneOfType{}, fmt.Errorf("dbtype: one_of values must not be empty")
		}
		if _, dup := seen[n]; dup {
			return OneOfType{}, fmt.Errorf("dbtype: duplicate one_of value %q", n)
		}
		seen[n] = struct{}{}
		normalized[i] = n
	}
	return OneOfType{Values: normalized}, nil
}

// IsResolvableArrayElement reports whether t is a legal element type for
// an Array, per invariant (i): arrays of Named types are only legal when
// the name resolves in the schema's named-type table, which callers must
// check themselves (this just flags the syntactic shape that needs the
// check).
func IsResolvableArrayElement(t DataType) bool {
	_, named := t.(NamedType)
	return !named
}
