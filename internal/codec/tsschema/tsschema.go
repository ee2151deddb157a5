// Package tsschema implements the TypeScript-subset schema codec (§4.B.4):
// a hand-rolled parser over `interface`/`type` declarations, selected by a
// `#TypeName` locator fragment. There is no render direction — the
// TypeScript dialect exists only as a human-authored schema source, never
// as a destination a driver writes to.
package tsschema

import (
	"fmt"
	"strings"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

// magicAliases are identifier spellings that translate directly to a
// portable scalar type regardless of any `type X = ...` declaration that
// shadows the name (§4.B.4) — test scenario 6 relies on this precedence.
var magicAliases = map[string]dbtype.DataType{
	"decimal": dbtype.DecimalType{},
	"int16":   dbtype.Int16Type{},
	"int32":   dbtype.Int32Type{},
	"int64":   dbtype.Int64Type{},
	"Date":    dbtype.DateType{},
}

var primitives = map[string]dbtype.DataType{
	"string":  dbtype.TextType{},
	"number":  dbtype.Float64Type{},
	"boolean": dbtype.BoolType{},
}

type rawField struct {
	name     string
	optional bool
	expr     string
}

type ifaceDecl struct {
	name   string
	fields []rawField
}

type parser struct {
	source     string
	typeAlias  map[string]string
	interfaces map[string]*ifaceDecl
	// named accumulates Named-type registrations made while resolving
	// field types, keyed by interface name.
	named    map[string]dbtype.DataType
	visiting map[string]bool
}

// Parse selects the interface named by fragment (without its leading
// "#") out of source and returns the resulting single-table Schema.
func Parse(source, fragment string) (*schema.Schema, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return nil, &xerror.ParseError{Message: "tsschema: a #TypeName fragment is required"}
	}

	p := &parser{
		source:     source,
		typeAlias:  make(map[string]string),
		interfaces: make(map[string]*ifaceDecl),
		named:      make(map[string]dbtype.DataType),
		visiting:   make(map[string]bool),
	}
	if err := p.scan(); err != nil {
		return nil, err
	}

	iface, ok := p.interfaces[fragment]
	if !ok {
		return nil, p.errAt(fragment, "no interface named %q found", fragment)
	}

	table := schema.Table{Name: iface.name}
	for _, f := range iface.fields {
		dt, nullable, err := p.resolveFieldType(f.expr)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, schema.Column{
			Name:       f.name,
			IsNullable: nullable || f.optional,
			DataType:   dt,
		})
	}

	return schema.New(table, p.named)
}

// scan splits the source into top-level declarations (brace-aware, since
// interface bodies contain their own braces) and classifies each as a
// `type` alias or an `interface` declaration.
func (p *parser) scan() error {
	decls, err := splitDeclarations(p.source)
	if err != nil {
		return err
	}
	for _, d := range decls {
		switch {
		case strings.HasPrefix(d, "type "):
			rest := strings.TrimSpace(strings.TrimPrefix(d, "type "))
			eq := strings.IndexByte(rest, '=')
			if eq == -1 {
				return p.errAt(d, "malformed type alias: %s", d)
			}
			name := strings.TrimSpace(rest[:eq])
			expr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest[eq+1:]), ";"))
			p.typeAlias[name] = expr

		case strings.HasPrefix(d, "interface "):
			rest := strings.TrimSpace(strings.TrimPrefix(d, "interface "))
			brace := strings.IndexByte(rest, '{')
			if brace == -1 {
				return p.errAt(d, "malformed interface declaration: %s", d)
			}
			name := strings.TrimSpace(rest[:brace])
			body, err := braceBody(rest[brace:])
			if err != nil {
				return err
			}
			fields, err := parseFieldList(body)
			if err != nil {
				return err
			}
			p.interfaces[name] = &ifaceDecl{name: name, fields: fields}

		default:
			return p.errAt(d, "unrecognized declaration: %s", d)
		}
	}
	return nil
}

// resolveFieldType parses a field's type expression into a DataType plus
// whether a `| null` union member makes it nullable.
func (p *parser) resolveFieldType(expr string) (dbtype.DataType, bool, error) {
	parts := splitTopLevel(expr, '|')
	nullable := false
	var rest []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "null" {
			nullable = true
			continue
		}
		rest = append(rest, part)
	}
	if len(rest) == 0 {
		return nil, false, p.errAt(expr, "type expression %q resolves to nothing but null", expr)
	}
	dt, err := p.resolveSingleType(rest[0])
	if err != nil {
		return nil, false, err
	}
	return dt, nullable, nil
}

func (p *parser) resolveSingleType(expr string) (dbtype.DataType, error) {
	expr = strings.TrimSpace(expr)

	if strings.HasSuffix(expr, "[]") {
		elem, err := p.resolveSingleType(strings.TrimSpace(strings.TrimSuffix(expr, "[]")))
		if err != nil {
			return nil, err
		}
		return dbtype.ArrayType{Element: elem}, nil
	}

	if strings.HasPrefix(expr, "{") && strings.HasSuffix(expr, "}") {
		fields, err := parseFieldList(expr[1 : len(expr)-1])
		if err != nil {
			return nil, err
		}
		var sfs []dbtype.StructField
		for _, f := range fields {
			dt, nullable, err := p.resolveFieldType(f.expr)
			if err != nil {
				return nil, err
			}
			sfs = append(sfs, dbtype.StructField{Name: f.name, IsNullable: nullable || f.optional, DataType: dt})
		}
		return dbtype.NewStruct(sfs)
	}

	if dt, ok := magicAliases[expr]; ok {
		return dt, nil
	}
	if dt, ok := primitives[expr]; ok {
		return dt, nil
	}

	if iface, ok := p.interfaces[expr]; ok {
		if err := p.internInterface(iface); err != nil {
			return nil, err
		}
		return dbtype.NamedType{Name: expr}, nil
	}

	if aliasExpr, ok := p.typeAlias[expr]; ok {
		if p.visiting[expr] {
			return nil, p.errAt(expr, "cyclic type alias %q", expr)
		}
		p.visiting[expr] = true
		dt, err := p.resolveSingleType(aliasExpr)
		delete(p.visiting, expr)
		return dt, err
	}

	return nil, p.errAt(expr, "unknown type %q", expr)
}

// internInterface registers iface's structure in the schema's named-type
// table the first time it is referenced from another type expression.
func (p *parser) internInterface(iface *ifaceDecl) error {
	if _, ok := p.named[iface.name]; ok {
		return nil
	}
	if p.visiting[iface.name] {
		return nil // cyclic struct reference; leave as a dangling Named, resolved lazily
	}
	p.visiting[iface.name] = true
	defer delete(p.visiting, iface.name)

	var fields []dbtype.StructField
	for _, f := range iface.fields {
		dt, nullable, err := p.resolveFieldType(f.expr)
		if err != nil {
			return err
		}
		fields = append(fields, dbtype.StructField{Name: f.name, IsNullable: nullable || f.optional, DataType: dt})
	}
	st, err := dbtype.NewStruct(fields)
	if err != nil {
		return err
	}
	p.named[iface.name] = st
	return nil
}

func (p *parser) errAt(needle, format string, args ...any) error {
	line, col, snippet := locate(p.source, needle)
	return &xerror.ParseError{
		Span:    xerror.Span{Line: line, Column: col, Snippet: snippet},
		Message: fmt.Sprintf(format, args...),
	}
}

func locate(source, needle string) (line, col int, snippet string) {
	idx := strings.Index(source, needle)
	if idx == -1 {
		return 0, 0, ""
	}
	line = 1 + strings.Count(source[:idx], "\n")
	lastNL := strings.LastIndexByte(source[:idx], '\n')
	col = idx - lastNL
	end := idx + len(needle)
	if end > len(source) {
		end = len(source)
	}
	snippet = source[idx:end]
	return line, col, snippet
}
