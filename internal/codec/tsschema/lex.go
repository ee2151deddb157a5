package tsschema

import (
	"strings"

	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

// splitDeclarations splits source into top-level `type ...;` and
// `interface ... { ... }` declarations, tracking brace depth so a brace
// inside an interface body doesn't end the declaration early.
func splitDeclarations(source string) ([]string, error) {
	var decls []string
	var buf strings.Builder
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch c {
		case '{':
			depth++
			buf.WriteByte(c)
		case '}':
			depth--
			buf.WriteByte(c)
			if depth == 0 {
				decls = append(decls, strings.TrimSpace(buf.String()))
				buf.Reset()
			}
		case ';':
			if depth == 0 {
				if s := strings.TrimSpace(buf.String()); s != "" {
					decls = append(decls, s)
				}
				buf.Reset()
				continue
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		decls = append(decls, s)
	}
	return decls, nil
}

// braceBody returns the contents strictly between the first "{" and its
// matching "}" in s.
func braceBody(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", &xerror.ParseError{Message: "expected '{' in: " + s}
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start+1 : i], nil
			}
		}
	}
	return "", &xerror.ParseError{Message: "unbalanced braces in: " + s}
}

// parseFieldList splits an interface/struct body into `name: TypeExpr`
// fields, separated by ';' or ',' at brace/bracket depth 0.
func parseFieldList(body string) ([]rawField, error) {
	var fields []rawField
	for _, line := range splitFieldSeparators(body) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon == -1 {
			return nil, &xerror.ParseError{Message: "malformed field (missing ':'): " + line}
		}
		name := strings.TrimSpace(line[:colon])
		optional := strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		expr := strings.TrimSpace(line[colon+1:])
		fields = append(fields, rawField{name: name, optional: optional, expr: expr})
	}
	return fields, nil
}

// splitFieldSeparators splits on ';' or ',' at depth 0 (a newline alone
// does not separate fields),
// respecting nested {}/[] so a struct- or array-typed field's own
// separators aren't mistaken for the outer list's.
func splitFieldSeparators(s string) []string {
	var parts []string
	var buf strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{', '[', '(':
			depth++
			buf.WriteByte(c)
		case '}', ']', ')':
			depth--
			buf.WriteByte(c)
		case ';', ',':
			if depth == 0 {
				parts = append(parts, buf.String())
				buf.Reset()
				continue
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

// splitTopLevel splits s on sep at bracket/brace/paren depth 0.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var buf strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{', '[', '(':
			depth++
			buf.WriteByte(c)
		case '}', ']', ')':
			depth--
			buf.WriteByte(c)
		case sep:
			if depth == 0 {
				parts = append(parts, buf.String())
				buf.Reset()
				continue
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	parts = append(parts, buf.String())
	return parts
}
