package pgsql

import (
	"strings"

	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

// splitStatements breaks a SQL script into top-level statements on ';',
// respecting single-quoted strings and parenthesis nesting so that a
// semicolon inside a string literal or a parenthesized list is not
// mistaken for a statement terminator.
func splitStatements(sql string) []string {
	var stmts []string
	var buf strings.Builder
	depth := 0
	inString := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case inString:
			buf.WriteByte(c)
			if c == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					buf.WriteByte(sql[i+1])
					i++
					continue
				}
				inString = false
			}
		case c == '\'':
			inString = true
			buf.WriteByte(c)
		case c == '(':
			depth++
			buf.WriteByte(c)
		case c == ')':
			depth--
			buf.WriteByte(c)
		case c == ';' && depth == 0:
			if s := strings.TrimSpace(buf.String()); s != "" {
				stmts = append(stmts, s)
			}
			buf.Reset()
		default:
			buf.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

// splitTopLevelCommas splits s on commas that are not nested inside
// parentheses or a quoted string, used to split a column list.
func splitTopLevelCommas(s string) []string {
	var parts []string
	var buf strings.Builder
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			buf.WriteByte(c)
			if c == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					buf.WriteByte(s[i+1])
					i++
					continue
				}
				inString = false
			}
		case c == '\'':
			inString = true
			buf.WriteByte(c)
		case c == '(':
			depth++
			buf.WriteByte(c)
		case c == ')':
			depth--
			buf.WriteByte(c)
		case c == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

// parenContents returns the substring strictly between the first "(" and
// its matching ")" in s.
func parenContents(s string) (string, error) {
	start := strings.IndexByte(s, '(')
	if start == -1 {
		return "", &xerror.ParseError{Message: "expected '(' in: " + s}
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[start+1 : i], nil
			}
		}
	}
	return "", &xerror.ParseError{Message: "unbalanced parentheses in: " + s}
}

// unquoteIdent strips surrounding double quotes and a schema prefix
// ("public.foo" -> "foo"), matching the permissive-subset stance: we
// don't model schemas, just the leaf identifier.
func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '.'); i != -1 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// unquoteLiteral strips surrounding single quotes and undoubles escaped
// quotes from a SQL string literal.
func unquoteLiteral(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "''", "'")
}
