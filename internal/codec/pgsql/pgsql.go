// Package pgsql implements the PostgreSQL CREATE TABLE schema codec
// (§4.B.2): a permissive-subset parser plus a renderer, both operating
// purely on strings with no database connection involved.
package pgsql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dbcrossbar/dbcrossbar/internal/dbtype"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/warning"
	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

var (
	createTableRe = regexp.MustCompile(`(?is)^CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([A-Za-z0-9_."]+)\s*\((.*)\)\s*$`)
	createEnumRe  = regexp.MustCompile(`(?is)^CREATE\s+TYPE\s+([A-Za-z0-9_."]+)\s+AS\s+ENUM\s*\((.*)\)\s*$`)
	commentColRe  = regexp.MustCompile(`(?is)^COMMENT\s+ON\s+COLUMN\s+([A-Za-z0-9_."]+)\.([A-Za-z0-9_"]+)\s+IS\s+('(?:[^']|'')*')\s*$`)
	arraySuffixRe = regexp.MustCompile(`(?i)^(.*?)\s*((?:\[\s*\])+)$`)
	geometryRe    = regexp.MustCompile(`(?i)^(?:public\.)?geometry\s*\(\s*Geometry\s*,\s*(\d+)\s*\)$`)
)

// Parse reads a permissive subset of PostgreSQL DDL — one CREATE TABLE,
// any number of preceding CREATE TYPE ... AS ENUM statements, and any
// number of COMMENT ON COLUMN statements — and returns the resulting
// Schema. Constructs the subset doesn't model (indexes, constraints other
// than NOT NULL, defaults) are reported as warnings, not errors.
func Parse(sql string) (*schema.Schema, []warning.Warning, error) {
	var c warning.Collector
	stmts := splitStatements(sql)

	enums := make(map[string][]string)
	var table *schema.Table
	comments := make(map[string]string) // "col" -> comment, keyed by bare column name

	for _, stmt := range stmts {
		switch {
		case createEnumRe.MatchString(stmt):
			m := createEnumRe.FindStringSubmatch(stmt)
			name := unquoteIdent(m[1])
			var values []string
			for _, v := range splitTopLevelCommas(m[2]) {
				values = append(values, unquoteLiteral(v))
			}
			enums[name] = values

		case createTableRe.MatchString(stmt):
			if table != nil {
				return nil, nil, &xerror.ParseError{Message: "only one CREATE TABLE is supported per schema"}
			}
			m := createTableRe.FindStringSubmatch(stmt)
			tbl, err := parseTableBody(unquoteIdent(m[1]), m[2], enums, &c)
			if err != nil {
				return nil, nil, err
			}
			table = tbl

		case commentColRe.MatchString(stmt):
			m := commentColRe.FindStringSubmatch(stmt)
			col := unquoteIdent(m[2])
			comments[col] = unquoteLiteral(m[3])

		default:
			c.Add(firstWord(stmt), "ignored unrecognized statement")
		}
	}

	if table == nil {
		return nil, nil, &xerror.ParseError{Message: "no CREATE TABLE statement found"}
	}
	for i, col := range table.Columns {
		if cm, ok := comments[col.Name]; ok {
			table.Columns[i].Comment = cm
		}
	}

	named := make(map[string]dbtype.DataType, len(enums))
	for name, values := range enums {
		oo, err := dbtype.NewOneOf(values)
		if err != nil {
			return nil, nil, fmt.Errorf("pgsql: enum %q: %w", name, err)
		}
		named[name] = oo
	}

	s, err := schema.New(*table, named)
	if err != nil {
		return nil, nil, fmt.Errorf("pgsql: %w", err)
	}
	return s, c.Warnings(), nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	if len(fields) >= 2 {
		return fields[0] + " " + fields[1]
	}
	return fields[0]
}

func parseTableBody(tableName, body string, enums map[string][]string, c *warning.Collector) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}
	for _, item := range splitTopLevelCommas(body) {
		item = strings.TrimSpace(item)
		upper := strings.ToUpper(item)
		if strings.HasPrefix(upper, "PRIMARY KEY") || strings.HasPrefix(upper, "FOREIGN KEY") ||
			strings.HasPrefix(upper, "UNIQUE") || strings.HasPrefix(upper, "CHECK") ||
			strings.HasPrefix(upper, "CONSTRAINT") {
			c.Add(tableName, "ignored table constraint: %s", firstWord(item))
			continue
		}
		col, err := parseColumnDef(item, enums, c)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

func parseColumnDef(item string, enums map[string][]string, c *warning.Collector) (schema.Column, error) {
	fields := strings.Fields(item)
	if len(fields) < 2 {
		return schema.Column{}, &xerror.ParseError{Message: "malformed column definition: " + item}
	}
	name := unquoteIdent(fields[0])
	rest := strings.TrimSpace(item[len(fields[0]):])

	// Peel off a trailing type modifier clause we don't model (DEFAULT,
	// NOT NULL already handled below) by scanning keyword boundaries.
	notNull := false
	upperRest := strings.ToUpper(rest)
	if idx := strings.Index(upperRest, "DEFAULT"); idx != -1 {
		c.Add(name, "ignored column default")
		if strings.Contains(upperRest[idx:], "NOT NULL") {
			notNull = true
		}
		rest = strings.TrimSpace(rest[:idx])
		upperRest = strings.ToUpper(rest)
	}
	if idx := strings.Index(upperRest, "NOT NULL"); idx != -1 {
		notNull = true
		rest = strings.TrimSpace(rest[:idx] + rest[idx+len("NOT NULL"):])
	} else if idx := strings.Index(upperRest, "NULL"); idx != -1 {
		rest = strings.TrimSpace(rest[:idx] + rest[idx+len("NULL"):])
	}

	typeStr := strings.TrimSpace(rest)
	dt, err := parseType(typeStr, enums, c, name)
	if err != nil {
		return schema.Column{}, err
	}

	return schema.Column{Name: name, IsNullable: !notNull, DataType: dt}, nil
}

func parseType(typeStr string, enums map[string][]string, c *warning.Collector, colName string) (dbtype.DataType, error) {
	typeStr = strings.TrimSpace(typeStr)

	if m := arraySuffixRe.FindStringSubmatch(typeStr); m != nil {
		elem, err := parseType(m[1], enums, c, colName)
		if err != nil {
			return nil, err
		}
		return dbtype.ArrayType{Element: elem}, nil
	}

	norm := strings.ToLower(strings.Join(strings.Fields(typeStr), " "))

	if m := geometryRe.FindStringSubmatch(typeStr); m != nil {
		srid, _ := strconv.ParseUint(m[1], 10, 32)
		return dbtype.NewGeoJSON(uint32(srid)), nil
	}

	switch norm {
	case "bigint", "int8":
		return dbtype.Int64Type{}, nil
	case "integer", "int", "int4":
		return dbtype.Int32Type{}, nil
	case "smallint", "int2":
		return dbtype.Int16Type{}, nil
	case "real", "float4":
		return dbtype.Float32Type{}, nil
	case "double precision", "float8":
		return dbtype.Float64Type{}, nil
	case "numeric", "decimal":
		return dbtype.DecimalType{}, nil
	case "boolean", "bool":
		return dbtype.BoolType{}, nil
	case "date":
		return dbtype.DateType{}, nil
	case "timestamp", "timestamp without time zone":
		return dbtype.TimestampWithoutTimeZoneType{}, nil
	case "timestamptz", "timestamp with time zone":
		return dbtype.TimestampWithTimeZoneType{}, nil
	case "uuid":
		return dbtype.UUIDType{}, nil
	case "json", "jsonb":
		return dbtype.JSONType{}, nil
	case "text", "varchar", "character varying", "char", "character":
		return dbtype.TextType{}, nil
	}

	// Strip a varchar(n)/numeric(p,s) length/precision suffix we don't model.
	if idx := strings.IndexByte(norm, '('); idx != -1 {
		base := strings.TrimSpace(norm[:idx])
		if dt, _, ok := baseTypeLookup(base); ok {
			c.Add(colName, "ignored length/precision modifier on %s", base)
			return dt, nil
		}
	}

	bare := unquoteIdent(typeStr)
	if _, ok := enums[bare]; ok {
		return dbtype.NamedType{Name: bare}, nil
	}

	c.Add(colName, "unknown type %q, falling back to text", typeStr)
	return dbtype.TextType{}, nil
}

func baseTypeLookup(base string) (dbtype.DataType, string, bool) {
	switch base {
	case "varchar", "character varying", "char", "character":
		return dbtype.TextType{}, base, true
	case "numeric", "decimal":
		return dbtype.DecimalType{}, base, true
	}
	return nil, "", false
}

// Render emits a single CREATE TABLE statement for s, in the schema's
// column order, per the type-mapping table in §4.B.2.
func Render(s *schema.Schema) (string, []warning.Warning, error) {
	var c warning.Collector
	table := s.Table()

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quoteIdent(table.Name))
	for i, col := range table.Columns {
		typeStr, err := renderType(col.DataType, col.Name, &c)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&b, "  %s %s", quoteIdent(col.Name), typeStr)
		if !col.IsNullable {
			b.WriteString(" NOT NULL")
		}
		if i != len(table.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")

	for _, col := range table.Columns {
		if col.Comment != "" {
			fmt.Fprintf(&b, ";\nCOMMENT ON COLUMN %s.%s IS %s", quoteIdent(table.Name), quoteIdent(col.Name), quoteLiteral(col.Comment))
		}
	}

	return b.String(), c.Warnings(), nil
}

func renderType(dt dbtype.DataType, colName string, c *warning.Collector) (string, error) {
	switch v := dt.(type) {
	case dbtype.BoolType:
		return "boolean", nil
	case dbtype.DateType:
		return "date", nil
	case dbtype.DecimalType:
		return "numeric", nil
	case dbtype.Float32Type:
		return "real", nil
	case dbtype.Float64Type:
		return "double precision", nil
	case dbtype.GeoJSONType:
		return fmt.Sprintf("geometry(Geometry, %d)", v.SRID), nil
	case dbtype.Int16Type:
		return "smallint", nil
	case dbtype.Int32Type:
		return "integer", nil
	case dbtype.Int64Type:
		return "bigint", nil
	case dbtype.JSONType:
		return "jsonb", nil
	case dbtype.TextType:
		return "text", nil
	case dbtype.TimestampWithoutTimeZoneType:
		return "timestamp", nil
	case dbtype.TimestampWithTimeZoneType:
		return "timestamp with time zone", nil
	case dbtype.UUIDType:
		return "uuid", nil
	case dbtype.ArrayType:
		elem, err := renderType(v.Element, colName, c)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case dbtype.OneOfType:
		c.Add(colName, "one_of rendered as text; enumeration constraint is lost")
		return "text", nil
	case dbtype.StructType:
		c.Add(colName, "struct rendered as jsonb; field structure is erased")
		return "jsonb", nil
	case dbtype.NamedType:
		c.Add(colName, "named type %q rendered as text; no matching domain or enum exists", v.Name)
		return "text", nil
	default:
		return "", &xerror.UnsupportedType{DataType: dt.String(), Target: "pgsql"}
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
