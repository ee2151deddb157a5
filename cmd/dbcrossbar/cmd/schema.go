package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/bigqueryschema"
	"github.com/dbcrossbar/dbcrossbar/internal/codec/csvschema"
	"github.com/dbcrossbar/dbcrossbar/internal/codec/nativejson"
	"github.com/dbcrossbar/dbcrossbar/internal/codec/pgsql"
	"github.com/dbcrossbar/dbcrossbar/internal/codec/tsschema"
	"github.com/dbcrossbar/dbcrossbar/internal/locator"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	root := &cobra.Command{Use: "schema", Short: "Inspect or convert schemas"}
	root.AddCommand(newSchemaConvCmd())
	return root
}

func newSchemaConvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conv <from-schema-locator> <to-schema-locator>",
		Short: "Convert a schema from one dialect to another",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &usageError{fmt.Errorf("schema conv requires exactly two locators: <from> <to>")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, warnings, err := parseSchemaLocator(args[0])
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintln(os.Stderr, "warning:", w.String())
			}
			data, renderWarnings, err := renderSchemaLocator(args[1], s)
			if err != nil {
				return err
			}
			for _, w := range renderWarnings {
				fmt.Fprintln(os.Stderr, "warning:", w.String())
			}
			return writeSchemaLocator(args[1], data)
		},
	}
}

// schemaWarning is the minimal shape every codec's []warning.Warning
// satisfies; declared here so this file only needs a String method, not
// a dependency on the warning package's concrete type at every call site.
type schemaWarning interface{ String() string }

func parseSchemaLocator(raw string) (*schema.Schema, []schemaWarning, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	path := loc.Body
	switch loc.Scheme {
	case "dbcrossbar-schema":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		s, err := nativejson.Parse(data)
		return s, nil, err
	case "postgres-sql":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		s, warnings, err := pgsql.Parse(string(data))
		return s, toSchemaWarnings(warnings), err
	case "bigquery-schema":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		s, err := bigqueryschema.Parse(loc.Fragment, data)
		return s, nil, err
	case "dbcrossbar-ts":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		s, err := tsschema.Parse(string(data), loc.Fragment)
		return s, nil, err
	case "csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		s, err := csvschema.Sniff(loc.Fragment, data)
		return s, nil, err
	default:
		return nil, nil, fmt.Errorf("schema conv: unrecognized schema locator scheme %q", loc.Scheme)
	}
}

func renderSchemaLocator(raw string, s *schema.Schema) ([]byte, []schemaWarning, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	switch loc.Scheme {
	case "dbcrossbar-schema":
		data, err := nativejson.Render(s)
		return data, nil, err
	case "postgres-sql":
		data, warnings, err := pgsql.Render(s)
		return []byte(data), toSchemaWarnings(warnings), err
	case "bigquery-schema":
		data, warnings, err := bigqueryschema.Render(s)
		return data, toSchemaWarnings(warnings), err
	default:
		return nil, nil, fmt.Errorf("schema conv: %q has no render direction", loc.Scheme)
	}
}

func writeSchemaLocator(raw string, data []byte) error {
	loc, err := locator.Parse(raw)
	if err != nil {
		return err
	}
	if loc.Body == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(loc.Body, data, 0o644)
}

func toSchemaWarnings[W schemaWarning](warnings []W) []schemaWarning {
	out := make([]schemaWarning, len(warnings))
	for i, w := range warnings {
		out[i] = w
	}
	return out
}
