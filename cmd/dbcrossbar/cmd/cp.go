package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbcrossbar/dbcrossbar/internal/codec/nativejson"
	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/locator"
	"github.com/dbcrossbar/dbcrossbar/internal/planner"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/xlog"
)

type cpFlags struct {
	schemaPath           string
	ifExists             string
	temporary            []string
	fromArg              []string
	toArg                []string
	where                string
	streamSize           int64
	maxStreams           int64
	displayOutputLocators bool
}

func newCpCmd() *cobra.Command {
	flags := &cpFlags{}
	cmd := &cobra.Command{
		Use:   "cp <from-locator> <to-locator>",
		Short: "Copy a table's schema and data from one locator to another",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &usageError{fmt.Errorf("cp requires exactly two locators: <from> <to>")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCp(cmd, args[0], args[1], flags)
		},
	}
	cmd.Flags().StringVar(&flags.schemaPath, "schema", "", "path of a native-JSON schema file to use instead of introspecting the source")
	cmd.Flags().StringVar(&flags.ifExists, "if-exists", "error", "error | append | overwrite | upsert-on:col1,col2")
	cmd.Flags().StringArrayVar(&flags.temporary, "temporary", nil, "a temporary resource scheme the copy may use (repeatable)")
	cmd.Flags().StringArrayVar(&flags.fromArg, "from-arg", nil, "key=value or key[sub]=value passed to the source driver (repeatable)")
	cmd.Flags().StringArrayVar(&flags.toArg, "to-arg", nil, "key=value or key[sub]=value passed to the destination driver (repeatable)")
	cmd.Flags().StringVar(&flags.where, "where", "", "SQL WHERE clause restricting which rows are copied")
	cmd.Flags().Int64Var(&flags.streamSize, "stream-size", 0, "target bytes per inner stream before splitting (0 = driver default)")
	cmd.Flags().Int64Var(&flags.maxStreams, "max-streams", 4, "maximum number of inner streams processed concurrently")
	cmd.Flags().BoolVar(&flags.displayOutputLocators, "display-output-locators", false, "print the destination locator(s) actually written")
	return cmd
}

func runCp(cmd *cobra.Command, fromLoc, toLoc string, flags *cpFlags) error {
	ctx := context.Background()

	source, err := openDriver(fromLoc)
	if err != nil {
		return err
	}
	dest, err := openDriver(toLoc)
	if err != nil {
		return err
	}

	ifExists, err := parseIfExists(flags.ifExists)
	if err != nil {
		return &usageError{err}
	}
	fromArgs, err := parseKeyValueArgs(flags.fromArg)
	if err != nil {
		return &usageError{err}
	}
	toArgs, err := parseKeyValueArgs(flags.toArg)
	if err != nil {
		return &usageError{err}
	}

	opts := planner.Options{
		IfExists:       ifExists,
		Temporaries:    flags.temporary,
		FromArgs:       fromArgs,
		ToArgs:         toArgs,
		WhereClause:    flags.where,
		MaxStreams:     flags.maxStreams,
		StreamSizeHint: flags.streamSize,
		Log:            xlog.New("cp"),
	}
	if flags.schemaPath != "" {
		s, err := loadSchemaLocator(flags.schemaPath)
		if err != nil {
			return err
		}
		opts.Schema = s
	}

	result, err := planner.Copy(ctx, source, dest, opts)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w.String())
	}
	if flags.displayOutputLocators {
		if len(result.DestLocators) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), toLoc)
		}
		for _, l := range result.DestLocators {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
	}
	return nil
}

// openDriver opens raw through the global locator registry and asserts
// the result implements driver.Driver, the contract every concrete
// backend in internal/driver satisfies.
func openDriver(raw string) (driver.Driver, error) {
	handle, err := locator.Open(raw)
	if err != nil {
		return nil, err
	}
	d, ok := handle.(driver.Driver)
	if !ok {
		return nil, fmt.Errorf("locator %q does not resolve to a data driver", raw)
	}
	return d, nil
}

// parseIfExists parses --if-exists's "error | append | overwrite |
// upsert-on:col1,col2" grammar.
func parseIfExists(value string) (driver.IfExists, error) {
	mode, keys, _ := strings.Cut(value, ":")
	switch mode {
	case "error", "":
		return driver.IfExists{Mode: driver.IfExistsError}, nil
	case "append":
		return driver.IfExists{Mode: driver.IfExistsAppend}, nil
	case "overwrite":
		return driver.IfExists{Mode: driver.IfExistsOverwrite}, nil
	case "upsert-on":
		if keys == "" {
			return driver.IfExists{}, fmt.Errorf("--if-exists=upsert-on requires at least one :col")
		}
		return driver.IfExists{Mode: driver.IfExistsUpsert, UpsertKeys: strings.Split(keys, ",")}, nil
	default:
		return driver.IfExists{}, fmt.Errorf("unknown --if-exists mode %q", mode)
	}
}

// loadSchemaLocator reads --schema's native-JSON schema file. Other
// schema-only locator schemes are reached through "dbcrossbar schema
// conv" (see schema.go); cp's --schema flag accepts the reference
// (native JSON) form directly, per §6.
func loadSchemaLocator(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return nativejson.Parse(data)
}
