package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	// Blank-imported so every driver's init() registers its locator
	// scheme before any command runs (§4.C).
	_ "github.com/dbcrossbar/dbcrossbar/internal/driver/bigquery"
	_ "github.com/dbcrossbar/dbcrossbar/internal/driver/csvfile"
	_ "github.com/dbcrossbar/dbcrossbar/internal/driver/gcs"
	_ "github.com/dbcrossbar/dbcrossbar/internal/driver/postgres"
	_ "github.com/dbcrossbar/dbcrossbar/internal/driver/s3"
)

var enableUnstable bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbcrossbar",
		Short:         "Copy data and schemas between databases and data lakes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&enableUnstable, "enable-unstable", false, "enable unstable locator schemes")
	root.AddCommand(newCpCmd())
	root.AddCommand(newCountCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newFeaturesCmd())
	root.AddCommand(newLicenseCmd())
	return root
}

// Execute runs the CLI and returns the process exit code (§6: 0 success,
// 1 generic failure, 2 usage error).
func Execute() int {
	root := newRootCmd()
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err}
	})
	if err := root.Execute(); err != nil {
		if _, ok := err.(*usageError); ok {
			fmt.Fprintln(root.ErrOrStderr(), err)
			return 2
		}
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

// usageError marks an error as a usage problem (exit code 2) rather
// than a generic runtime failure (exit code 1).
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
