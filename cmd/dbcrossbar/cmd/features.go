package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features <locator>",
		Short: "Print a driver's advertised FeatureSet as JSON",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &usageError{fmt.Errorf("features requires exactly one locator")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDriver(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(d.Features(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
