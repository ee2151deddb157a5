package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const noticeText = `dbcrossbar is distributed under the MIT license.

This binary links against third-party Go modules, each under its own
license (BurntSushi/toml: MIT, spf13/cobra: Apache-2.0, jackc/pgx: MIT,
cloud.google.com/go/*: Apache-2.0, aws-sdk-go-v2: Apache-2.0,
shopspring/decimal: MIT, google/uuid: BSD-3-Clause, golang.org/x/sync:
BSD-3-Clause). See each module's own repository for its full license text.`

func newLicenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "license",
		Short: "Print license information for dbcrossbar and its dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), noticeText)
			return nil
		},
	}
}
