package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbcrossbar/dbcrossbar/internal/xconfig"
)

func newConfigCmd() *cobra.Command {
	root := &cobra.Command{Use: "config", Short: "Manage dbcrossbar.toml"}
	root.AddCommand(newConfigAddCmd())
	root.AddCommand(newConfigRmCmd())
	return root
}

func newConfigAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add temporary <scheme>",
		Short: "Register a locator scheme as an allowed temporary resource",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 || args[0] != "temporary" {
				return &usageError{fmt.Errorf("usage: config add temporary <scheme>")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(func(cfg *xconfig.Config) { xconfig.AddTemporary(cfg, args[1]) })
		},
	}
}

func newConfigRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm temporary <scheme>",
		Short: "Remove a locator scheme from the allowed temporary resources",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 || args[0] != "temporary" {
				return &usageError{fmt.Errorf("usage: config rm temporary <scheme>")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(func(cfg *xconfig.Config) { xconfig.RemoveTemporary(cfg, args[1]) })
		},
	}
}

func withConfig(mutate func(cfg *xconfig.Config)) error {
	path, err := xconfig.Path()
	if err != nil {
		return err
	}
	cfg, err := xconfig.Load(path)
	if err != nil {
		return err
	}
	mutate(cfg)
	return xconfig.Save(path, cfg)
}
