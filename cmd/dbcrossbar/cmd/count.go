package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dbcrossbar/dbcrossbar/internal/csvfmt"
	"github.com/dbcrossbar/dbcrossbar/internal/driver"
	"github.com/dbcrossbar/dbcrossbar/internal/schema"
	"github.com/dbcrossbar/dbcrossbar/internal/stream"
)

func newCountCmd() *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "count <locator>",
		Short: "Count the rows available at a locator",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &usageError{fmt.Errorf("count requires exactly one locator")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDriver(args[0])
			if err != nil {
				return err
			}
			if !d.Features().Count {
				return countViaLocalData(cmd, d, nil, where)
			}
			s, err := d.Schema(context.Background())
			if err != nil {
				return err
			}
			n, ok, err := d.Count(context.Background(), s, where)
			if err != nil {
				return err
			}
			if !ok {
				return countViaLocalData(cmd, d, s, where)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "SQL WHERE clause restricting which rows are counted")
	return cmd
}

// countViaLocalData is the generic fallback (SPEC_FULL.md supplemented
// feature 1): when a driver's Count fast path returns false, count rows
// by reading its local_data stream directly.
func countViaLocalData(cmd *cobra.Command, d driver.Driver, s *schema.Schema, where string) error {
	ctx := context.Background()
	_, gctx := stream.NewGroup(ctx, 1)
	cleanup := &stream.Cleanup{}
	defer cleanup.RunAll(ctx)

	ds, err := d.LocalData(gctx, driver.SharedArgs{WhereClause: where, MaxStreams: 1, Cleanup: cleanup})
	if err != nil {
		return err
	}

	var total int64
	for {
		part, ok, err := ds.Next(gctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n, err := countRecordsMinusHeader(part.Body)
		part.Body.Close()
		if err != nil {
			return err
		}
		total += n
	}
	fmt.Fprintln(cmd.OutOrStdout(), total)
	return nil
}

func countRecordsMinusHeader(r io.Reader) (int64, error) {
	reader := csvfmt.NewReader(r)
	if _, err := reader.ReadRecord(); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}
	var n int64
	for {
		if _, err := reader.ReadRecord(); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return 0, err
		}
		n++
	}
}
