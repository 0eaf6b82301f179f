package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/tabula/internal/cli"
)

// errTableMissing is returned by exists for a missing table so scripts can
// branch on the exit code.
var errTableMissing = errors.New("table does not exist")

// existsCmd reports whether a table exists.
func existsCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "exists <table>",
		Short: "Report whether a table exists",
		Long:  "Report whether a table exists, declared or not. Exits 1 when it does not.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			ok, err := client.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			p := cli.New(cmd.OutOrStdout())
			if !quiet {
				state := p.Success("exists")
				if !ok {
					state = p.Warning("missing")
				}
				p.Printf("%s: %s\n", p.Highlight(args[0]), state)
			}
			if !ok {
				return fmt.Errorf("%s: %w", args[0], errTableMissing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing; report through the exit code")
	return cmd
}

// columnsCmd lists the live columns of a table.
func columnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "List the live columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			cols, err := client.Columns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cols == nil {
				return fmt.Errorf("%s: %w", args[0], errTableMissing)
			}

			p := cli.New(cmd.OutOrStdout())
			p.Print(p.FormatColumns(cols))
			return nil
		},
	}
}

// dropCmd drops a table.
func dropCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Long: `Drop a table and all of its rows. Dropping a missing table is not an
error. The declaration is kept, so a later ensure recreates the table empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to drop %s without --force", args[0])
			}

			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Drop(cmd.Context(), args[0]); err != nil {
				return err
			}

			p := cli.New(cmd.OutOrStdout())
			p.Print(p.FormatSuccess("dropped " + args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm the drop")
	return cmd
}
