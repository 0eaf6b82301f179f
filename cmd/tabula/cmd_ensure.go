package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/tabula/internal/cli"
	"github.com/hlop3z/tabula/pkg/tabula"
)

// ensureCmd reconciles declared tables with the database.
func ensureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure [table...]",
		Short: "Create or alter tables to match their declaration",
		Long: `Reconcile tables with their declaration. Without arguments every declared
table is reconciled concurrently; otherwise the named tables run in order.

Operations applied before a failure stay applied. Running ensure again
resumes from the live state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setup(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			p := cli.New(cmd.OutOrStdout())
			tables := args
			if len(tables) == 0 {
				tables = client.Tables()
				if len(tables) == 0 {
					p.Print(p.FormatWarning("no tables declared"))
					return nil
				}
				applied, err := client.EnsureAll(cmd.Context())
				if err != nil {
					return err
				}
				printApplied(p, tables, applied)
				return nil
			}

			for _, table := range tables {
				ops, err := client.Ensure(cmd.Context(), table)
				if err != nil {
					return err
				}
				p.Print(p.FormatApplied(table, ops))
			}
			return nil
		},
	}
}

// printApplied prints per-table results in table order followed by totals.
func printApplied(p *cli.Printer, tables []string, applied map[string][]tabula.Operation) {
	total := 0
	for _, table := range tables {
		ops, ok := applied[table]
		if !ok {
			continue
		}
		total += len(ops)
		p.Print(p.FormatApplied(table, ops))
	}
	p.Print(p.FormatSuccess(fmt.Sprintf("%s, %s",
		cli.FormatCount(len(applied), "table checked", "tables checked"),
		cli.FormatCount(total, "operation applied", "operations applied"))))
}
