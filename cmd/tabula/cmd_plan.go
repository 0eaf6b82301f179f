package main

import (
	"github.com/spf13/cobra"

	"github.com/hlop3z/tabula/internal/cli"
)

// planCmd shows what ensure would do without changing anything.
func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan [table...]",
		Short: "Show pending operations and their SQL",
		Long: `Show the operations ensure would apply and the SQL it would run, without
changing anything. A full plan ends with the fingerprint of all declarations.`,
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
			}
			if len(tables) == 0 {
				p.Print(p.FormatWarning("no tables declared"))
				return nil
			}

			for _, table := range tables {
				ops, stmts, err := client.Plan(cmd.Context(), table)
				if err != nil {
					return err
				}
				p.Print(p.FormatPlan(table, ops, stmts))
			}

			// The fingerprint covers every declaration, so print it only
			// for a full plan.
			if len(args) == 0 {
				fp, err := client.Fingerprint()
				if err != nil {
					return err
				}
				p.Println(p.Dim("fingerprint: " + fp[:12]))
			}
			return nil
		},
	}
}
