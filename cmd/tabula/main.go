// Package main provides the tabula CLI. It reads table declarations from a
// YAML file and reconciles them with a live database.
//
// Usage:
//
//	tabula ensure [table...]     # Create or alter tables to match their declaration
//	tabula plan [table...]       # Show pending operations and their SQL
//	tabula exists <table>        # Report whether a table exists
//	tabula columns <table>       # List the live columns of a table
//	tabula drop <table> --force  # Drop a table
//	tabula watch                 # Re-ensure changed tables when the file changes
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hlop3z/tabula/internal/cli"

	// Database drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

const defaultConfigFile = "tabula.yaml"

// Global flags
var (
	databaseURL string
	configFile  string
	logLevel    string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tabula",
		Short:         "Declarative table reconciliation",
		Long:          `tabula keeps database tables in line with their YAML declarations: it creates missing tables, adds, alters and drops columns, and maintains indexes.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			defaultHelp(cmd, args)
			return
		}
		customHelp(cmd)
	})

	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&databaseURL, "database-url", "d", "", "Database connection URL")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		ensureCmd(),
		planCmd(),
		existsCmd(),
		columnsCmd(),
		dropCmd(),
		watchCmd(),
	)
	return rootCmd
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		p := cli.New(stderr)
		printError(p, err)
		if logLevel == "debug" {
			printStack(p, err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
