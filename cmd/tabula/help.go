package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hlop3z/tabula/internal/cli"
)

// CommandInfo is one line of the root help.
type CommandInfo struct {
	Name string
	Desc string
}

// CommandCategory groups related commands in the root help.
type CommandCategory struct {
	Title    string
	Commands []CommandInfo
}

// customHelp displays a styled help message for the root command.
func customHelp(cmd *cobra.Command) {
	categories := []CommandCategory{
		{
			Title: "Reconcile",
			Commands: []CommandInfo{
				{"ensure", "Create or alter tables to match their declaration"},
				{"plan", "Show pending operations and their SQL"},
				{"watch", "Re-ensure changed tables whenever the config file changes"},
			},
		},
		{
			Title: "Inspect",
			Commands: []CommandInfo{
				{"exists", "Report whether a table exists"},
				{"columns", "List the live columns of a table"},
			},
		},
		{
			Title: "Danger",
			Commands: []CommandInfo{
				{"drop", "Drop a table (requires --force)"},
			},
		},
	}

	flags := flagInfo(cmd.PersistentFlags())
	flags = append(flags,
		CommandInfo{"-h, --help", "Show help information"},
		CommandInfo{"-v, --version", "Show version information"},
	)

	renderCategoryHelp(cli.New(cmd.OutOrStdout()), "tabula "+version, cmd.Long, categories, flags)
}

// flagInfo lists the visible flags of fs in sorted order.
func flagInfo(fs *pflag.FlagSet) []CommandInfo {
	var out []CommandInfo
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "    --" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", --" + f.Name
		}
		desc := f.Usage
		if f.DefValue != "" && f.Value.Type() != "bool" {
			desc += " (default: " + f.DefValue + ")"
		}
		out = append(out, CommandInfo{name, desc})
	})
	return out
}

// renderCategoryHelp prints categorized commands and flags in aligned columns.
func renderCategoryHelp(p *cli.Printer, title, subtitle string, categories []CommandCategory, flags []CommandInfo) {
	p.Println(p.Header(title))
	p.Println(p.Dim(subtitle))
	p.Println()
	p.Println(p.Header("Usage:") + " tabula <command> [flags]")

	width := 0
	for _, cat := range categories {
		for _, c := range cat.Commands {
			width = max(width, len(c.Name))
		}
	}
	for _, f := range flags {
		width = max(width, len(f.Name))
	}

	for _, cat := range categories {
		p.Println()
		p.Println(p.Header(cat.Title + ":"))
		for _, c := range cat.Commands {
			p.Printf("  %s  %s\n", p.Highlight(padRight(c.Name, width)), c.Desc)
		}
	}

	p.Println()
	p.Println(p.Header("Flags:"))
	for _, f := range flags {
		p.Printf("  %s  %s\n", padRight(f.Name, width), p.Dim(f.Desc))
	}
	p.Println()
	p.Println(p.Dim(`Use "tabula <command> --help" for more information about a command.`))
}

func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
