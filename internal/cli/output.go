package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hlop3z/tabula/internal/ast"
)

// Table provides formatted table output.
type Table struct {
	p       *Printer
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with the given headers.
func (p *Printer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &Table{
		p:       p,
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table. Missing cells are left blank.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	for i, cell := range cells {
		if i < len(t.widths) {
			t.widths[i] = max(t.widths[i], lipgloss.Width(cell))
		}
	}
	t.rows = append(t.rows, cells)
}

// String renders the table as a string.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	var b strings.Builder
	for i, h := range t.headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(t.p.Header(padRight(h, t.widths[i])))
	}
	b.WriteString("\n")

	for i, w := range t.widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(t.p.Dim(strings.Repeat("─", w)))
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(t.widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(padRight(cell, t.widths[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// padRight pads a string to the right with spaces.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// FormatCount formats a count with singular/plural form.
func FormatCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// -----------------------------------------------------------------------------
// Schema output
// -----------------------------------------------------------------------------

// opMarker returns the list marker and style for an operation.
func opMarker(op ast.Operation) (string, lipgloss.Style) {
	switch op.Type() {
	case ast.OpCreateTable, ast.OpAddColumn, ast.OpAddIndex:
		return "+", styleAdd
	case ast.OpDropColumn, ast.OpDropIndex:
		return "-", styleDrop
	default:
		return "~", styleChange
	}
}

// FormatOperations renders ops as a marked list, one per line:
//
//	+ add column t.value4 INT(11)
//	- drop index t.value1
//	~ modify column t.value2 ...
func (p *Printer) FormatOperations(ops []ast.Operation) string {
	var b strings.Builder
	for _, op := range ops {
		marker, style := opMarker(op)
		b.WriteString("  ")
		b.WriteString(p.render(style, marker))
		b.WriteString(" ")
		b.WriteString(op.String())
		b.WriteString("\n")
	}
	return b.String()
}

// FormatPlan renders the pending operations of table followed by the SQL
// they run. An empty plan renders as up to date.
func (p *Printer) FormatPlan(table string, ops []ast.Operation, stmts []string) string {
	var b strings.Builder
	if len(ops) == 0 {
		b.WriteString(p.Highlight(table))
		b.WriteString(": ")
		b.WriteString(p.Dim("up to date"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(p.Highlight(table))
	b.WriteString(": ")
	b.WriteString(FormatCount(len(ops), "pending operation", "pending operations"))
	b.WriteString("\n")
	b.WriteString(p.FormatOperations(ops))
	for _, stmt := range stmts {
		b.WriteString("    ")
		b.WriteString(p.Dim(strings.TrimSpace(stmt) + ";"))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatApplied renders the operations Ensure applied to table.
func (p *Printer) FormatApplied(table string, ops []ast.Operation) string {
	var b strings.Builder
	b.WriteString(p.Highlight(table))
	b.WriteString(": ")
	if len(ops) == 0 {
		b.WriteString(p.Dim("up to date"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(p.Success(FormatCount(len(ops), "operation applied", "operations applied")))
	b.WriteString("\n")
	b.WriteString(p.FormatOperations(ops))
	return b.String()
}

// FormatColumns renders live columns as a table.
func (p *Printer) FormatColumns(cols []*ast.ColumnDef) string {
	t := p.NewTable("COLUMN", "TYPE", "NULL", "DEFAULT", "KEY")
	for _, c := range cols {
		null := "NO"
		if c.Nullable {
			null = "YES"
		}
		def := ""
		if c.DefaultSet {
			def, _ = ast.CanonicalValue(c.Default)
		}
		key := ""
		if c.PrimaryKey {
			key = "PRI"
		}
		t.AddRow(c.Name, c.Type, null, def, key)
	}
	return t.String()
}
