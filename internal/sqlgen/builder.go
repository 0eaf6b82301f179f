// Package sqlgen provides SQL building helpers that track quoting and bind
// parameters so statements are never assembled from raw values.
package sqlgen

import (
	"strconv"
	"strings"
)

// Dialect selects the identifier and placeholder style.
type Dialect int

const (
	// Postgres uses numbered placeholders: $1, $2, ...
	Postgres Dialect = iota
	// SQLite uses question marks.
	SQLite
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Builder provides fluent SQL construction. Values written with Arg are
// collected in order and rendered as placeholders.
type Builder struct {
	dialect Dialect
	buf     strings.Builder
	args    []any
}

// New creates a new Builder for the specified dialect.
func New(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// Dialect returns the dialect of this builder.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// ----------------------------------------------------------------------------
// DDL Helpers
// ----------------------------------------------------------------------------

// CreateTable appends "CREATE TABLE <name>".
func (b *Builder) CreateTable(name string) *Builder {
	b.buf.WriteString("CREATE TABLE ")
	b.buf.WriteString(QuoteIdent(b.dialect, name))
	return b
}

// DropTableIfExists appends "DROP TABLE IF EXISTS <name>".
func (b *Builder) DropTableIfExists(name string) *Builder {
	b.buf.WriteString("DROP TABLE IF EXISTS ")
	b.buf.WriteString(QuoteIdent(b.dialect, name))
	return b
}

// AlterTable appends "ALTER TABLE <name>".
func (b *Builder) AlterTable(name string) *Builder {
	b.buf.WriteString("ALTER TABLE ")
	b.buf.WriteString(QuoteIdent(b.dialect, name))
	return b
}

// AddColumn appends "<name> <typ>" (for CREATE TABLE or ALTER TABLE ADD COLUMN).
func (b *Builder) AddColumn(name, typ string) *Builder {
	b.buf.WriteString(QuoteIdent(b.dialect, name))
	b.buf.WriteString(" ")
	b.buf.WriteString(typ)
	return b
}

// DropColumn appends "DROP COLUMN <name>".
func (b *Builder) DropColumn(name string) *Builder {
	b.buf.WriteString("DROP COLUMN ")
	b.buf.WriteString(QuoteIdent(b.dialect, name))
	return b
}

// RenameTo appends "RENAME TO <name>".
func (b *Builder) RenameTo(name string) *Builder {
	b.buf.WriteString("RENAME TO ")
	b.buf.WriteString(QuoteIdent(b.dialect, name))
	return b
}

// NotNull appends " NOT NULL".
func (b *Builder) NotNull() *Builder {
	b.buf.WriteString(" NOT NULL")
	return b
}

// Default appends " DEFAULT <expr>". The expression is written as-is.
func (b *Builder) Default(expr string) *Builder {
	b.buf.WriteString(" DEFAULT ")
	b.buf.WriteString(expr)
	return b
}

// ----------------------------------------------------------------------------
// DML Helpers
// ----------------------------------------------------------------------------

// Ident appends a quoted identifier.
func (b *Builder) Ident(name string) *Builder {
	b.buf.WriteString(QuoteIdent(b.dialect, name))
	return b
}

// Idents appends a comma-separated list of quoted identifiers.
func (b *Builder) Idents(names ...string) *Builder {
	for i, n := range names {
		if i > 0 {
			b.buf.WriteString(", ")
		}
		b.buf.WriteString(QuoteIdent(b.dialect, n))
	}
	return b
}

// Arg appends a placeholder bound to v.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	b.buf.WriteString(placeholder(b.dialect, len(b.args)))
	return b
}

// Args appends a comma-separated list of placeholders bound to vs.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.buf.WriteString(", ")
		}
		b.Arg(v)
	}
	return b
}

// ----------------------------------------------------------------------------
// Utilities
// ----------------------------------------------------------------------------

// Raw appends raw SQL to the buffer without any modification.
func (b *Builder) Raw(sql string) *Builder {
	b.buf.WriteString(sql)
	return b
}

// Comma appends ", ".
func (b *Builder) Comma() *Builder {
	b.buf.WriteString(", ")
	return b
}

// OpenParen appends " (".
func (b *Builder) OpenParen() *Builder {
	b.buf.WriteString(" (")
	return b
}

// CloseParen appends ")".
func (b *Builder) CloseParen() *Builder {
	b.buf.WriteString(")")
	return b
}

// Space appends a space character.
func (b *Builder) Space() *Builder {
	b.buf.WriteString(" ")
	return b
}

// String returns the accumulated SQL string.
func (b *Builder) String() string {
	return b.buf.String()
}

// Params returns the bound values in placeholder order.
func (b *Builder) Params() []any {
	return b.args
}

// Reset clears the buffer and bound values so the builder can be reused.
func (b *Builder) Reset() *Builder {
	b.buf.Reset()
	b.args = nil
	return b
}

// ----------------------------------------------------------------------------
// Standalone Helpers
// ----------------------------------------------------------------------------

// QuoteIdent returns the identifier quoted with double quotes, escaping
// embedded quotes by doubling them.
func QuoteIdent(dialect Dialect, s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Columns returns a comma-separated list of double-quoted column names.
func Columns(cols ...string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = `"` + strings.ReplaceAll(col, `"`, `""`) + `"`
	}
	return strings.Join(parts, ", ")
}

// Placeholders returns a comma-separated list of n placeholders.
func Placeholders(dialect Dialect, n int) string {
	if n <= 0 {
		return ""
	}
	parts := make([]string, n)
	for i := range n {
		parts[i] = placeholder(dialect, i+1)
	}
	return strings.Join(parts, ", ")
}

func placeholder(dialect Dialect, index int) string {
	if dialect == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(index)
}
