package dialect

import (
	"strconv"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/sqlgen"
)

// QuoteIdentFunc is a function that quotes an identifier.
type QuoteIdentFunc func(name string) string

// BooleanLiterals holds the dialect spelling of boolean defaults.
type BooleanLiterals struct {
	True  string
	False string
}

// PostgresBooleans uses TRUE/FALSE.
var PostgresBooleans = BooleanLiterals{True: "TRUE", False: "FALSE"}

// SQLiteBooleans uses 1/0.
var SQLiteBooleans = BooleanLiterals{True: "1", False: "0"}

func writeQuotedList(b *strings.Builder, items []string, quote QuoteIdentFunc) {
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(item))
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// buildDefaultValueSQL renders a declared default for a column of sqlType.
// Numeric families with numeric values are written bare; booleans use the
// dialect literals; everything else becomes a quoted string literal.
func buildDefaultValueSQL(sqlType string, value any, bools BooleanLiterals) string {
	s, ok := ast.CanonicalValue(value)
	if !ok {
		return "NULL"
	}

	switch ast.FamilyOf(sqlType) {
	case ast.FamilyInteger, ast.FamilyNumeric:
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return strings.TrimSpace(s)
		}
	case ast.FamilyBoolean:
		if v, ok := ast.ParseBool(s); ok {
			if v {
				return bools.True
			}
			return bools.False
		}
	}
	return quoteLiteral(s)
}

// buildColumnDefSQL renders "<name> <type> [NOT NULL] [DEFAULT x]".
func buildColumnDefSQL(b *sqlgen.Builder, col *ast.ColumnDef, bools BooleanLiterals) {
	b.AddColumn(col.Name, col.Type)
	if !col.Nullable {
		b.NotNull()
	}
	if col.DefaultSet {
		b.Default(buildDefaultValueSQL(col.Type, col.Default, bools))
	}
}

// buildCreateTableSQL renders CREATE TABLE followed by one CREATE INDEX per index.
func buildCreateTableSQL(gen sqlgen.Dialect, name, pk, pkType string, cols []*ast.ColumnDef, indexes []*ast.IndexDef, bools BooleanLiterals) []string {
	b := sqlgen.New(gen)
	b.CreateTable(name).Raw(" (\n  ").AddColumn(pk, pkType)
	for _, col := range cols {
		if col.PrimaryKey || col.Name == pk {
			continue
		}
		b.Raw(",\n  ")
		buildColumnDefSQL(b, col, bools)
	}
	b.Raw("\n)")

	stmts := []string{b.String()}
	for _, idx := range indexes {
		stmts = append(stmts, buildCreateIndexSQL(name, idx, func(s string) string { return sqlgen.QuoteIdent(gen, s) }))
	}
	return stmts
}

func buildAddColumnSQL(gen sqlgen.Dialect, table string, col *ast.ColumnDef, bools BooleanLiterals) string {
	b := sqlgen.New(gen)
	b.AlterTable(table).Raw(" ADD COLUMN ")
	buildColumnDefSQL(b, col, bools)
	return b.String()
}

func buildDropColumnSQL(gen sqlgen.Dialect, table, column string) string {
	return sqlgen.New(gen).AlterTable(table).Space().DropColumn(column).String()
}

func buildCreateIndexSQL(table string, idx *ast.IndexDef, quoteIdent QuoteIdentFunc) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(quoteIdent(idx.Physical))
	b.WriteString(" ON ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" (")
	writeQuotedList(&b, idx.Columns, quoteIdent)
	b.WriteString(")")
	return b.String()
}

func buildDropIndexSQL(idx *ast.IndexDef, quoteIdent QuoteIdentFunc) string {
	return "DROP INDEX IF EXISTS " + quoteIdent(idx.Physical)
}

func unknownOperation(op ast.Operation) error {
	return alerr.Newf(alerr.EInternalError, "unhandled operation %T", op)
}

// collapseSpaces uppercases a type and removes insignificant whitespace.
func collapseSpaces(sqlType string) string {
	t := strings.ToUpper(strings.Join(strings.Fields(sqlType), " "))
	t = strings.ReplaceAll(t, " (", "(")
	t = strings.ReplaceAll(t, "( ", "(")
	t = strings.ReplaceAll(t, " )", ")")
	t = strings.ReplaceAll(t, ", ", ",")
	t = strings.ReplaceAll(t, " ,", ",")
	return t
}

// stripParens removes redundant outer parentheses from a default expression.
func stripParens(expr string) string {
	for len(expr) >= 2 && expr[0] == '(' && expr[len(expr)-1] == ')' {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	return expr
}

// unquoteLiteral returns the contents of a single-quoted SQL literal.
func unquoteLiteral(expr string) (string, bool) {
	if len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\'' {
		return strings.ReplaceAll(expr[1:len(expr)-1], "''", "'"), true
	}
	return "", false
}
