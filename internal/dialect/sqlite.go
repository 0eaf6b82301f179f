package dialect

import (
	"strings"

	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/sqlgen"
)

// sqlite implements the Dialect interface for SQLite.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

func (d *sqlite) Gen() sqlgen.Dialect {
	return sqlgen.SQLite
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	return sqlgen.QuoteIdent(sqlgen.SQLite, name)
}

func (d *sqlite) Placeholder(index int) string {
	return "?"
}

// -----------------------------------------------------------------------------
// Implicit columns
// -----------------------------------------------------------------------------

func (d *sqlite) PrimaryKeyType() string {
	// AUTOINCREMENT keeps ids of deleted rows from being reused.
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *sqlite) DeletedAtType() string {
	return "DATETIME"
}

func (d *sqlite) DeletedByType() string {
	return "INTEGER"
}

// -----------------------------------------------------------------------------
// Catalog normalization
// -----------------------------------------------------------------------------

// NormalizeType only folds case and whitespace: SQLite reports the declared
// type text verbatim.
func (d *sqlite) NormalizeType(sqlType string) string {
	return collapseSpaces(sqlType)
}

// ParseDefault parses PRAGMA table_info dflt_value.
func (d *sqlite) ParseDefault(expr string) (any, bool) {
	expr = stripParens(strings.TrimSpace(expr))
	if expr == "" || strings.EqualFold(expr, "NULL") {
		return nil, false
	}
	if s, ok := unquoteLiteral(expr); ok {
		return s, true
	}
	return expr, true
}

func (d *sqlite) SupportsReturning() bool {
	return false
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *sqlite) OperationSQL(op ast.Operation, live *ast.TableDef) ([]string, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	switch o := op.(type) {
	case *ast.CreateTable:
		return buildCreateTableSQL(sqlgen.SQLite, o.TableName, o.PrimaryKey, d.PrimaryKeyType(), o.Columns, o.Indexes, SQLiteBooleans), nil
	case *ast.AddColumn:
		// SQLite cannot add a NOT NULL column without a default in place.
		if !o.Column.Nullable && !o.Column.DefaultSet {
			return d.rebuildSQL(live, op)
		}
		return []string{buildAddColumnSQL(sqlgen.SQLite, o.TableName, o.Column, SQLiteBooleans)}, nil
	case *ast.ModifyColumn:
		// No ALTER COLUMN in SQLite: the table is rebuilt.
		return d.rebuildSQL(live, op)
	case *ast.DropColumn:
		return []string{buildDropColumnSQL(sqlgen.SQLite, o.TableName, o.Name)}, nil
	case *ast.AddIndex:
		return []string{buildCreateIndexSQL(o.TableName, o.Index, d.QuoteIdent)}, nil
	case *ast.DropIndex:
		return []string{buildDropIndexSQL(o.Index, d.QuoteIdent)}, nil
	default:
		return nil, unknownOperation(op)
	}
}

func (d *sqlite) DropTableSQL(table string) string {
	return sqlgen.New(sqlgen.SQLite).DropTableIfExists(table).String()
}

// RebuildTableName returns the scratch table used while rebuilding table.
func RebuildTableName(table string) string {
	return "_" + table + "_rebuild"
}

// rebuildSQL recreates live with op applied: copy rows into a new table,
// carry the AUTOINCREMENT counter over, swap names and recreate indexes.
func (d *sqlite) rebuildSQL(live *ast.TableDef, op ast.Operation) ([]string, error) {
	if live == nil {
		return nil, unknownOperation(op)
	}
	target := ast.Apply(live, op)
	tmp := RebuildTableName(live.Name)

	var stmts []string
	stmts = append(stmts, d.DropTableSQL(tmp))

	create := buildCreateTableSQL(sqlgen.SQLite, tmp, live.PrimaryKey, d.PrimaryKeyType(), target.Columns, nil, SQLiteBooleans)
	stmts = append(stmts, create...)

	// Copy every column the old table already has.
	var cols, exprs []string
	cols = append(cols, live.PrimaryKey)
	exprs = append(exprs, d.QuoteIdent(live.PrimaryKey))
	for _, col := range target.Columns {
		if col.PrimaryKey || col.Name == live.PrimaryKey || !live.HasColumn(col.Name) {
			continue
		}
		cols = append(cols, col.Name)
		expr := d.QuoteIdent(col.Name)
		if !col.Nullable && col.DefaultSet && live.GetColumn(col.Name).Nullable {
			expr = "COALESCE(" + expr + ", " + buildDefaultValueSQL(col.Type, col.Default, SQLiteBooleans) + ")"
		}
		exprs = append(exprs, expr)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdent(tmp))
	b.WriteString(" (")
	writeQuotedList(&b, cols, d.QuoteIdent)
	b.WriteString(") SELECT ")
	b.WriteString(strings.Join(exprs, ", "))
	b.WriteString(" FROM ")
	b.WriteString(d.QuoteIdent(live.Name))
	stmts = append(stmts, b.String())

	stmts = append(stmts,
		"DELETE FROM sqlite_sequence WHERE name = "+quoteLiteral(tmp),
		"INSERT INTO sqlite_sequence (name, seq) SELECT "+quoteLiteral(tmp)+", seq FROM sqlite_sequence WHERE name = "+quoteLiteral(live.Name),
		d.DropTableSQL(live.Name),
		sqlgen.New(sqlgen.SQLite).AlterTable(tmp).Space().RenameTo(live.Name).String(),
	)

	for _, idx := range target.Indexes {
		stmts = append(stmts, buildCreateIndexSQL(live.Name, idx, d.QuoteIdent))
	}
	return stmts, nil
}
