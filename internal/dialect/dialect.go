// Package dialect renders schema operations and table shapes as SQL for a
// specific database. Declared SQL types pass through verbatim; a dialect only
// decides quoting, placeholders, primary key and soft-delete column types,
// and how each operation is expressed as statements.
package dialect

import (
	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/sqlgen"
)

// Dialect defines database-specific SQL generation.
// Implementations exist for SQLite and PostgreSQL.
type Dialect interface {
	// Name returns the dialect name (sqlite, postgres).
	Name() string

	// Gen returns the placeholder style used by sqlgen builders.
	Gen() sqlgen.Dialect

	// -------------------------------------------------------------------------
	// Identifiers
	// -------------------------------------------------------------------------

	// QuoteIdent quotes an identifier (table/column name) for the dialect.
	QuoteIdent(name string) string

	// Placeholder returns a parameter placeholder for the given index (1-based).
	Placeholder(index int) string

	// -------------------------------------------------------------------------
	// Implicit columns
	// -------------------------------------------------------------------------

	// PrimaryKeyType returns the column definition of the auto-increment key.
	// SQLite: INTEGER PRIMARY KEY AUTOINCREMENT
	// PostgreSQL: BIGSERIAL PRIMARY KEY
	PrimaryKeyType() string

	// DeletedAtType returns the type of the deleted_at column.
	DeletedAtType() string

	// DeletedByType returns the type of the deleted_by column.
	DeletedByType() string

	// -------------------------------------------------------------------------
	// Catalog normalization
	// -------------------------------------------------------------------------

	// NormalizeType returns the comparable spelling of a SQL type.
	NormalizeType(sqlType string) string

	// ParseDefault turns a catalog default expression into a scalar.
	// The second result is false when the column has no default (or NULL).
	ParseDefault(expr string) (any, bool)

	// -------------------------------------------------------------------------
	// Feature support
	// -------------------------------------------------------------------------

	// SupportsReturning reports whether INSERT ... RETURNING yields the new key.
	SupportsReturning() bool

	// -------------------------------------------------------------------------
	// SQL generation
	// -------------------------------------------------------------------------

	// OperationSQL renders one operation as the statements that apply it.
	// live is the table shape before the operation (nil for CreateTable).
	// Statements of one operation are meant to run in a single transaction.
	OperationSQL(op ast.Operation, live *ast.TableDef) ([]string, error)

	// DropTableSQL renders an idempotent DROP TABLE.
	DropTableSQL(table string) string
}

// Get returns the dialect implementation for the given name.
// Valid names: "postgres", "postgresql", "sqlite", "sqlite3".
func Get(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql":
		return Postgres(), nil
	case "sqlite", "sqlite3":
		return SQLite(), nil
	default:
		return nil, alerr.Newf(alerr.EUnsupportedDialect, "unsupported dialect %q", name).
			WithHelp("use 'sqlite' or 'postgres'")
	}
}

// Names returns the list of supported dialect names.
func Names() []string {
	return []string{"postgres", "sqlite"}
}
