// Package introspect reads the live shape of a table from the database
// catalogs and returns it as an *ast.TableDef, the same type used for
// declared descriptors, so the two can be diffed directly.
package introspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
)

// Querier is the part of *sql.DB / *sql.Tx the introspectors need.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Introspector queries database catalogs to discover a table's live shape.
type Introspector interface {
	// IntrospectTable returns the live table definition, or nil if the
	// table does not exist.
	IntrospectTable(ctx context.Context, table string) (*ast.TableDef, error)

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, table string) (bool, error)
}

// New creates an Introspector for the given dialect.
func New(db Querier, d dialect.Dialect) (Introspector, error) {
	switch d.Name() {
	case "postgres":
		return &postgresIntrospector{db: db, dialect: d}, nil
	case "sqlite":
		return &sqliteIntrospector{db: db, dialect: d}, nil
	default:
		return nil, alerr.Newf(alerr.EUnsupportedDialect, "no introspector for dialect %q", d.Name())
	}
}

// rawColumn is one column as reported by a catalog.
type rawColumn struct {
	Name         string
	DataType     string
	NotNull      bool
	Default      sql.NullString
	IsPrimaryKey bool
}

// rawIndex is one index as reported by a catalog.
type rawIndex struct {
	Name    string
	Columns []string
	Unique  bool
}

// buildTable assembles the live definition from catalog rows.
// Returns nil when there are no columns (the table does not exist).
func buildTable(d dialect.Dialect, table string, cols []rawColumn, idxs []rawIndex) *ast.TableDef {
	if len(cols) == 0 {
		return nil
	}

	def := &ast.TableDef{Name: table}
	for _, raw := range cols {
		col := &ast.ColumnDef{
			Name:       raw.Name,
			Type:       raw.DataType,
			Nullable:   !raw.NotNull && !raw.IsPrimaryKey,
			PrimaryKey: raw.IsPrimaryKey,
		}
		if raw.IsPrimaryKey && def.PrimaryKey == "" {
			def.PrimaryKey = raw.Name
		}
		// The key's generated default (sequence, rowid) is not a declared default.
		if raw.Default.Valid && !raw.IsPrimaryKey {
			col.Default, col.DefaultSet = d.ParseDefault(raw.Default.String)
		}
		def.Columns = append(def.Columns, col)
	}

	for _, raw := range idxs {
		def.Indexes = append(def.Indexes, &ast.IndexDef{
			Name:     LogicalIndexName(table, raw.Name),
			Columns:  raw.Columns,
			Unique:   raw.Unique,
			Physical: raw.Name,
		})
	}

	if def.HasColumn(ast.ColumnDeletedAt) && def.HasColumn(ast.ColumnDeletedBy) {
		def.Delete = ast.DeleteLogical
	}
	return def
}

// LogicalIndexName is the inverse of ast.PhysicalIndexName. Indexes created
// outside tabula keep their object name.
func LogicalIndexName(table, physical string) string {
	prefix := table + "_"
	if name, ok := strings.CutPrefix(physical, prefix); ok && name != "" {
		return name
	}
	return physical
}

func wrapCatalog(err error, op, table string) *alerr.Error {
	return alerr.Wrap(alerr.ErrIntrospection, err, "failed to "+op).WithTable(table)
}
