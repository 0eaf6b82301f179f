package introspect

import (
	"context"

	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
)

type postgresIntrospector struct {
	db      Querier
	dialect dialect.Dialect
}

const pgTableExistsQuery = `
	SELECT EXISTS (
		SELECT 1 FROM pg_tables
		WHERE schemaname = current_schema() AND tablename = $1
	)
`

// pgColumnsQuery reads pg_attribute directly: format_type keeps type
// modifiers (character varying(32)) that information_schema splits apart.
const pgColumnsQuery = `
	SELECT
		a.attname,
		format_type(a.atttypid, a.atttypmod),
		a.attnotnull,
		pg_get_expr(d.adbin, d.adrelid),
		EXISTS (
			SELECT 1 FROM pg_index i
			WHERE i.indrelid = a.attrelid
				AND i.indisprimary
				AND a.attnum = ANY(i.indkey)
		)
	FROM pg_attribute a
	JOIN pg_class c ON c.oid = a.attrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
	WHERE n.nspname = current_schema()
		AND c.relname = $1
		AND c.relkind = 'r'
		AND a.attnum > 0
		AND NOT a.attisdropped
	ORDER BY a.attnum
`

// pgIndexesQuery returns one row per index member. Primary key indexes and
// indexes owned by constraints are not managed and are excluded.
const pgIndexesQuery = `
	SELECT ic.relname, ix.indisunique, a.attname
	FROM pg_index ix
	JOIN pg_class t ON t.oid = ix.indrelid
	JOIN pg_class ic ON ic.oid = ix.indexrelid
	JOIN pg_namespace n ON n.oid = t.relnamespace
	CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
	WHERE n.nspname = current_schema()
		AND t.relname = $1
		AND NOT ix.indisprimary
		AND NOT EXISTS (
			SELECT 1 FROM pg_constraint con WHERE con.conindid = ix.indexrelid
		)
	ORDER BY ic.relname, k.ord
`

func (p *postgresIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := p.db.QueryContext(ctx, pgTableExistsQuery, table)
	if err != nil {
		return false, wrapCatalog(err, "check table existence", table)
	}
	defer rows.Close()

	var exists bool
	if rows.Next() {
		if err := rows.Scan(&exists); err != nil {
			return false, wrapCatalog(err, "scan table existence", table)
		}
	}
	if err := rows.Err(); err != nil {
		return false, wrapCatalog(err, "check table existence", table)
	}
	return exists, nil
}

func (p *postgresIntrospector) IntrospectTable(ctx context.Context, table string) (*ast.TableDef, error) {
	cols, err := p.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}

	idxs, err := p.indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	return buildTable(p.dialect, table, cols, idxs), nil
}

func (p *postgresIntrospector) columns(ctx context.Context, table string) ([]rawColumn, error) {
	rows, err := p.db.QueryContext(ctx, pgColumnsQuery, table)
	if err != nil {
		return nil, wrapCatalog(err, "introspect columns", table)
	}
	defer rows.Close()

	var cols []rawColumn
	for rows.Next() {
		var col rawColumn
		if err := rows.Scan(&col.Name, &col.DataType, &col.NotNull, &col.Default, &col.IsPrimaryKey); err != nil {
			return nil, wrapCatalog(err, "scan column", table)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapCatalog(err, "iterate columns", table)
	}
	return cols, nil
}

func (p *postgresIntrospector) indexes(ctx context.Context, table string) ([]rawIndex, error) {
	rows, err := p.db.QueryContext(ctx, pgIndexesQuery, table)
	if err != nil {
		return nil, wrapCatalog(err, "introspect indexes", table)
	}
	defer rows.Close()

	var idxs []rawIndex
	for rows.Next() {
		var (
			name   string
			unique bool
			column string
		)
		if err := rows.Scan(&name, &unique, &column); err != nil {
			return nil, wrapCatalog(err, "scan index", table)
		}
		// Rows arrive grouped by index name, members in key order.
		if n := len(idxs); n > 0 && idxs[n-1].Name == name {
			idxs[n-1].Columns = append(idxs[n-1].Columns, column)
			continue
		}
		idxs = append(idxs, rawIndex{Name: name, Unique: unique, Columns: []string{column}})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapCatalog(err, "iterate indexes", table)
	}
	return idxs, nil
}
