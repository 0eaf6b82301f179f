package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
)

type sqliteIntrospector struct {
	db      Querier
	dialect dialect.Dialect
}

func (s *sqliteIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, table)
	if err != nil {
		return false, wrapCatalog(err, "check table existence", table)
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, wrapCatalog(err, "check table existence", table)
	}
	return found, nil
}

func (s *sqliteIntrospector) IntrospectTable(ctx context.Context, table string) (*ast.TableDef, error) {
	cols, err := s.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}

	idxs, err := s.indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	return buildTable(s.dialect, table, cols, idxs), nil
}

func (s *sqliteIntrospector) columns(ctx context.Context, table string) ([]rawColumn, error) {
	// Returns: cid, name, type, notnull, dflt_value, pk
	query := fmt.Sprintf("PRAGMA table_info(%s)", s.dialect.QuoteIdent(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapCatalog(err, "introspect columns", table)
	}
	defer rows.Close()

	var cols []rawColumn
	for rows.Next() {
		var (
			cid     int
			col     rawColumn
			notNull int
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.Default, &pk); err != nil {
			return nil, wrapCatalog(err, "scan column", table)
		}
		col.NotNull = notNull != 0
		col.IsPrimaryKey = pk > 0
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapCatalog(err, "iterate columns", table)
	}
	return cols, nil
}

// indexes lists explicitly created indexes. Indexes backing PRIMARY KEY or
// UNIQUE constraints (origin 'pk' / 'u') are not managed and are skipped.
//
// Every result set is closed before the next query is opened: with a single
// connection an open cursor would block the following PRAGMA.
func (s *sqliteIntrospector) indexes(ctx context.Context, table string) ([]rawIndex, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", s.dialect.QuoteIdent(table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapCatalog(err, "introspect indexes", table)
	}

	var list []rawIndex
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		// index_list returns: seq, name, unique, origin, partial
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, wrapCatalog(err, "scan index", table)
		}
		if origin != "c" {
			continue
		}
		list = append(list, rawIndex{Name: name, Unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, wrapCatalog(err, "iterate indexes", table)
	}
	rows.Close()

	idxs := make([]rawIndex, 0, len(list))
	for _, idx := range list {
		cols, err := s.indexColumns(ctx, table, idx.Name)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			continue // expression index
		}
		idx.Columns = cols
		idxs = append(idxs, idx)
	}
	return idxs, nil
}

func (s *sqliteIntrospector) indexColumns(ctx context.Context, table, index string) ([]string, error) {
	// Returns: seqno, cid, name (ordered by seqno)
	query := fmt.Sprintf("PRAGMA index_info(%s)", s.dialect.QuoteIdent(index))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapCatalog(err, "get index info", table).With("index", index)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, wrapCatalog(err, "scan index column", table)
		}
		if !name.Valid {
			return nil, nil
		}
		cols = append(cols, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapCatalog(err, "iterate index columns", table)
	}
	return cols, nil
}
