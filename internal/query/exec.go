package query

import (
	"context"
	"slices"
	"time"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/sqlgen"
)

// Statement kinds, used as the metrics label.
const (
	kindSelect = "select"
	kindCount  = "count"
	kindInsert = "insert"
	kindUpdate = "update"
	kindDelete = "delete"
)

// -----------------------------------------------------------------------------
// Compilation
// -----------------------------------------------------------------------------

func (b *Builder) gen() *sqlgen.Builder {
	return sqlgen.New(b.dialect.Gen())
}

// writeWhere appends the predicates and the soft-delete filter for mode.
func (b *Builder) writeWhere(s *sqlgen.Builder, mode trashMode) {
	first := true
	and := func() {
		if first {
			s.Raw(" WHERE ")
			first = false
			return
		}
		s.Raw(" AND ")
	}

	for _, p := range b.preds {
		and()
		p.write(s)
	}

	if !b.schema.SoftDeletes() {
		return
	}
	switch mode {
	case trashExclude:
		and()
		s.Ident(ast.ColumnDeletedAt).Raw(" IS NULL")
	case trashOnly:
		and()
		s.Ident(ast.ColumnDeletedAt).Raw(" IS NOT NULL")
	}
}

func (b *Builder) selectSQL() (string, []any) {
	s := b.gen()
	s.Raw("SELECT ")
	if len(b.columns) == 0 {
		s.Raw("*")
	} else {
		s.Idents(b.columns...)
	}
	s.Raw(" FROM ").Ident(b.table)
	b.writeWhere(s, b.trashed)

	for i, o := range b.orders {
		if i == 0 {
			s.Raw(" ORDER BY ")
		} else {
			s.Comma()
		}
		s.Ident(o.column)
		if o.desc {
			s.Raw(" DESC")
		} else {
			s.Raw(" ASC")
		}
	}

	switch {
	case b.limit > 0:
		s.Raw(" LIMIT ").Arg(b.limit)
	case b.offset > 0 && b.dialect.Name() == "sqlite":
		// SQLite only accepts OFFSET after LIMIT.
		s.Raw(" LIMIT -1")
	}
	if b.offset > 0 {
		s.Raw(" OFFSET ").Arg(b.offset)
	}
	return s.String(), s.Params()
}

// SQL returns the SELECT statement and arguments Get would run.
func (b *Builder) SQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	stmt, args := b.selectSQL()
	return stmt, args, nil
}

// -----------------------------------------------------------------------------
// Execution
// -----------------------------------------------------------------------------

func (b *Builder) debug(kind, stmt string, args []any) {
	b.logger.Debug("query",
		"table", b.table,
		"kind", kind,
		"sql", stmt,
		"args", len(args))
}

func (b *Builder) queryRows(ctx context.Context, kind, stmt string, args []any) ([]Row, error) {
	b.debug(kind, stmt, args)
	start := time.Now()

	rows, err := b.conn.QueryContext(ctx, stmt, args...)
	var out []Row
	if err == nil {
		out, err = scanRows(rows, b.schema.PrimaryKey, b.schema.PrimaryKey != IDAlias)
	}
	b.metrics.RecordStatement(kind, err, time.Since(start))
	if err != nil {
		return nil, alerr.WrapSQL(err, "run "+kind, b.table).WithSQL(stmt)
	}
	return out, nil
}

func (b *Builder) queryInt(ctx context.Context, kind, stmt string, args []any) (int64, error) {
	b.debug(kind, stmt, args)
	start := time.Now()

	var n int64
	rows, err := b.conn.QueryContext(ctx, stmt, args...)
	if err == nil {
		if rows.Next() {
			err = rows.Scan(&n)
		}
		if err == nil {
			err = rows.Err()
		}
		rows.Close()
	}
	b.metrics.RecordStatement(kind, err, time.Since(start))
	if err != nil {
		return 0, alerr.WrapSQL(err, "run "+kind, b.table).WithSQL(stmt)
	}
	return n, nil
}

func (b *Builder) exec(ctx context.Context, kind, stmt string, args []any) (int64, error) {
	b.debug(kind, stmt, args)
	start := time.Now()

	res, err := b.conn.ExecContext(ctx, stmt, args...)
	var n int64
	if err == nil {
		if kind == kindInsert {
			n, err = res.LastInsertId()
		} else {
			n, err = res.RowsAffected()
		}
	}
	b.metrics.RecordStatement(kind, err, time.Since(start))
	if err != nil {
		return 0, alerr.WrapSQL(err, "run "+kind, b.table).WithSQL(stmt)
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Get returns every matching row.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	if b.err != nil {
		return nil, b.err
	}
	stmt, args := b.selectSQL()
	return b.queryRows(ctx, kindSelect, stmt, args)
}

// First returns the first matching row, or nil when there is none.
func (b *Builder) First(ctx context.Context) (Row, error) {
	rows, err := b.Clone().Limit(1).Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Find returns the row whose primary key is id, or nil when it does not
// exist (or is soft-deleted).
func (b *Builder) Find(ctx context.Context, id any) (Row, error) {
	return b.Clone().Where(b.schema.PrimaryKey, id).First(ctx)
}

// Count returns the number of matching rows, ignoring order, limit and offset.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	s := b.gen()
	s.Raw("SELECT COUNT(*) FROM ").Ident(b.table)
	b.writeWhere(s, b.trashed)
	return b.queryInt(ctx, kindCount, s.String(), s.Params())
}

// -----------------------------------------------------------------------------
// Writes
// -----------------------------------------------------------------------------

// checkRow resolves and validates the columns of a row being written.
// Declared tables reject unknown columns and nil for NOT NULL columns.
func (b *Builder) checkRow(row map[string]any) ([]string, []any, error) {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	declared := len(b.schema.Columns) > 0
	var known []string
	if declared {
		known = append(known, b.schema.PrimaryKey)
		known = append(known, b.schema.ColumnNames()...)
		if b.schema.SoftDeletes() {
			known = append(known, ast.ColumnDeletedAt, ast.ColumnDeletedBy)
		}
	}

	cols := make([]string, 0, len(keys))
	vals := make([]any, 0, len(keys))
	for _, k := range keys {
		col, err := b.resolve(k)
		if err != nil {
			return nil, nil, err
		}
		if declared && !slices.Contains(known, col) {
			return nil, nil, alerr.UnknownColumn(b.table, col, known).
				WithHelp("only declared columns can be written")
		}
		v := row[k]
		if v == nil {
			if def := b.schema.GetColumn(col); def != nil && !def.Nullable {
				return nil, nil, alerr.New(alerr.ErrInvalidValue, "column does not accept NULL").
					WithTable(b.table).
					WithColumn(col)
			}
		}
		if slices.Contains(cols, col) {
			return nil, nil, alerr.New(alerr.ErrInvalidValue, "column written twice").
				WithTable(b.table).
				WithColumn(col).
				WithHelp("'id' and the primary key name refer to the same column")
		}
		cols = append(cols, col)
		vals = append(vals, v)
	}
	return cols, vals, nil
}

// Insert adds row and returns its primary key. Columns left out take their
// database defaults.
func (b *Builder) Insert(ctx context.Context, row map[string]any) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	cols, vals, err := b.checkRow(row)
	if err != nil {
		return 0, err
	}

	s := b.gen()
	s.Raw("INSERT INTO ").Ident(b.table)
	if len(cols) == 0 {
		s.Raw(" DEFAULT VALUES")
	} else {
		s.OpenParen().Idents(cols...).Raw(") VALUES (").Args(vals...).CloseParen()
	}

	if b.dialect.SupportsReturning() {
		s.Raw(" RETURNING ").Ident(b.schema.PrimaryKey)
		return b.queryInt(ctx, kindInsert, s.String(), s.Params())
	}
	return b.exec(ctx, kindInsert, s.String(), s.Params())
}

// Update sets the columns of row on every matching row and returns the
// number of rows changed. On logical tables soft-deleted rows are skipped
// unless WithTrashed or OnlyTrashed is set, so OnlyTrashed with a nil
// deleted_at restores rows.
func (b *Builder) Update(ctx context.Context, row map[string]any) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	if len(row) == 0 {
		return 0, alerr.New(alerr.ErrInvalidValue, "update needs at least one column").WithTable(b.table)
	}
	cols, vals, err := b.checkRow(row)
	if err != nil {
		return 0, err
	}

	s := b.gen()
	s.Raw("UPDATE ").Ident(b.table).Raw(" SET ")
	for i, col := range cols {
		if i > 0 {
			s.Comma()
		}
		s.Ident(col).Raw(" = ").Arg(vals[i])
	}
	b.writeWhere(s, b.trashed)
	return b.exec(ctx, kindUpdate, s.String(), s.Params())
}

// Delete removes every matching row and returns how many were removed.
// Logical tables stamp deleted_at and deleted_by (the actor from
// WithActor) instead.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}

	s := b.gen()
	if b.schema.SoftDeletes() {
		var actor any
		if id, ok := ActorFrom(ctx); ok {
			actor = id
		}
		s.Raw("UPDATE ").Ident(b.table).Raw(" SET ").
			Ident(ast.ColumnDeletedAt).Raw(" = ").Arg(time.Now().UTC()).Comma().
			Ident(ast.ColumnDeletedBy).Raw(" = ").Arg(actor)
	} else {
		s.Raw("DELETE FROM ").Ident(b.table)
	}
	// Deleting never touches rows that are already soft-deleted.
	b.writeWhere(s, trashExclude)
	return b.exec(ctx, kindDelete, s.String(), s.Params())
}

// DeleteID deletes the row whose primary key is id. found is false when no
// such row exists or it was already soft-deleted.
func (b *Builder) DeleteID(ctx context.Context, id any) (n int64, found bool, err error) {
	n, err = b.Clone().Where(b.schema.PrimaryKey, id).Delete(ctx)
	if err != nil {
		return 0, false, err
	}
	return n, n > 0, nil
}
