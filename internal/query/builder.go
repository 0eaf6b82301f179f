// Package query provides a fluent query builder bound to one table.
//
// A Builder accumulates predicates, ordering and paging, then compiles them
// into a parameterized statement when a terminal method (Get, Count, Insert,
// Update, Delete, Chunk, ...) runs. Tables declared with a logical delete
// policy hide soft-deleted rows from reads and writes unless WithTrashed or
// OnlyTrashed is used.
//
//	rows, err := query.New(db, dialect.SQLite(), "users", def).
//		Where("age", ">", 18).
//		OrderBy("name", "asc").
//		Limit(10).
//		Get(ctx)
//
// Builders are not safe for concurrent use; clone one per goroutine.
package query

import (
	"context"
	"database/sql"
	"log/slog"
	"slices"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
	"github.com/hlop3z/tabula/internal/metrics"
)

// IDAlias is the column name that resolves to the primary key when the
// table has no real column of that name.
const IDAlias = "id"

// Conn is the SQL execution interface; *sql.DB, *sql.Conn and *sql.Tx
// satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type trashMode int

const (
	trashExclude trashMode = iota
	trashInclude
	trashOnly
)

type order struct {
	column string
	desc   bool
}

// Builder composes and runs statements against one table.
type Builder struct {
	conn    Conn
	dialect dialect.Dialect
	table   string
	schema  *ast.TableDef
	logger  *slog.Logger
	metrics *metrics.Collector

	columns []string
	preds   []predicate
	orders  []order
	limit   int
	offset  int
	trashed trashMode

	// err holds the first invalid clause; terminals return it.
	err error
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-statement debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics records statement counts and durations.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Builder) {
		b.metrics = c
	}
}

// New returns a Builder for table. schema supplies the primary key, delete
// policy and declared columns; nil means an undeclared table with the
// default primary key and no soft deletes.
func New(conn Conn, d dialect.Dialect, table string, schema *ast.TableDef, opts ...Option) *Builder {
	if schema == nil {
		schema = &ast.TableDef{Name: table, PrimaryKey: ast.DefaultPrimaryKey(table)}
	}
	b := &Builder{
		conn:    conn,
		dialect: d,
		table:   table,
		schema:  schema,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := ast.ValidateIdentifier(table); err != nil {
		b.err = err
	}
	return b
}

// Table returns the table name.
func (b *Builder) Table() string { return b.table }

// PrimaryKey returns the primary key column.
func (b *Builder) PrimaryKey() string { return b.schema.PrimaryKey }

// Clone returns an independent copy of the builder and its clauses.
func (b *Builder) Clone() *Builder {
	c := *b
	c.columns = slices.Clone(b.columns)
	c.preds = slices.Clone(b.preds)
	c.orders = slices.Clone(b.orders)
	return &c
}

// Err returns the first clause error, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// resolve maps a caller column name to the live column, validating it.
func (b *Builder) resolve(column string) (string, error) {
	if column == IDAlias && b.schema.PrimaryKey != IDAlias && !b.schema.HasColumn(IDAlias) {
		return b.schema.PrimaryKey, nil
	}
	if err := ast.ValidateIdentifier(column); err != nil {
		return "", err
	}
	return column, nil
}

// -----------------------------------------------------------------------------
// Clauses
// -----------------------------------------------------------------------------

// Where adds a predicate, combined with earlier ones by AND.
//
//	Where("name", "bob")          // "name" = 'bob'
//	Where("deleted", nil)         // "deleted" IS NULL
//	Where("age", ">=", 18)
//	Where("id", "in", []int{1, 2})
//	Where("note", "is not null", nil)
func (b *Builder) Where(column string, args ...any) *Builder {
	var (
		op    string
		value any
	)
	switch len(args) {
	case 1:
		op, value = "", args[0]
		if c, ok := value.(Cond); ok {
			op, value = c.Op, c.Value
		}
	case 2:
		s, ok := args[0].(string)
		if !ok {
			return b.fail(alerr.Newf(alerr.ErrInvalidOperator, "operator must be a string, got %T", args[0]).
				WithColumn(column))
		}
		op, value = s, args[1]
	default:
		return b.fail(alerr.Newf(alerr.ErrInvalidValue, "where expects a value or an operator and a value, got %d arguments", len(args)).
			WithColumn(column))
	}
	return b.addPredicate(column, op, value)
}

// WhereMap adds one predicate per entry, in key order. A value of type
// Cond, or a two-element []any whose first element is an operator, selects
// the operator; any other value is matched as in Where with one argument.
func (b *Builder) WhereMap(conds map[string]any) *Builder {
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := conds[k]
		if pair, ok := v.([]any); ok && len(pair) == 2 {
			if op, ok := pair[0].(string); ok && isOperator(op) {
				b.addPredicate(k, op, pair[1])
				continue
			}
		}
		b.Where(k, v)
	}
	return b
}

// WhereIntegerInRaw adds "column IN (...)" over integer values. An empty
// list matches nothing.
func (b *Builder) WhereIntegerInRaw(column string, values []int64) *Builder {
	col, err := b.resolve(column)
	if err != nil {
		return b.fail(err)
	}
	b.preds = append(b.preds, predicate{column: col, op: opIn, ints: slices.Clone(values), intList: true})
	return b
}

func (b *Builder) addPredicate(column, op string, value any) *Builder {
	col, err := b.resolve(column)
	if err != nil {
		return b.fail(err)
	}
	p, err := newPredicate(col, op, value)
	if err != nil {
		return b.fail(err)
	}
	b.preds = append(b.preds, p)
	return b
}

// Select restricts the returned columns. The default is every column.
func (b *Builder) Select(columns ...string) *Builder {
	for _, c := range columns {
		col, err := b.resolve(c)
		if err != nil {
			return b.fail(err)
		}
		if !slices.Contains(b.columns, col) {
			b.columns = append(b.columns, col)
		}
	}
	return b
}

// OrderBy appends a sort key; dir is "asc" (default when empty) or "desc".
func (b *Builder) OrderBy(column, dir string) *Builder {
	col, err := b.resolve(column)
	if err != nil {
		return b.fail(err)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		b.orders = append(b.orders, order{column: col})
	case "desc":
		b.orders = append(b.orders, order{column: col, desc: true})
	default:
		return b.fail(alerr.Newf(alerr.ErrInvalidValue, "invalid sort direction %q", dir).
			WithColumn(column).
			WithHelp("use 'asc' or 'desc'"))
	}
	return b
}

// Limit caps the number of rows; 0 removes the cap.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		return b.fail(alerr.Newf(alerr.ErrInvalidValue, "limit must not be negative, got %d", n))
	}
	b.limit = n
	return b
}

// Offset skips the first n rows.
func (b *Builder) Offset(n int) *Builder {
	if n < 0 {
		return b.fail(alerr.Newf(alerr.ErrInvalidValue, "offset must not be negative, got %d", n))
	}
	b.offset = n
	return b
}

// WithTrashed includes soft-deleted rows.
func (b *Builder) WithTrashed() *Builder {
	b.trashed = trashInclude
	return b
}

// OnlyTrashed restricts the builder to soft-deleted rows.
func (b *Builder) OnlyTrashed() *Builder {
	b.trashed = trashOnly
	return b
}
