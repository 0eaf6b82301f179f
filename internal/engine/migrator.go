package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
	"github.com/hlop3z/tabula/internal/drift"
	"github.com/hlop3z/tabula/internal/introspect"
	"github.com/hlop3z/tabula/internal/metrics"
	"github.com/hlop3z/tabula/internal/registry"
)

// Conn is the SQL execution interface; *sql.DB, *sql.Conn and *sql.Tx
// satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TxBeginner is implemented by connections that can open a transaction.
// Multi-statement operations run in one transaction when it is available.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// DefaultConcurrency bounds EnsureAll.
const DefaultConcurrency = 4

// Migrator reconciles registered tables with the live database.
type Migrator struct {
	db           Conn
	dialect      dialect.Dialect
	registry     *registry.Registry
	introspector introspect.Introspector
	logger       *slog.Logger
	metrics      *metrics.Collector
	tracker      *drift.Tracker
	diffOpts     []DiffOption
	concurrency  int
	locks        keyedMutex
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records operation counts and durations.
func WithMetrics(c *metrics.Collector) MigratorOption {
	return func(m *Migrator) {
		m.metrics = c
	}
}

// WithConcurrency bounds the number of tables EnsureAll reconciles at once.
func WithConcurrency(n int) MigratorOption {
	return func(m *Migrator) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithDiffOptions passes options to every Diff.
func WithDiffOptions(opts ...DiffOption) MigratorOption {
	return func(m *Migrator) {
		m.diffOpts = append(m.diffOpts, opts...)
	}
}

// NewMigrator creates a Migrator over db.
func NewMigrator(db Conn, d dialect.Dialect, reg *registry.Registry, opts ...MigratorOption) (*Migrator, error) {
	in, err := introspect.New(db, d)
	if err != nil {
		return nil, err
	}
	m := &Migrator{
		db:           db,
		dialect:      d,
		registry:     reg,
		introspector: in,
		logger:       slog.Default(),
		tracker:      drift.NewTracker(),
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	// Dialect normalization comes first so callers can still override it.
	m.diffOpts = append([]DiffOption{WithTypeNormalizer(d.NormalizeType)}, m.diffOpts...)
	return m, nil
}

// -----------------------------------------------------------------------------
// Planning
// -----------------------------------------------------------------------------

// declared returns the expanded descriptor of a registered table.
func (m *Migrator) declared(table string) (*ast.TableDef, error) {
	def, ok := m.registry.Get(table)
	if !ok {
		return nil, alerr.NotConfigured(table)
	}
	return Expand(def, m.dialect), nil
}

func (m *Migrator) plan(ctx context.Context, table string) (declared, live *ast.TableDef, ops []ast.Operation, err error) {
	declared, err = m.declared(table)
	if err != nil {
		return nil, nil, nil, err
	}
	live, err = m.introspector.IntrospectTable(ctx, table)
	if err != nil {
		return nil, nil, nil, err
	}
	ops, err = Diff(declared, live, m.diffOpts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return declared, live, ops, nil
}

// Plan returns the operations Ensure would apply, without applying them.
func (m *Migrator) Plan(ctx context.Context, table string) ([]ast.Operation, error) {
	_, _, ops, err := m.plan(ctx, table)
	return ops, err
}

// SQL renders the statements Ensure would execute.
func (m *Migrator) SQL(ctx context.Context, table string) ([]string, error) {
	_, live, ops, err := m.plan(ctx, table)
	if err != nil {
		return nil, err
	}

	var out []string
	current := live
	for _, op := range ops {
		stmts, err := m.dialect.OperationSQL(op, current)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		current = ast.Apply(current, op)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Reconciliation
// -----------------------------------------------------------------------------

// Ensure brings table to its declared shape and returns the operations it
// applied (empty when the table already matches). On failure the applied
// prefix is returned along with an *ApplyError.
func (m *Migrator) Ensure(ctx context.Context, table string) ([]ast.Operation, error) {
	unlock := m.locks.lock(table)
	defer unlock()

	declared, live, ops, err := m.plan(ctx, table)
	if err != nil {
		m.metrics.RecordEnsure(table, 0, err)
		return nil, err
	}

	applied, err := m.apply(ctx, table, live, ops)
	m.metrics.RecordEnsure(table, len(applied), err)
	if err != nil {
		return applied, err
	}

	if th, herr := drift.ComputeTableHash(declared); herr == nil {
		m.tracker.Record(table, th.Hash)
	}
	if len(applied) == 0 {
		m.logger.Debug("table up to date", "table", table)
	}
	return applied, nil
}

// apply executes ops in order. Each operation's statements form one group;
// a group of several statements runs in a transaction.
func (m *Migrator) apply(ctx context.Context, table string, live *ast.TableDef, ops []ast.Operation) ([]ast.Operation, error) {
	applied := make([]ast.Operation, 0, len(ops))
	current := live

	for i, op := range ops {
		start := time.Now()

		stmts, err := m.dialect.OperationSQL(op, current)
		if err != nil {
			return applied, m.failed(table, applied, op, i, "", err, start)
		}

		if stmt, err := m.execGroup(ctx, stmts); err != nil {
			cause := alerr.WrapSQL(err, "apply "+op.Type().String(), table).
				WithSQL(stmt).
				With("position", i)
			return applied, m.failed(table, applied, op, i, stmt, cause, start)
		}

		m.metrics.RecordOperation(table, op.Type().String(), nil, time.Since(start))
		m.logger.Info("applied operation",
			"table", table,
			"op", op.Type().String(),
			"position", i,
			"detail", op.String())

		applied = append(applied, op)
		current = ast.Apply(current, op)
	}
	return applied, nil
}

func (m *Migrator) failed(table string, applied []ast.Operation, op ast.Operation, i int, stmt string, cause error, start time.Time) error {
	m.metrics.RecordOperation(table, op.Type().String(), cause, time.Since(start))
	m.logger.Warn("operation failed",
		"table", table,
		"op", op.Type().String(),
		"position", i,
		"applied", len(applied),
		"error", cause)
	return &ApplyError{
		Table:   table,
		Applied: applied,
		Failed:  op,
		Index:   i,
		SQL:     stmt,
		Cause:   cause,
	}
}

// execGroup runs stmts and returns the failing statement on error.
func (m *Migrator) execGroup(ctx context.Context, stmts []string) (string, error) {
	if len(stmts) == 1 {
		_, err := m.db.ExecContext(ctx, stmts[0])
		return stmts[0], err
	}

	beginner, ok := m.db.(TxBeginner)
	if !ok {
		for _, stmt := range stmts {
			if _, err := m.db.ExecContext(ctx, stmt); err != nil {
				return stmt, err
			}
		}
		return "", nil
	}

	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return "BEGIN", alerr.Wrap(alerr.ErrSQLTransaction, err, "failed to begin transaction")
	}
	defer tx.Rollback() // no-op after commit

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return stmt, err
		}
	}
	if err := tx.Commit(); err != nil {
		return "COMMIT", alerr.Wrap(alerr.ErrSQLTransaction, err, "failed to commit transaction")
	}
	return "", nil
}

// EnsureAll reconciles every registered table concurrently. Tables are
// independent: one failure does not stop the others. The first error is
// returned along with the operations applied per table.
func (m *Migrator) EnsureAll(ctx context.Context) (map[string][]ast.Operation, error) {
	return m.ensureMany(ctx, m.registry.Names())
}

// EnsureChanged reconciles only tables whose declaration changed since
// their last successful Ensure through this Migrator.
func (m *Migrator) EnsureChanged(ctx context.Context) (map[string][]ast.Operation, error) {
	var changed []string
	for _, name := range m.registry.Names() {
		declared, err := m.declared(name)
		if err != nil {
			continue // removed concurrently
		}
		dirty, _, err := m.tracker.Changed(declared)
		if err != nil {
			return nil, err
		}
		if dirty {
			changed = append(changed, name)
		}
	}
	return m.ensureMany(ctx, changed)
}

func (m *Migrator) ensureMany(ctx context.Context, tables []string) (map[string][]ast.Operation, error) {
	var (
		mu      sync.Mutex
		results = make(map[string][]ast.Operation, len(tables))
		g       errgroup.Group
	)
	g.SetLimit(m.concurrency)

	for _, table := range tables {
		g.Go(func() error {
			ops, err := m.Ensure(ctx, table)
			mu.Lock()
			results[table] = ops
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	return results, err
}

// -----------------------------------------------------------------------------
// Table utilities
// -----------------------------------------------------------------------------

// Exists reports whether table exists, declared or not.
func (m *Migrator) Exists(ctx context.Context, table string) (bool, error) {
	return m.introspector.TableExists(ctx, table)
}

// Drop removes table if it exists. Dropping a missing table is not an error.
func (m *Migrator) Drop(ctx context.Context, table string) error {
	if err := ast.ValidateIdentifier(table); err != nil {
		return err
	}

	unlock := m.locks.lock(table)
	defer unlock()

	stmt := m.dialect.DropTableSQL(table)
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return alerr.WrapSQL(err, "drop table", table).WithSQL(stmt)
	}
	m.tracker.Forget(table)
	m.logger.Info("dropped table", "table", table)
	return nil
}

// Columns returns the live columns of table in ordinal order, or nil if
// the table does not exist.
func (m *Migrator) Columns(ctx context.Context, table string) ([]*ast.ColumnDef, error) {
	live, err := m.introspector.IntrospectTable(ctx, table)
	if err != nil || live == nil {
		return nil, err
	}
	return live.Columns, nil
}

// Describe returns the live definition of table, or nil if it does not exist.
func (m *Migrator) Describe(ctx context.Context, table string) (*ast.TableDef, error) {
	return m.introspector.IntrospectTable(ctx, table)
}

// Fingerprint hashes the declared shape of every registered table, as
// Ensure would create it. The root changes whenever any declaration does.
func (m *Migrator) Fingerprint() (*drift.SchemaHash, error) {
	var tables []*ast.TableDef
	for _, name := range m.registry.Names() {
		def, err := m.declared(name)
		if err != nil {
			continue // removed concurrently
		}
		tables = append(tables, def)
	}
	return drift.ComputeSchemaHash(tables...)
}
