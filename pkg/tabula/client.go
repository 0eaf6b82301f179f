package tabula

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
	"github.com/hlop3z/tabula/internal/engine"
	"github.com/hlop3z/tabula/internal/metrics"
	"github.com/hlop3z/tabula/internal/registry"
)

// Client is the main entry point. It owns the table registry of one
// application session and reconciles declared tables with the database.
//
// A Client is safe for concurrent use. Builders returned by Table are not;
// take one per goroutine.
type Client struct {
	db       *sql.DB
	ownsDB   bool
	dialect  dialect.Dialect
	config   *Config
	registry *registry.Registry
	migrator *engine.Migrator
	metrics  *metrics.Collector
}

// Open connects to the database named by WithDatabaseURL and returns a
// Client that closes the connection on Close.
//
// Example:
//
//	client, err := tabula.Open(ctx,
//	    tabula.WithDatabaseURL("postgres://localhost:5432/mydb"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newConfig(opts)

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	// Auto-detect dialect from URL if not specified
	if cfg.Dialect == "" {
		cfg.Dialect = detectDialect(cfg.DatabaseURL)
	}

	d, err := dialect.Get(cfg.Dialect)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, cfg.Dialect)
	}

	db, err := openDatabase(cfg.DatabaseURL, d.Name())
	if err != nil {
		return nil, &ConnectionError{
			URL:     redactURL(cfg.DatabaseURL),
			Dialect: d.Name(),
			Cause:   err,
		}
	}
	configurePool(db, d.Name())

	pingCtx, cancel := withTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &ConnectionError{
			URL:     redactURL(cfg.DatabaseURL),
			Dialect: d.Name(),
			Cause:   err,
		}
	}

	// Timestamps written for soft deletes are UTC; keep the session aligned.
	if d.Name() == "postgres" {
		if _, err := db.ExecContext(pingCtx, "SET timezone = 'UTC'"); err != nil {
			db.Close()
			return nil, &ConnectionError{
				URL:     redactURL(cfg.DatabaseURL),
				Dialect: d.Name(),
				Cause:   fmt.Errorf("failed to set timezone: %w", err),
			}
		}
	}

	c, err := newClient(db, d, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.ownsDB = true
	cfg.Logger.Debug("connected", "dialect", d.Name(), "url", redactURL(cfg.DatabaseURL))
	return c, nil
}

// New wraps an already open database. dialectName is "sqlite" or
// "postgres". Close does not close db.
func New(db *sql.DB, dialectName string, opts ...Option) (*Client, error) {
	cfg := newConfig(opts)
	cfg.Dialect = dialectName

	d, err := dialect.Get(dialectName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialectName)
	}
	return newClient(db, d, cfg)
}

func newConfig(opts []Option) *Config {
	cfg := &Config{
		Timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

func newClient(db *sql.DB, d dialect.Dialect, cfg *Config) (*Client, error) {
	var diffOpts []engine.DiffOption
	for _, co := range cfg.comparers {
		family, ok := ast.ParseTypeFamily(co.family)
		if !ok {
			return nil, fmt.Errorf("tabula: unknown type family %q", co.family)
		}
		diffOpts = append(diffOpts, engine.WithDefaultComparer(family, co.fn))
	}

	var col *metrics.Collector
	if cfg.MetricsNamespace != "" {
		col = metrics.New(cfg.MetricsNamespace)
	}

	reg := registry.New()
	m, err := engine.NewMigrator(db, d, reg,
		engine.WithLogger(cfg.Logger),
		engine.WithMetrics(col),
		engine.WithConcurrency(cfg.Concurrency),
		engine.WithDiffOptions(diffOpts...),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		db:       db,
		dialect:  d,
		config:   cfg,
		registry: reg,
		migrator: m,
		metrics:  col,
	}, nil
}

// Close closes the database connection if the Client opened it.
func (c *Client) Close() error {
	if c.db != nil && c.ownsDB {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying database connection.
// Use with caution - direct database access bypasses declared-shape checks.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the dialect name (postgres, sqlite).
func (c *Client) Dialect() string {
	return c.dialect.Name()
}

// Metrics returns the Prometheus registry, or nil without WithMetrics.
func (c *Client) Metrics() *prometheus.Registry {
	return c.metrics.Registry()
}

// MetricsHandler serves the collected metrics in the Prometheus text
// format. Without WithMetrics it responds 404.
func (c *Client) MetricsHandler() http.Handler {
	if c.metrics == nil {
		return http.NotFoundHandler()
	}
	return c.metrics.Handler()
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, c.config.Timeout)
}

// -----------------------------------------------------------------------------
// Connection helpers
// -----------------------------------------------------------------------------

// detectDialect determines the database dialect from the URL.
func detectDialect(url string) string {
	url = strings.ToLower(url)

	switch {
	case strings.HasPrefix(url, "postgres://"),
		strings.HasPrefix(url, "postgresql://"):
		return "postgres"

	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "sqlite3://"),
		strings.HasPrefix(url, "file:"),
		url == ":memory:":
		return "sqlite"

	case strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return "sqlite"
	}

	// Default to postgres if no match
	return "postgres"
}

// openDatabase opens a database handle for the dialect. Drivers are
// registered by the importing program.
func openDatabase(url, dialectName string) (*sql.DB, error) {
	switch dialectName {
	case "postgres":
		return sql.Open("postgres", url)
	case "sqlite":
		return sql.Open("sqlite", convertSQLiteURL(url))
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialectName)
	}
}

// configurePool applies pool settings. SQLite gets a single connection so
// in-memory databases are shared and writers never contend for the lock.
func configurePool(db *sql.DB, dialectName string) {
	if dialectName == "sqlite" {
		db.SetMaxOpenConns(1)
		return
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// convertSQLiteURL strips sqlite:// style schemes. file: URIs pass through
// since the driver understands their query parameters.
func convertSQLiteURL(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	url = strings.TrimPrefix(url, "sqlite3://")
	return url
}

// redactURL removes the password from a database URL for logging.
func redactURL(url string) string {
	start := strings.Index(url, "://")
	if start == -1 {
		return url
	}
	start += 3

	end := strings.Index(url[start:], "@")
	if end == -1 {
		return url
	}
	end += start

	credentials := url[start:end]
	if colonIdx := strings.Index(credentials, ":"); colonIdx != -1 {
		user := credentials[:colonIdx]
		return url[:start] + user + ":***@" + url[end+1:]
	}

	return url
}
