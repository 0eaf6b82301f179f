// Package tabula is the public API for declaring tables, reconciling them
// with a live database and querying them through a fluent builder.
package tabula

import (
	"errors"
	"fmt"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/engine"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors.
var (
	// ErrMissingDatabaseURL is returned when no database URL is provided.
	ErrMissingDatabaseURL = errors.New("tabula: database URL required")

	// ErrConnectionFailed is returned when the database connection fails.
	ErrConnectionFailed = errors.New("tabula: connection failed")

	// ErrUnsupportedDialect is returned when the database dialect is not supported.
	ErrUnsupportedDialect = errors.New("tabula: unsupported dialect")

	// ErrMigrationFailed is returned when Ensure stops part way.
	ErrMigrationFailed = errors.New("tabula: migration failed")

	// ErrNotConfigured is returned for schema operations on an undeclared table.
	ErrNotConfigured = errors.New("tabula: table not configured")
)

// MigrationError describes an Ensure that stopped part way. Operations
// before the failed one were applied and are not rolled back.
type MigrationError struct {
	// Table is the table being reconciled.
	Table string

	// Applied lists the operations that completed, in order.
	Applied []Operation

	// Operation describes the operation that failed (e.g., "add column t.value4 INT(11) NULL").
	Operation string

	// Position is the index of the failed operation in the plan.
	Position int

	// SQL is the statement that failed, empty if rendering failed.
	SQL string

	// Cause is the underlying error from the database driver.
	Cause error
}

// Error returns a formatted error message.
func (e *MigrationError) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("tabula: ensure %s failed at operation %d (%s): %v\nSQL: %s",
			e.Table, e.Position, e.Operation, e.Cause, e.SQL)
	}
	return fmt.Sprintf("tabula: ensure %s failed at operation %d (%s): %v",
		e.Table, e.Position, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
func (e *MigrationError) Is(target error) bool {
	return target == ErrMigrationFailed
}

// ConnectionError provides detailed information about a database connection error.
type ConnectionError struct {
	// URL is the database URL (with password redacted).
	URL string

	// Dialect is the database dialect (postgres, sqlite).
	Dialect string

	// Cause is the underlying error from the database driver.
	Cause error
}

// Error returns a formatted error message.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tabula: failed to connect to %s database: %v", e.Dialect, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// notConfigured marks coded not-configured errors so errors.Is matches
// ErrNotConfigured while keeping the original message and context.
type notConfigured struct {
	error
}

func (e notConfigured) Unwrap() error { return e.error }

func (e notConfigured) Is(target error) bool { return target == ErrNotConfigured }

// convertError maps internal error types onto the public ones.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	var applyErr *engine.ApplyError
	if errors.As(err, &applyErr) {
		return &MigrationError{
			Table:     applyErr.Table,
			Applied:   applyErr.Applied,
			Operation: applyErr.Failed.String(),
			Position:  applyErr.Index,
			SQL:       applyErr.SQL,
			Cause:     applyErr.Cause,
		}
	}
	if alerr.Is(err, alerr.ErrNotConfigured) {
		return notConfigured{err}
	}
	return err
}
