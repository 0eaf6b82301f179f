// Package alerr provides the coded errors used across tabula.
// Every error carries a stable code, structured context and an optional cause.
package alerr

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Code is a stable, machine-readable error code.
// Format: E{category}{number}.
type Code string

// Error codes organized by category.
const (
	// Descriptor errors (E1xxx) - problems with declared table shapes
	ErrSchemaInvalid       Code = "E1001" // Declared shape is malformed
	ErrNotConfigured       Code = "E1002" // No descriptor registered for the table
	ErrSoftDeleteCollision Code = "E1003" // User column collides with a soft-delete column
	ErrPrimaryKeyConflict  Code = "E1004" // Live primary key differs from the declared one

	// Validation errors (E2xxx) - problems with caller input
	ErrInvalidIdentifier Code = "E2001" // Identifier does not match allowed pattern
	ErrInvalidReference  Code = "E2003" // Reference to a column that does not exist
	ErrTypeMismatchVal   Code = "E2008" // Default value type doesn't match column type
	ErrInvalidValue      Code = "E2010" // Row value rejected before execution
	ErrInvalidOperator   Code = "E2011" // Unsupported where operator

	// Migration errors (E3xxx) - problems while reconciling a table
	ErrMigrationFailed Code = "E3001" // Operation sequence stopped part way

	// SQL errors (E4xxx) - problems with database operations
	ErrSQLExecution   Code = "E4001" // SQL statement failed to execute
	ErrSQLConnection  Code = "E4002" // Database connection failed
	ErrSQLTransaction Code = "E4003" // Transaction operation failed

	// Introspection errors (E6xxx)
	ErrIntrospection    Code = "E6001" // Live schema could not be read
	EUnsupportedDialect Code = "E6003" // Dialect not supported for operation

	// Internal errors (E9xxx)
	EInternalError Code = "E9001"
)

// Error is the standard error type for tabula.
type Error struct {
	code    Code
	message string
	context map[string]any
	cause   error
	stack   string
}

// Error returns the formatted error string.
// Format:
//
//	[E2003] index references unknown column
//	  column: value9
//	  table: users
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Sorted for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// GetStack returns the stack trace captured at construction.
func (e *Error) GetStack() string {
	return e.stack
}

// With adds a key-value pair to the error context.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithTable adds table context to the error.
func (e *Error) WithTable(table string) *Error {
	return e.With("table", table)
}

// WithColumn adds column context to the error.
func (e *Error) WithColumn(name string) *Error {
	return e.With("column", name)
}

// WithSQL adds SQL statement context to the error.
func (e *Error) WithSQL(sql string) *Error {
	return e.With("sql", sql)
}

// WithHelp adds a help suggestion (displayed as "help: ...").
func (e *Error) WithHelp(help string) *Error {
	helps, _ := e.context["helps"].([]string)
	helps = append(helps, help)
	return e.With("helps", helps)
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

func captureStack(skip int) string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}
		b.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return b.String()
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
		stack:   captureStack(3),
	}
}

// Wrapf creates a new Error that wraps an existing error with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the error code from an error chain.
// Returns empty string if no code is found.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae.code
	}

	return ""
}

// Is checks if an error has the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}

// WrapSQL creates an ErrSQLExecution error with table context.
// Example: WrapSQL(err, "introspect columns", "users")
func WrapSQL(err error, op string, table string) *Error {
	e := Wrap(ErrSQLExecution, err, "failed to "+op)
	if table != "" {
		e.WithTable(table)
	}
	return e
}

// NotConfigured reports an operation on a table with no registered descriptor.
func NotConfigured(table string) *Error {
	return New(ErrNotConfigured, "table is not configured").
		WithTable(table).
		WithHelp("register the table with Setup before calling this operation")
}
