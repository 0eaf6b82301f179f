package testutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/tabula/internal/alerr"
)

var whitespace = regexp.MustCompile(`\s+`)

// -----------------------------------------------------------------------------
// SQL Assertions
// -----------------------------------------------------------------------------

// NormalizeSQL collapses whitespace runs, trims, and upper-cases a statement.
func NormalizeSQL(sql string) string {
	return strings.ToUpper(strings.TrimSpace(whitespace.ReplaceAllString(sql, " ")))
}

// AssertSQL compares two SQL strings after normalizing them.
func AssertSQL(t *testing.T, got, want string) {
	t.Helper()
	assert.Equal(t, NormalizeSQL(want), NormalizeSQL(got), "SQL mismatch\noriginal got:\n%s", got)
}

// AssertSQLContains checks that sql contains substr, both normalized.
func AssertSQLContains(t *testing.T, sql, substr string) {
	t.Helper()
	assert.Contains(t, NormalizeSQL(sql), NormalizeSQL(substr))
}

// -----------------------------------------------------------------------------
// Error Assertions
// -----------------------------------------------------------------------------

// AssertError checks that err carries the expected error code.
func AssertError(t *testing.T, err error, code alerr.Code) {
	t.Helper()
	require.Error(t, err, "expected error with code %s", code)
	assert.Equal(t, code, alerr.GetErrorCode(err), "error: %v", err)
}

// -----------------------------------------------------------------------------
// Files
// -----------------------------------------------------------------------------

// WriteFile writes content to a file, creating parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
