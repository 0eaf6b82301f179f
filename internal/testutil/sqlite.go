package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// SQLiteDSN returns a connection string for a fresh, named in-memory database.
// Connections opened with the same DSN share the database.
func SQLiteDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

// SetupSQLite opens an in-memory SQLite database private to the test.
// The pool is capped at one connection so every statement sees the same
// database and shared-cache table locks never conflict.
// The connection is closed when the test completes.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", SQLiteDSN())
	require.NoError(t, err, "open sqlite")
	db.SetMaxOpenConns(1)

	require.NoError(t, db.Ping(), "ping sqlite")

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// SetupSQLiteFile opens a SQLite database stored at path.
func SetupSQLiteFile(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err, "open sqlite file")
	db.SetMaxOpenConns(1)
	require.NoError(t, db.Ping(), "ping sqlite file")

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// -----------------------------------------------------------------------------
// Catalog assertions
// -----------------------------------------------------------------------------

// AssertTableExists fails the test if table is missing.
func AssertTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	require.True(t, sqliteObjectExists(t, db, "table", table), "table %q should exist", table)
}

// AssertTableNotExists fails the test if table is present.
func AssertTableNotExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	require.False(t, sqliteObjectExists(t, db, "table", table), "table %q should not exist", table)
}

// AssertIndexExists fails the test if the index object is missing.
func AssertIndexExists(t *testing.T, db *sql.DB, index string) {
	t.Helper()
	require.True(t, sqliteObjectExists(t, db, "index", index), "index %q should exist", index)
}

// AssertIndexNotExists fails the test if the index object is present.
func AssertIndexNotExists(t *testing.T, db *sql.DB, index string) {
	t.Helper()
	require.False(t, sqliteObjectExists(t, db, "index", index), "index %q should not exist", index)
}

func sqliteObjectExists(t *testing.T, db *sql.DB, kind, name string) bool {
	t.Helper()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`, kind, name).Scan(&n)
	require.NoError(t, err, "query sqlite_master")
	return n > 0
}

// ColumnNames returns the column names of table in ordinal order.
func ColumnNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	require.NoError(t, err, "table_info %s", table)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

// AssertColumnExists fails the test if table has no column named column.
func AssertColumnExists(t *testing.T, db *sql.DB, table, column string) {
	t.Helper()
	require.Contains(t, ColumnNames(t, db, table), column, "column %s.%s should exist", table, column)
}

// AssertColumnNotExists fails the test if table has a column named column.
func AssertColumnNotExists(t *testing.T, db *sql.DB, table, column string) {
	t.Helper()
	require.NotContains(t, ColumnNames(t, db, table), column, "column %s.%s should not exist", table, column)
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// ExecSQL executes a statement and fails the test on error.
func ExecSQL(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()

	_, err := db.Exec(query, args...)
	require.NoError(t, err, "exec: %s", query)
}

// AssertRowCount fails the test unless table holds exactly expected rows.
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	var n int
	err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&n)
	require.NoError(t, err, "count rows in %s", table)
	require.Equal(t, expected, n, "row count of %s", table)
}
