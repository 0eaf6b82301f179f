package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/tabula/internal/alerr"
)

func TestNormalizeSQL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"select * from t", "SELECT * FROM T"},
		{"  SELECT\n\t*  FROM\tt  ", "SELECT * FROM T"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSQL(tt.in))
	}
}

func TestAssertHelpers(t *testing.T) {
	AssertSQL(t, "create  table x", "CREATE TABLE x")
	AssertSQLContains(t, "CREATE TABLE x (a INT)", "table x")
	AssertError(t, alerr.New(alerr.ErrInvalidValue, "bad"), alerr.ErrInvalidValue)
}

func TestSetupSQLite(t *testing.T) {
	db := SetupSQLite(t)

	ExecSQL(t, db, `CREATE TABLE items (items_id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
	ExecSQL(t, db, `CREATE INDEX items_name ON items (name)`)
	ExecSQL(t, db, `INSERT INTO items (name) VALUES (?), (?)`, "a", "b")

	AssertTableExists(t, db, "items")
	AssertTableNotExists(t, db, "missing")
	AssertColumnExists(t, db, "items", "name")
	AssertColumnNotExists(t, db, "items", "other")
	AssertIndexExists(t, db, "items_name")
	AssertIndexNotExists(t, db, "items_other")
	AssertRowCount(t, db, "items", 2)
	assert.Equal(t, []string{"items_id", "name"}, ColumnNames(t, db, "items"))
}

func TestSetupSQLite_Isolated(t *testing.T) {
	a := SetupSQLite(t)
	b := SetupSQLite(t)

	ExecSQL(t, a, `CREATE TABLE only_a (x INTEGER)`)
	AssertTableExists(t, a, "only_a")
	AssertTableNotExists(t, b, "only_a")
}

func TestSetupSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db.sqlite")
	WriteFile(t, filepath.Join(filepath.Dir(path), ".keep"), "")

	db := SetupSQLiteFile(t, path)
	ExecSQL(t, db, `CREATE TABLE t (x INTEGER)`)
	AssertTableExists(t, db, "t")
	require.FileExists(t, path)
}
