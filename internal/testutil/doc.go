// Package testutil provides test helpers for tabula.
//
// This package includes:
//   - In-memory SQLite databases, one per test
//   - PostgreSQL setup for integration runs
//   - Catalog assertions (tables, columns, indexes, row counts)
//   - SQL and error-code assertions
//
// # Build Tags
//
// PostgreSQL tests need a running server and the integration tag:
//
//	go test ./... -tags=integration
//
// # Environment Variables
//
//	POSTGRES_URL - PostgreSQL connection string
//
// # Example Usage
//
//	func TestEnsure(t *testing.T) {
//	    db := testutil.SetupSQLite(t)
//
//	    testutil.ExecSQL(t, db, `CREATE TABLE users (users_id INTEGER PRIMARY KEY)`)
//	    testutil.AssertTableExists(t, db, "users")
//	}
package testutil
