package tabula

import (
	"context"

	"github.com/hlop3z/tabula/internal/registry"
)

// Setup declares table name, replacing any earlier declaration. It does not
// touch the database; call Ensure to reconcile.
//
//	_, err := client.Setup("users", tabula.TableSpec{
//	    Columns: tabula.ColumnSpecs{
//	        {Name: "email", Type: "VARCHAR(255)", Null: tabula.Nullable(false)},
//	    },
//	    Index:  tabula.IndexSpec{Unique: tabula.IndexGroup{{Name: "email", Columns: []string{"email"}}}},
//	    Delete: "logical",
//	})
func (c *Client) Setup(name string, spec TableSpec) (*TableDef, error) {
	return c.registry.Setup(name, spec)
}

// LoadFile declares every table in the "tables" section of a YAML file
// and returns their names in file order.
func (c *Client) LoadFile(path string) ([]string, error) {
	decls, err := registry.LoadDeclarations(path)
	if err != nil {
		return nil, err
	}
	return c.Declare(decls)
}

// Declare sets up every declaration in order and returns their names. It
// stops at the first invalid one.
func (c *Client) Declare(decls Declarations) ([]string, error) {
	if err := c.registry.SetupAll(decls); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(decls))
	for _, d := range decls {
		names = append(names, d.Name)
	}
	return names, nil
}

// Forget removes the declaration of name. The live table is untouched.
func (c *Client) Forget(name string) bool {
	return c.registry.Remove(name)
}

// Tables returns the declared table names in sorted order.
func (c *Client) Tables() []string {
	return c.registry.Names()
}

// Declared returns the declared descriptor of name.
func (c *Client) Declared(name string) (*TableDef, bool) {
	return c.registry.Get(name)
}

// Ensure brings table in line with its declaration and returns the
// operations applied. A failure part way returns a *MigrationError;
// operations applied before it stay applied and the next Ensure resumes
// from the live state.
func (c *Client) Ensure(ctx context.Context, table string) ([]Operation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	ops, err := c.migrator.Ensure(ctx, table)
	return ops, convertError(err)
}

// EnsureAll reconciles every declared table. Tables are reconciled
// concurrently and independently; the first error is returned with the
// operations applied per table.
func (c *Client) EnsureAll(ctx context.Context) (map[string][]Operation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	applied, err := c.migrator.EnsureAll(ctx)
	return applied, convertError(err)
}

// EnsureChanged reconciles only tables whose declaration changed since
// their last successful Ensure through this Client.
func (c *Client) EnsureChanged(ctx context.Context) (map[string][]Operation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	applied, err := c.migrator.EnsureChanged(ctx)
	return applied, convertError(err)
}

// Plan returns the operations Ensure would apply to table and the SQL it
// would run, without changing anything.
func (c *Client) Plan(ctx context.Context, table string) ([]Operation, []string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	ops, err := c.migrator.Plan(ctx, table)
	if err != nil {
		return nil, nil, convertError(err)
	}
	stmts, err := c.migrator.SQL(ctx, table)
	if err != nil {
		return nil, nil, convertError(err)
	}
	return ops, stmts, nil
}

// Exists reports whether table exists in the database, declared or not.
func (c *Client) Exists(ctx context.Context, table string) (bool, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.migrator.Exists(ctx, table)
}

// Drop removes table from the database if it exists. The declaration, if
// any, is kept so a later Ensure recreates the table.
func (c *Client) Drop(ctx context.Context, table string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.migrator.Drop(ctx, table)
}

// Columns returns the live columns of table in ordinal order, or nil if
// the table does not exist.
func (c *Client) Columns(ctx context.Context, table string) ([]*ColumnDef, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.migrator.Columns(ctx, table)
}

// Describe returns the live shape of table, or nil if it does not exist.
func (c *Client) Describe(ctx context.Context, table string) (*TableDef, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.migrator.Describe(ctx, table)
}

// Fingerprint returns the merkle root over every declared table. Two
// clients with the same declarations report the same fingerprint.
func (c *Client) Fingerprint() (string, error) {
	h, err := c.migrator.Fingerprint()
	if err != nil {
		return "", err
	}
	return h.Root, nil
}
