package tabula

import (
	"context"

	"github.com/hlop3z/tabula/internal/query"
)

// Table returns a query builder for table. Declared tables use their
// primary key, delete policy and columns; undeclared tables get the
// implicit "<table>_id" key and no soft deletes.
//
//	rows, err := client.Table("users").
//	    Where("age", ">", 18).
//	    OrderBy("name", "asc").
//	    Get(ctx)
func (c *Client) Table(table string) *Query {
	return query.New(c.db, c.dialect, table, c.registry.Schema(table),
		query.WithLogger(c.config.Logger),
		query.WithMetrics(c.metrics),
	)
}

// Select returns the rows of table matching where. Keys of where are
// columns; values are matched by equality, IN for slices, IS NULL for nil,
// or an explicit operator through Cond or a two-element {op, value} slice.
func (c *Client) Select(ctx context.Context, table string, where map[string]any) ([]Row, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.Table(table).WhereMap(where).Get(ctx)
}

// SelectCount returns the number of rows of table matching where.
func (c *Client) SelectCount(ctx context.Context, table string, where map[string]any) (int64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.Table(table).WhereMap(where).Count(ctx)
}

// Find returns the row of table with primary key id, or nil.
func (c *Client) Find(ctx context.Context, table string, id any) (Row, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.Table(table).Find(ctx, id)
}

// Insert adds row to table and returns the new primary key.
func (c *Client) Insert(ctx context.Context, table string, row map[string]any) (int64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.Table(table).Insert(ctx, row)
}

// Update sets row on every row of table matching where and returns the
// number of rows changed.
func (c *Client) Update(ctx context.Context, table string, row, where map[string]any) (int64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.Table(table).WhereMap(where).Update(ctx, row)
}

// Delete removes the rows of table matching where, softly for tables
// declared with a logical delete policy, and returns how many were removed.
func (c *Client) Delete(ctx context.Context, table string, where map[string]any) (int64, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.Table(table).WhereMap(where).Delete(ctx)
}
