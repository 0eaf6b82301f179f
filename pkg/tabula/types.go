package tabula

import (
	"context"

	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/engine"
	"github.com/hlop3z/tabula/internal/query"
	"github.com/hlop3z/tabula/internal/registry"
)

// Declaration types.
type (
	// TableSpec is the declared shape of a table.
	TableSpec = registry.TableSpec
	// ColumnSpec declares one column. Null defaults to true when omitted.
	ColumnSpec = registry.ColumnSpec
	// ColumnSpecs is an ordered list of column declarations.
	ColumnSpecs = registry.ColumnSpecs
	// IndexSpec groups indexes by kind.
	IndexSpec = registry.IndexSpec
	// IndexGroup is an ordered mapping of index name to member columns.
	IndexGroup = registry.IndexGroup
	// NamedIndex is one entry of an IndexGroup.
	NamedIndex = registry.NamedIndex
	// Declarations is an ordered set of named table specs.
	Declarations = registry.Declarations
)

// Schema and row types.
type (
	// TableDef is a table shape, declared or live.
	TableDef = ast.TableDef
	// ColumnDef is one column of a TableDef.
	ColumnDef = ast.ColumnDef
	// Operation is one schema change planned or applied by Ensure.
	Operation = ast.Operation
	// Row is one result row keyed by column name.
	Row = query.Row
	// Cond pairs an explicit operator with a value in a where map.
	Cond = query.Cond
	// Query is a fluent builder bound to one table.
	Query = query.Builder
	// DefaultComparer decides whether a declared and a live default match.
	DefaultComparer = engine.DefaultComparer
)

// Nullable returns a pointer for ColumnSpec.Null.
func Nullable(b bool) *bool {
	return registry.Nullable(b)
}

// WithActor returns a context whose logical deletes record id in deleted_by.
func WithActor(ctx context.Context, id int64) context.Context {
	return query.WithActor(ctx, id)
}

// ParseSpec reads a TableSpec from the generic nested-map form.
func ParseSpec(m map[string]any) (TableSpec, error) {
	return registry.ParseSpec(m)
}
