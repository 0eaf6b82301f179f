package engine

import (
	"slices"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
)

// DiffOption configures Diff.
type DiffOption func(*differ)

// WithDefaultComparer overrides how defaults of a type family are compared.
func WithDefaultComparer(family ast.TypeFamily, fn DefaultComparer) DiffOption {
	return func(d *differ) {
		d.comparers[family] = fn
	}
}

// WithTypeNormalizer sets the function applied to both declared and live
// types before they are compared (usually Dialect.NormalizeType).
func WithTypeNormalizer(fn func(string) string) DiffOption {
	return func(d *differ) {
		d.normalize = fn
	}
}

type differ struct {
	comparers map[ast.TypeFamily]DefaultComparer
	normalize func(string) string
}

func newDiffer(opts []DiffOption) *differ {
	d := &differ{
		comparers: defaultComparers(),
		normalize: func(s string) string {
			return strings.ToUpper(strings.Join(strings.Fields(s), " "))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff returns the operations that turn live into declared.
//
// declared must be expanded (see Expand). A nil live yields a single
// CreateTable. Otherwise the result is ordered DropIndex, DropColumn,
// ModifyColumn, AddColumn, AddIndex, and is empty when nothing differs.
// A live primary key with a different name is reported as ErrPrimaryKeyConflict.
func Diff(declared, live *ast.TableDef, opts ...DiffOption) ([]ast.Operation, error) {
	if declared == nil {
		return nil, alerr.New(alerr.ErrSchemaInvalid, "declared table is required")
	}

	ref := ast.TableRef{TableName: declared.Name}

	if live == nil {
		create := &ast.CreateTable{TableRef: ref, PrimaryKey: declared.PrimaryKey}
		for _, col := range declared.Columns {
			if col.PrimaryKey || col.Name == declared.PrimaryKey {
				continue
			}
			create.Columns = append(create.Columns, col.Clone())
		}
		for _, idx := range declared.Indexes {
			create.Indexes = append(create.Indexes, idx.Clone())
		}
		return []ast.Operation{create}, nil
	}

	if live.PrimaryKey != declared.PrimaryKey {
		return nil, alerr.New(alerr.ErrPrimaryKeyConflict, "live primary key differs from the declared one").
			WithTable(declared.Name).
			With("declared", declared.PrimaryKey).
			With("live", live.PrimaryKey).
			WithHelp("primary key renames are not reconciled; rename the column by hand or declare the live name with 'id'")
	}

	d := newDiffer(opts)

	var ops []ast.Operation
	ops = append(ops, d.diffColumns(ref, declared, live)...)
	ops = append(ops, d.diffIndexes(ref, declared, live)...)

	// OpType order is execution order; stable keeps declared order within a kind.
	slices.SortStableFunc(ops, func(a, b ast.Operation) int {
		return int(a.Type()) - int(b.Type())
	})
	return ops, nil
}

func (d *differ) diffColumns(ref ast.TableRef, declared, live *ast.TableDef) []ast.Operation {
	var ops []ast.Operation

	for _, col := range declared.Columns {
		if col.PrimaryKey || col.Name == declared.PrimaryKey {
			continue
		}
		current := live.GetColumn(col.Name)
		if current == nil {
			ops = append(ops, &ast.AddColumn{TableRef: ref, Column: col.Clone()})
			continue
		}
		if !d.sameColumn(col, current) {
			ops = append(ops, &ast.ModifyColumn{TableRef: ref, Column: col.Clone(), Previous: current.Clone()})
		}
	}

	for _, col := range live.Columns {
		if col.PrimaryKey || col.Name == live.PrimaryKey {
			continue
		}
		if !declared.HasColumn(col.Name) {
			ops = append(ops, &ast.DropColumn{TableRef: ref, Name: col.Name})
		}
	}
	return ops
}

func (d *differ) sameColumn(declared, live *ast.ColumnDef) bool {
	if d.normalize(declared.Type) != d.normalize(live.Type) {
		return false
	}
	if declared.Nullable != live.Nullable {
		return false
	}
	return d.sameDefault(declared, live)
}

func (d *differ) sameDefault(declared, live *ast.ColumnDef) bool {
	if declared.DefaultSet != live.DefaultSet {
		return false
	}
	if !declared.DefaultSet {
		return true
	}
	cmp, ok := d.comparers[declared.Family()]
	if !ok {
		cmp = ExactDefaults
	}
	return cmp(declared.Default, live.Default)
}

// diffIndexes matches indexes by logical name. A changed member list,
// uniqueness or object name becomes DropIndex followed by AddIndex.
func (d *differ) diffIndexes(ref ast.TableRef, declared, live *ast.TableDef) []ast.Operation {
	var ops []ast.Operation

	for _, idx := range live.Indexes {
		want := findIndex(declared, idx)
		if want == nil || !want.SameShape(idx) {
			ops = append(ops, &ast.DropIndex{TableRef: ref, Index: idx.Clone()})
		}
	}

	for _, idx := range declared.Indexes {
		current := findIndex(live, idx)
		if current == nil || !current.SameShape(idx) {
			ops = append(ops, &ast.AddIndex{TableRef: ref, Index: idx.Clone()})
		}
	}
	return ops
}

// findIndex returns the index of t with the same logical and object name.
func findIndex(t *ast.TableDef, idx *ast.IndexDef) *ast.IndexDef {
	for _, other := range t.Indexes {
		if other.Name == idx.Name && other.Physical == idx.Physical {
			return other
		}
	}
	return nil
}
