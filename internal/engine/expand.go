// Package engine reconciles live tables with their declared shape.
//
// Reconciliation is stateless: every Ensure introspects the live table,
// diffs it against the expanded descriptor and applies the resulting
// operations in a fixed order.
package engine

import (
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
)

// pkColumnType is the nominal type of the implicit key column in expanded
// and simulated shapes. The key is compared by name only.
const pkColumnType = "INTEGER"

// Expand returns the full declared shape of def: the primary key column
// first, user columns in declared order, then the soft-delete columns when
// the policy is logical. Index physical names are filled in.
func Expand(def *ast.TableDef, d dialect.Dialect) *ast.TableDef {
	out := &ast.TableDef{
		Name:       def.Name,
		PrimaryKey: def.PrimaryKey,
		Delete:     def.Delete,
	}
	if out.PrimaryKey == "" {
		out.PrimaryKey = ast.DefaultPrimaryKey(def.Name)
	}

	out.Columns = append(out.Columns, &ast.ColumnDef{
		Name:       out.PrimaryKey,
		Type:       pkColumnType,
		PrimaryKey: true,
	})
	for _, col := range def.Columns {
		if col.PrimaryKey || col.Name == out.PrimaryKey {
			continue
		}
		out.Columns = append(out.Columns, col.Clone())
	}
	if def.SoftDeletes() {
		out.Columns = append(out.Columns,
			&ast.ColumnDef{Name: ast.ColumnDeletedAt, Type: d.DeletedAtType(), Nullable: true},
			&ast.ColumnDef{Name: ast.ColumnDeletedBy, Type: d.DeletedByType(), Nullable: true},
		)
	}

	for _, idx := range def.Indexes {
		cp := idx.Clone()
		if cp.Physical == "" {
			cp.Physical = ast.PhysicalIndexName(def.Name, cp.Name)
		}
		out.Indexes = append(out.Indexes, cp)
	}
	return out
}
