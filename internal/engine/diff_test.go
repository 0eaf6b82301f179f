package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
	"github.com/hlop3z/tabula/internal/registry"
)

// table1Spec mirrors the first table of the acceptance scenario.
func table1Spec() registry.TableSpec {
	return registry.TableSpec{
		ID: "test_id",
		Columns: registry.ColumnSpecs{
			{Name: "value1", Type: "VARCHAR(32)", Null: registry.Nullable(false), Default: "value1"},
			{Name: "value2", Type: "INT(11)", Null: registry.Nullable(false), Default: 2},
			{Name: "value3", Type: "VARCHAR(255)", Null: registry.Nullable(false), Default: "value3"},
		},
		Index: registry.IndexSpec{
			Key:    registry.IndexGroup{{Name: "value1", Columns: []string{"value1"}}},
			Unique: registry.IndexGroup{{Name: "pair", Columns: []string{"value2", "value3"}}},
		},
		Delete: "logical",
	}
}

func expanded(t *testing.T, name string, spec registry.TableSpec) *ast.TableDef {
	t.Helper()
	def, err := spec.Build(name)
	require.NoError(t, err)
	return Expand(def, dialect.SQLite())
}

func opTypes(ops []ast.Operation) []ast.OpType {
	out := make([]ast.OpType, len(ops))
	for i, op := range ops {
		out[i] = op.Type()
	}
	return out
}

func TestExpand(t *testing.T) {
	d := expanded(t, "t1", table1Spec())

	assert.Equal(t, []string{"test_id", "value1", "value2", "value3", "deleted_at", "deleted_by"}, d.ColumnNames())
	assert.True(t, d.Columns[0].PrimaryKey)
	assert.Equal(t, "DATETIME", d.GetColumn("deleted_at").Type)
	assert.True(t, d.GetColumn("deleted_by").Nullable)
	assert.Equal(t, "t1_value1", d.GetIndex("value1").Physical)
}

func TestExpand_Postgres(t *testing.T) {
	def, err := table1Spec().Build("t1")
	require.NoError(t, err)
	d := Expand(def, dialect.Postgres())

	assert.Equal(t, "TIMESTAMP", d.GetColumn("deleted_at").Type)
	assert.Equal(t, "BIGINT", d.GetColumn("deleted_by").Type)
}

func TestDiff_CreateWhenMissing(t *testing.T) {
	d := expanded(t, "t1", table1Spec())

	ops, err := Diff(d, nil)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	create, ok := ops[0].(*ast.CreateTable)
	require.True(t, ok)
	assert.Equal(t, "test_id", create.PrimaryKey)
	assert.Len(t, create.Columns, 5, "user columns plus soft-delete columns")
	assert.Len(t, create.Indexes, 2)
}

func TestDiff_NoChanges(t *testing.T) {
	d := expanded(t, "t1", table1Spec())
	live := ast.Apply(nil, mustDiff(t, d, nil)...)

	ops, err := Diff(d, live)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDiff_AddColumn(t *testing.T) {
	spec := table1Spec()
	live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", spec), nil)...)

	spec.Columns = append(spec.Columns, registry.ColumnSpec{Name: "value4", Type: "INT(11)", Null: registry.Nullable(false), Default: 4})
	ops, err := Diff(expanded(t, "t1", spec), live)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	add := ops[0].(*ast.AddColumn)
	assert.Equal(t, "value4", add.Column.Name)
}

func TestDiff_ModifyColumn(t *testing.T) {
	spec := table1Spec()
	live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", spec), nil)...)

	spec.Columns[0].Type = "VARCHAR(64)"
	spec.Columns[1].Null = registry.Nullable(true)
	ops, err := Diff(expanded(t, "t1", spec), live)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	m0 := ops[0].(*ast.ModifyColumn)
	assert.Equal(t, "value1", m0.Column.Name)
	assert.Equal(t, "VARCHAR(32)", m0.Previous.Type)
	m1 := ops[1].(*ast.ModifyColumn)
	assert.Equal(t, "value2", m1.Column.Name)
	assert.True(t, m1.Column.Nullable)
}

func TestDiff_DefaultCoercion(t *testing.T) {
	d := expanded(t, "t1", table1Spec())
	live := ast.Apply(nil, mustDiff(t, d, nil)...)

	// Catalogs report defaults as text.
	live.GetColumn("value2").Default = "2"
	ops, err := Diff(d, live)
	require.NoError(t, err)
	assert.Empty(t, ops)

	live.GetColumn("value2").Default = "3"
	ops, err = Diff(d, live)
	require.NoError(t, err)
	assert.Equal(t, []ast.OpType{ast.OpModifyColumn}, opTypes(ops))
}

func TestDiff_DefaultRemoved(t *testing.T) {
	spec := table1Spec()
	live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", spec), nil)...)

	spec.Columns[2].Default = nil
	ops, err := Diff(expanded(t, "t1", spec), live)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.False(t, ops[0].(*ast.ModifyColumn).Column.DefaultSet)
}

func TestDiff_CustomDefaultComparer(t *testing.T) {
	d := expanded(t, "t1", table1Spec())
	live := ast.Apply(nil, mustDiff(t, d, nil)...)
	live.GetColumn("value1").Default = "VALUE1"

	ops, err := Diff(d, live)
	require.NoError(t, err)
	assert.Len(t, ops, 1)

	caseless := func(a, b any) bool {
		sa, _ := ast.CanonicalValue(a)
		sb, _ := ast.CanonicalValue(b)
		return strings.EqualFold(sa, sb)
	}
	ops, err = Diff(d, live, WithDefaultComparer(ast.FamilyText, caseless))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDiff_TypeNormalizer(t *testing.T) {
	def, err := table1Spec().Build("t1")
	require.NoError(t, err)
	pg := dialect.Postgres()
	d := Expand(def, pg)

	live := ast.Apply(nil, mustDiff(t, d, nil)...)
	live.GetColumn("value1").Type = "character varying(32)"
	live.GetColumn("value2").Type = "integer"
	live.GetColumn("deleted_at").Type = "timestamp without time zone"
	live.GetColumn("deleted_by").Type = "bigint"

	ops, err := Diff(d, live, WithTypeNormalizer(pg.NormalizeType))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDiff_DropColumnAndUnmanagedIndex(t *testing.T) {
	d := expanded(t, "t1", table1Spec())
	live := ast.Apply(nil, mustDiff(t, d, nil)...)
	live.Columns = append(live.Columns, &ast.ColumnDef{Name: "legacy", Type: "TEXT", Nullable: true})
	live.Indexes = append(live.Indexes, &ast.IndexDef{Name: "legacy_idx", Columns: []string{"legacy"}, Physical: "legacy_idx"})

	ops, err := Diff(d, live)
	require.NoError(t, err)
	assert.Equal(t, []ast.OpType{ast.OpDropIndex, ast.OpDropColumn}, opTypes(ops))
	assert.Equal(t, "legacy_idx", ops[0].(*ast.DropIndex).Index.Physical)
	assert.Equal(t, "legacy", ops[1].(*ast.DropColumn).Name)
}

func TestDiff_IndexRedefinition(t *testing.T) {
	spec := table1Spec()
	live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", spec), nil)...)

	spec.Index.Key[0].Columns = []string{"value1", "value2"}
	ops, err := Diff(expanded(t, "t1", spec), live)
	require.NoError(t, err)
	require.Equal(t, []ast.OpType{ast.OpDropIndex, ast.OpAddIndex}, opTypes(ops))
	assert.Equal(t, []string{"value1"}, ops[0].(*ast.DropIndex).Index.Columns)
	assert.Equal(t, []string{"value1", "value2"}, ops[1].(*ast.AddIndex).Index.Columns)
}

func TestDiff_UniquenessChange(t *testing.T) {
	spec := table1Spec()
	live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", spec), nil)...)

	spec.Index.Key = append(spec.Index.Key, spec.Index.Unique[0])
	spec.Index.Unique = nil
	ops, err := Diff(expanded(t, "t1", spec), live)
	require.NoError(t, err)
	assert.Equal(t, []ast.OpType{ast.OpDropIndex, ast.OpAddIndex}, opTypes(ops))
	assert.False(t, ops[1].(*ast.AddIndex).Index.Unique)
}

func TestDiff_PolicyLogicalToPhysical(t *testing.T) {
	spec := table1Spec()
	live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", spec), nil)...)

	spec.Delete = "physical"
	ops, err := Diff(expanded(t, "t1", spec), live)
	require.NoError(t, err)
	require.Equal(t, []ast.OpType{ast.OpDropColumn, ast.OpDropColumn}, opTypes(ops))
	assert.Equal(t, ast.ColumnDeletedAt, ops[0].(*ast.DropColumn).Name)
	assert.Equal(t, ast.ColumnDeletedBy, ops[1].(*ast.DropColumn).Name)
}

func TestDiff_Order(t *testing.T) {
	spec := table1Spec()
	live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", spec), nil)...)
	live.Columns = append(live.Columns, &ast.ColumnDef{Name: "gone", Type: "TEXT", Nullable: true})

	spec.Columns[0].Type = "TEXT"
	spec.Columns = append(spec.Columns, registry.ColumnSpec{Name: "value4", Type: "TEXT"})
	spec.Index.Key = registry.IndexGroup{{Name: "value4", Columns: []string{"value4"}}}
	ops, err := Diff(expanded(t, "t1", spec), live)
	require.NoError(t, err)

	assert.Equal(t, []ast.OpType{
		ast.OpDropIndex,
		ast.OpDropColumn,
		ast.OpModifyColumn,
		ast.OpAddColumn,
		ast.OpAddIndex,
	}, opTypes(ops))
}

func TestDiff_Idempotent(t *testing.T) {
	base := table1Spec()
	variants := map[string]func(*registry.TableSpec){
		"same":     func(*registry.TableSpec) {},
		"add":      func(s *registry.TableSpec) { s.Columns = append(s.Columns, registry.ColumnSpec{Name: "value4", Type: "INT(11)"}) },
		"drop":     func(s *registry.TableSpec) { s.Columns = s.Columns[:2]; s.Index.Unique = nil },
		"modify":   func(s *registry.TableSpec) { s.Columns[1].Default = 7 },
		"physical": func(s *registry.TableSpec) { s.Delete = "physical" },
		"reindex":  func(s *registry.TableSpec) { s.Index.Key[0].Columns = []string{"value2"} },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			live := ast.Apply(nil, mustDiff(t, expanded(t, "t1", base), nil)...)

			spec := table1Spec()
			mutate(&spec)
			declared := expanded(t, "t1", spec)

			after := ast.Apply(live, mustDiff(t, declared, live)...)
			ops, err := Diff(declared, after)
			require.NoError(t, err)
			assert.Empty(t, ops)
		})
	}
}

func TestDiff_PrimaryKeyConflict(t *testing.T) {
	d := expanded(t, "t1", table1Spec())
	live := ast.Apply(nil, mustDiff(t, d, nil)...)
	live.PrimaryKey = "id"

	_, err := Diff(d, live)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrPrimaryKeyConflict))
}

func TestDefaultComparers(t *testing.T) {
	assert.True(t, NumericDefaults(2, "2"))
	assert.True(t, NumericDefaults("2.50", 2.5))
	assert.False(t, NumericDefaults(2, "3"))
	assert.True(t, NumericDefaults("abc", "abc"))

	assert.True(t, BooleanDefaults(true, "1"))
	assert.True(t, BooleanDefaults("false", "f"))
	assert.False(t, BooleanDefaults(true, "0"))

	assert.True(t, ExactDefaults("x", "x"))
	assert.False(t, ExactDefaults("x", "X"))
}

func mustDiff(t *testing.T, declared, live *ast.TableDef) []ast.Operation {
	t.Helper()
	ops, err := Diff(declared, live)
	require.NoError(t, err)
	return ops
}
