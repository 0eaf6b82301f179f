package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/tabula/internal/ast"
)

func sampleTable() *ast.TableDef {
	return &ast.TableDef{
		Name:       "t1",
		PrimaryKey: "test_id",
		Columns: []*ast.ColumnDef{
			{Name: "value1", Type: "VARCHAR(32)", Default: "value1", DefaultSet: true},
			{Name: "value2", Type: "INT(11)", Default: 2, DefaultSet: true},
		},
		Indexes: []*ast.IndexDef{
			{Name: "value1", Columns: []string{"value1"}, Physical: "t1_value1"},
		},
		Delete: ast.DeleteLogical,
	}
}

func TestComputeSchemaHash_Empty(t *testing.T) {
	hash, err := ComputeSchemaHash()
	require.NoError(t, err)
	assert.NotEmpty(t, hash.Root)
	assert.Empty(t, hash.Tables)
}

func TestComputeTableHash_Deterministic(t *testing.T) {
	a, err := ComputeTableHash(sampleTable())
	require.NoError(t, err)
	b, err := ComputeTableHash(sampleTable())
	require.NoError(t, err)

	assert.Equal(t, a.Hash, b.Hash)
	assert.Len(t, a.Columns, 2)
	assert.Len(t, a.Indexes, 1)
}

func TestComputeTableHash_OrderInsensitive(t *testing.T) {
	a := sampleTable()
	b := sampleTable()
	b.Columns[0], b.Columns[1] = b.Columns[1], b.Columns[0]

	ha, err := ComputeTableHash(a)
	require.NoError(t, err)
	hb, err := ComputeTableHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha.Hash, hb.Hash)
}

func TestComputeTableHash_DetectsChanges(t *testing.T) {
	base, err := ComputeTableHash(sampleTable())
	require.NoError(t, err)

	mutations := map[string]func(*ast.TableDef){
		"type":     func(d *ast.TableDef) { d.Columns[0].Type = "VARCHAR(64)" },
		"nullable": func(d *ast.TableDef) { d.Columns[0].Nullable = true },
		"default":  func(d *ast.TableDef) { d.Columns[1].Default = 3 },
		"column":   func(d *ast.TableDef) { d.Columns = append(d.Columns, &ast.ColumnDef{Name: "value4", Type: "TEXT"}) },
		"index":    func(d *ast.TableDef) { d.Indexes[0].Unique = true },
		"policy":   func(d *ast.TableDef) { d.Delete = ast.DeletePhysical },
		"pk":       func(d *ast.TableDef) { d.PrimaryKey = "id" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			def := sampleTable()
			mutate(def)
			h, err := ComputeTableHash(def)
			require.NoError(t, err)
			assert.NotEqual(t, base.Hash, h.Hash)
		})
	}
}

func TestComputeTableHash_DefaultSpelling(t *testing.T) {
	a := sampleTable()
	b := sampleTable()
	b.Columns[1].Default = "2"

	ha, err := ComputeTableHash(a)
	require.NoError(t, err)
	hb, err := ComputeTableHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha.Hash, hb.Hash)
}

func TestComputeSchemaHash_Root(t *testing.T) {
	one, err := ComputeSchemaHash(sampleTable())
	require.NoError(t, err)

	other := sampleTable()
	other.Name = "t2"
	two, err := ComputeSchemaHash(sampleTable(), other)
	require.NoError(t, err)

	assert.NotEqual(t, one.Root, two.Root)
	assert.Len(t, two.Tables, 2)
	assert.Contains(t, two.Tables, "t2")
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	def := sampleTable()

	changed, hash, err := tr.Changed(def)
	require.NoError(t, err)
	assert.True(t, changed, "unknown table is changed")

	tr.Record(def.Name, hash)
	changed, _, err = tr.Changed(def)
	require.NoError(t, err)
	assert.False(t, changed)

	known, ok := tr.Known(def.Name)
	assert.True(t, ok)
	assert.Equal(t, hash, known)

	def.Columns[0].Type = "TEXT"
	changed, _, err = tr.Changed(def)
	require.NoError(t, err)
	assert.True(t, changed)

	tr.Forget(def.Name)
	_, ok = tr.Known(def.Name)
	assert.False(t, ok)
}
