package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/tabula/internal/ast"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()
	def := sampleTable()

	changed, hash, err := tr.Changed(def)
	require.NoError(t, err)
	assert.True(t, changed, "unknown tables are changed")

	_, ok := tr.Known(def.Name)
	assert.False(t, ok)

	tr.Record(def.Name, hash)
	known, ok := tr.Known(def.Name)
	require.True(t, ok)
	assert.Equal(t, hash, known)

	changed, _, err = tr.Changed(def)
	require.NoError(t, err)
	assert.False(t, changed)

	def.Columns[0].Type = "TEXT"
	changed, _, err = tr.Changed(def)
	require.NoError(t, err)
	assert.True(t, changed)

	tr.Forget(def.Name)
	_, ok = tr.Known(def.Name)
	assert.False(t, ok)
}

func TestComputeSchemaHash_Tables(t *testing.T) {
	a := sampleTable()
	b := sampleTable()
	b.Name = "t2"

	h1, err := ComputeSchemaHash(a, b)
	require.NoError(t, err)
	h2, err := ComputeSchemaHash(b, a)
	require.NoError(t, err)
	assert.Equal(t, h1.Root, h2.Root, "table order does not matter")
	assert.Len(t, h1.Tables, 2)

	b.Delete = ast.DeletePhysical
	h3, err := ComputeSchemaHash(a, b)
	require.NoError(t, err)
	assert.NotEqual(t, h1.Root, h3.Root)
	assert.Equal(t, h1.Tables["t1"].Hash, h3.Tables["t1"].Hash)
}
