package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/tabula/internal/alerr"
)

const declarationYAML = `
tables:
  technote_test_table1:
    id: test_id
    columns:
      value2: {type: INT(11), null: false, default: 2}
      value1: {type: VARCHAR(32), null: false, default: value1}
    index:
      key: {value1: [value1]}
    delete: logical
  technote_test_table2:
    columns:
      value1: VARCHAR(32)
      value2: {type: VARCHAR(32), null: true}
      value3: {type: INT(11), default: "0"}
    index:
      unique:
        value: [value1, value2]
        single: value3
    delete: physical
`

func TestDeclarationsYAMLKeepsOrder(t *testing.T) {
	var doc struct {
		Tables Declarations `yaml:"tables"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(declarationYAML), &doc))
	require.Len(t, doc.Tables, 2)
	assert.Equal(t, "technote_test_table1", doc.Tables[0].Name)

	t1 := doc.Tables[0].Spec
	assert.Equal(t, "test_id", t1.ID)
	require.Len(t, t1.Columns, 2)
	assert.Equal(t, "value2", t1.Columns[0].Name)
	assert.Equal(t, 2, t1.Columns[0].Default)
	assert.Equal(t, "value1", t1.Columns[1].Default)
	require.NotNil(t, t1.Columns[0].Null)
	assert.False(t, *t1.Columns[0].Null)

	t2 := doc.Tables[1].Spec
	assert.Equal(t, "VARCHAR(32)", t2.Columns[0].Type)
	assert.Nil(t, t2.Columns[0].Null)
	assert.Equal(t, IndexGroup{
		{Name: "value", Columns: []string{"value1", "value2"}},
		{Name: "single", Columns: []string{"value3"}},
	}, t2.Index.Unique)

	r := New()
	require.NoError(t, r.SetupAll(doc.Tables))
	def, _ := r.Get("technote_test_table2")
	assert.Equal(t, "technote_test_table2_id", def.PrimaryKey)
	assert.True(t, def.Indexes[0].Unique)
}

func TestColumnSpecsRoundTrip(t *testing.T) {
	spec := table1Spec()
	out, err := yaml.Marshal(spec)
	require.NoError(t, err)

	var back TableSpec
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, spec.Columns[0].Name, back.Columns[0].Name)
	assert.Equal(t, spec.Index.Key, back.Index.Key)
}

func TestColumnSpecsRejectsSequence(t *testing.T) {
	var s TableSpec
	err := yaml.Unmarshal([]byte("columns: [a, b]"), &s)
	assert.Error(t, err)
}

func TestColumnSpecsNullKey(t *testing.T) {
	var s TableSpec
	require.NoError(t, yaml.Unmarshal([]byte(`
columns:
  a: {type: TEXT, null: false}
  b: {type: TEXT, null: true, default: null}
  c: {type: TEXT}
`), &s))
	require.Len(t, s.Columns, 3)
	require.NotNil(t, s.Columns[0].Null)
	assert.False(t, *s.Columns[0].Null)
	require.NotNil(t, s.Columns[1].Null)
	assert.True(t, *s.Columns[1].Null)
	assert.Nil(t, s.Columns[1].Default)
	assert.Nil(t, s.Columns[2].Null)

	def, err := s.Build("items")
	require.NoError(t, err)
	assert.False(t, def.GetColumn("a").Nullable)
	assert.True(t, def.GetColumn("b").Nullable)
	assert.True(t, def.GetColumn("c").Nullable)
}

func TestColumnSpecsUnknownField(t *testing.T) {
	var s TableSpec
	err := yaml.Unmarshal([]byte(`columns:
  a: {type: TEXT, nullable: false}
`), &s)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrSchemaInvalid))
	assert.Contains(t, err.Error(), "nullable")
}

func TestLoadDeclarations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabula.yaml")
	require.NoError(t, os.WriteFile(path, []byte(declarationYAML), 0o644))

	decls, err := LoadDeclarations(path)
	require.NoError(t, err)
	assert.Len(t, decls, 2)

	_, err = LoadDeclarations(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, alerr.Is(err, alerr.ErrSchemaInvalid))
}

// -----------------------------------------------------------------------------
// Generic maps
// -----------------------------------------------------------------------------

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec(map[string]any{
		"id": "test_id",
		"columns": map[string]any{
			"value2": map[string]any{"type": "INT(11)", "null": false, "default": 2},
			"value1": map[string]any{"type": "VARCHAR(32)", "null": false, "default": "value1"},
			"value3": "TEXT",
		},
		"index": map[string]any{
			"key":    map[string]any{"value1": []any{"value1"}},
			"unique": map[string]any{"pair": []string{"value1", "value2"}},
		},
		"delete": "logical",
	})
	require.NoError(t, err)

	def, err := spec.Build("technote_test_table1")
	require.NoError(t, err)
	assert.Equal(t, []string{"value1", "value2", "value3"}, def.ColumnNames())
	assert.True(t, def.GetColumn("value3").Nullable)
	assert.Len(t, def.Indexes, 2)
	assert.True(t, def.GetIndex("pair").Unique)
}

func TestParseSpecOrderedColumns(t *testing.T) {
	spec, err := ParseSpec(map[string]any{
		"columns": []any{
			map[string]any{"name": "z", "type": "TEXT"},
			map[string]any{"name": "a", "type": "TEXT"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "z", spec.Columns[0].Name)
	assert.Equal(t, "a", spec.Columns[1].Name)
}

func TestParseSpecErrors(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
	}{
		{"unknown key", map[string]any{"colums": map[string]any{}}},
		{"id not string", map[string]any{"id": 5}},
		{"null not bool", map[string]any{"columns": map[string]any{"a": map[string]any{"type": "TEXT", "null": "no"}}}},
		{"unknown column key", map[string]any{"columns": map[string]any{"a": map[string]any{"typ": "TEXT"}}}},
		{"unknown index kind", map[string]any{"index": map[string]any{"primary": map[string]any{"a": []any{"a"}}}}},
		{"index columns not strings", map[string]any{"index": map[string]any{"key": map[string]any{"a": []any{1}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		spec  TableSpec
		code  alerr.Code
	}{
		{"bad table name", "bad-name", TableSpec{}, alerr.ErrInvalidIdentifier},
		{"bad delete policy", "t", TableSpec{Delete: "soft"}, alerr.ErrSchemaInvalid},
		{"index references unknown column", "t", TableSpec{
			Columns: ColumnSpecs{{Name: "a", Type: "TEXT"}},
			Index:   IndexSpec{Key: IndexGroup{{Name: "b", Columns: []string{"b"}}}},
		}, alerr.ErrInvalidReference},
		{"same index name in both groups", "t", TableSpec{
			Columns: ColumnSpecs{{Name: "a", Type: "TEXT"}},
			Index: IndexSpec{
				Key:    IndexGroup{{Name: "a", Columns: []string{"a"}}},
				Unique: IndexGroup{{Name: "a", Columns: []string{"a"}}},
			},
		}, alerr.ErrSchemaInvalid},
		{"soft delete collision", "t", TableSpec{
			Columns: ColumnSpecs{{Name: "deleted_by", Type: "INTEGER"}},
			Delete:  "logical",
		}, alerr.ErrSoftDeleteCollision},
		{"int default not numeric", "t", TableSpec{
			Columns: ColumnSpecs{{Name: "a", Type: "INT(11)", Default: "two"}},
		}, alerr.ErrSchemaInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Build(tt.table)
			require.Error(t, err)
			assert.True(t, alerr.Is(err, tt.code), "got %v", err)
		})
	}
}
