package tabula

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/testutil"
)

const (
	table1 = "technote_test_table1"
	table2 = "technote_test_table2"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	c, err := New(testutil.SetupSQLite(t), "sqlite", opts...)
	require.NoError(t, err)
	return c
}

func sharedColumns() ColumnSpecs {
	return ColumnSpecs{
		{Name: "value1", Type: "VARCHAR(32)", Null: Nullable(false), Default: "value1"},
		{Name: "value2", Type: "INT(11)", Null: Nullable(false), Default: 2},
		{Name: "value3", Type: "VARCHAR(32)"},
	}
}

func table1Spec() TableSpec {
	return TableSpec{
		ID:      "test_id",
		Columns: sharedColumns(),
		Index:   IndexSpec{Key: IndexGroup{{Name: "value1", Columns: []string{"value1"}}}},
		Delete:  "logical",
	}
}

func table2Spec() TableSpec {
	return TableSpec{
		Columns: sharedColumns(),
		Index: IndexSpec{
			Key:    IndexGroup{{Name: "value1", Columns: []string{"value1"}}},
			Unique: IndexGroup{{Name: "value", Columns: []string{"value1", "value2"}}},
		},
		Delete: "physical",
	}
}

func columnNames(t *testing.T, c *Client, table string) []string {
	t.Helper()
	cols, err := c.Columns(context.Background(), table)
	require.NoError(t, err)
	names := make([]string, 0, len(cols))
	for _, col := range cols {
		names = append(names, col.Name)
	}
	return names
}

// TestScenario runs the declare, reconcile, write, read and delete cycle
// over one logical and one physical table. Steps depend on earlier ones.
func TestScenario(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteClient(t)

	_, err := c.Setup(table1, table1Spec())
	require.NoError(t, err)
	_, err = c.Setup(table2, table2Spec())
	require.NoError(t, err)

	t.Run("tables do not exist", func(t *testing.T) {
		for _, table := range []string{table1, table2} {
			ok, err := c.Exists(ctx, table)
			require.NoError(t, err)
			assert.False(t, ok, table)
		}
	})

	t.Run("ensure creates", func(t *testing.T) {
		for _, table := range []string{table1, table2} {
			ops, err := c.Ensure(ctx, table)
			require.NoError(t, err)
			assert.NotEmpty(t, ops, table)

			ok, err := c.Exists(ctx, table)
			require.NoError(t, err)
			assert.True(t, ok, table)
		}
	})

	t.Run("columns", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]string{"test_id", "value1", "value2", "value3", "deleted_at", "deleted_by"},
			columnNames(t, c, table1))
		assert.ElementsMatch(t,
			[]string{"technote_test_table2_id", "value1", "value2", "value3"},
			columnNames(t, c, table2))
	})

	t.Run("ensure is idempotent", func(t *testing.T) {
		for _, table := range []string{table1, table2} {
			ops, err := c.Ensure(ctx, table)
			require.NoError(t, err)
			assert.Empty(t, ops, table)
		}
	})

	t.Run("redefinition adds a column", func(t *testing.T) {
		spec := table2Spec()
		spec.Columns[1].Default = "2" // same default written as a string
		spec.Columns = append(spec.Columns, ColumnSpec{Name: "value4", Type: "INT(11)"})
		_, err := c.Setup(table2, spec)
		require.NoError(t, err)

		ops, err := c.Ensure(ctx, table2)
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, ast.OpAddColumn, ops[0].Type())
		assert.Contains(t, columnNames(t, c, table2), "value4")
	})

	t.Run("insert", func(t *testing.T) {
		id, err := c.Insert(ctx, table1, map[string]any{"value1": "text1", "value2": 1, "value3": "text3"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, id)

		for i, row := range []map[string]any{
			{"value3": "text1", "value4": 1},
			{"value2": 10, "value3": "text2", "value4": 2},
			{"value2": 20, "value3": "text2", "value4": nil},
			{"value2": 30, "value3": "text2", "value4": 2},
		} {
			id, err := c.Insert(ctx, table2, row)
			require.NoError(t, err)
			assert.EqualValues(t, i+1, id)
		}

		id, err = c.Table(table1).Insert(ctx, map[string]any{"value1": "text10", "value2": 10, "value3": "text30"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, id)

		for i, row := range []map[string]any{
			{"value2": 0, "value3": "text10", "value4": 10},
			{"value2": 100, "value3": "text20", "value4": 20},
			{"value2": 200, "value3": "text20", "value4": nil},
			{"value2": 300, "value3": "text20", "value4": 2},
		} {
			id, err := c.Table(table2).Insert(ctx, row)
			require.NoError(t, err)
			assert.EqualValues(t, i+5, id)
		}
	})

	t.Run("update", func(t *testing.T) {
		n, err := c.Update(ctx, table2, map[string]any{"value3": "text3", "value4": 3}, map[string]any{"id": 1})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = c.Update(ctx, table2, map[string]any{"value3": "text4", "value4": 4}, map[string]any{"id": 10})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		n, err = c.Update(ctx, table2, map[string]any{"value4": nil}, map[string]any{"id": 4})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = c.Table(table2).Where("id", 5).Update(ctx, map[string]any{"value3": "text30", "value4": 30})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = c.Table(table2).Where("id", 10).Update(ctx, map[string]any{"value3": "text40", "value4": 40})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		n, err = c.Table(table2).Where("id", 8).Update(ctx, map[string]any{"value4": nil})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("select", func(t *testing.T) {
		rows, err := c.Select(ctx, table2, map[string]any{"id": 1})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.EqualValues(t, 1, rows[0]["id"])
		assert.Equal(t, "text3", rows[0]["value3"])
		assert.EqualValues(t, 3, rows[0]["value4"])

		rows, err = c.Select(ctx, table2, map[string]any{"id": []any{"in", []int{3, 4}}})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Nil(t, rows[0]["value4"])
		assert.Nil(t, rows[1]["value4"])

		row, err := c.Table(table2).Find(ctx, 5)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.EqualValues(t, 5, row["id"])
		assert.Equal(t, "text30", row["value3"])
		assert.EqualValues(t, 30, row["value4"])

		rows, err = c.Table(table2).WhereIntegerInRaw("id", []int64{7, 8}).Get(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Nil(t, rows[0]["value4"])
		assert.Nil(t, rows[1]["value4"])
	})

	t.Run("select missing", func(t *testing.T) {
		rows, err := c.Select(ctx, table2, map[string]any{"id": 10})
		require.NoError(t, err)
		assert.Empty(t, rows)

		row, err := c.Table(table2).Find(ctx, 10)
		require.NoError(t, err)
		assert.Nil(t, row)
	})

	t.Run("count", func(t *testing.T) {
		for _, tc := range []struct {
			table string
			where map[string]any
			want  int64
		}{
			{table1, nil, 2},
			{table2, nil, 8},
			{table1, map[string]any{"value2": 1}, 1},
		} {
			n, err := c.SelectCount(ctx, tc.table, tc.where)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)

			n, err = c.Table(tc.table).WhereMap(tc.where).Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		}
	})

	t.Run("chunk", func(t *testing.T) {
		calls := 0
		require.NoError(t, c.Table(table2).Chunk(ctx, 2, func(rows []Row) bool {
			assert.Len(t, rows, 2)
			calls++
			return true
		}))
		assert.Equal(t, 4, calls)

		calls = 0
		require.NoError(t, c.Table(table2).Chunk(ctx, 2, func(rows []Row) bool {
			assert.Len(t, rows, 2)
			calls++
			return false
		}))
		assert.Equal(t, 1, calls)
	})

	t.Run("each", func(t *testing.T) {
		calls := 0
		require.NoError(t, c.Table(table2).Each(ctx, 2, func(Row) bool {
			calls++
			return true
		}))
		assert.Equal(t, 8, calls)

		calls = 0
		require.NoError(t, c.Table(table2).Each(ctx, 2, func(Row) bool {
			calls++
			return false
		}))
		assert.Equal(t, 1, calls)
	})

	t.Run("delete", func(t *testing.T) {
		for _, tc := range []struct {
			table string
			id    int
			want  int64
		}{
			{table1, 1, 1},
			{table1, 1, 0},
			{table2, 1, 1},
			{table2, 2, 1},
			{table2, 3, 1},
			{table2, 4, 1},
			{table2, 10, 0},
		} {
			n, err := c.Delete(ctx, tc.table, map[string]any{"id": tc.id})
			require.NoError(t, err)
			assert.Equal(t, tc.want, n, "%s id %d", tc.table, tc.id)
		}

		for _, tc := range []struct {
			table string
			id    int
			found bool
		}{
			{table1, 2, true},
			{table1, 2, false},
			{table2, 5, true},
			{table2, 6, true},
			{table2, 10, false},
		} {
			_, found, err := c.Table(tc.table).DeleteID(ctx, tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.found, found, "%s id %d", tc.table, tc.id)
		}

		n, err := c.Table(table2).WhereIntegerInRaw("id", []int64{7, 8}).Delete(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("deleted rows are gone", func(t *testing.T) {
		for _, table := range []string{table1, table2} {
			rows, err := c.Select(ctx, table, map[string]any{"id": 1})
			require.NoError(t, err)
			assert.Empty(t, rows, table)
		}

		rows, err := c.Table(table1).Where("id", 1).Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)

		row, err := c.Table(table2).Find(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, row)

		// Logical deletes keep the rows.
		testutil.AssertRowCount(t, c.DB(), table1, 2)
		testutil.AssertRowCount(t, c.DB(), table2, 0)
	})

	t.Run("drop", func(t *testing.T) {
		for _, table := range []string{table1, table2} {
			require.NoError(t, c.Drop(ctx, table))
			ok, err := c.Exists(ctx, table)
			require.NoError(t, err)
			assert.False(t, ok, table)
		}
	})
}
