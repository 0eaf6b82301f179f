package introspect

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/dialect"
)

func newPostgresMock(t *testing.T) (Introspector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	in, err := New(db, dialect.Postgres())
	require.NoError(t, err)
	return in, mock
}

func TestPostgres_TableExists(t *testing.T) {
	in, mock := newPostgresMock(t)

	mock.ExpectQuery("FROM pg_tables").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM pg_tables").
		WithArgs("t9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := in.TableExists(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = in.TableExists(context.Background(), "t9")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_IntrospectTable(t *testing.T) {
	in, mock := newPostgresMock(t)

	mock.ExpectQuery("FROM pg_attribute").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "format_type", "attnotnull", "default", "is_pk"}).
			AddRow("test_id", "bigint", true, "nextval('t1_test_id_seq'::regclass)", true).
			AddRow("value1", "character varying(32)", true, "'value1'::character varying", false).
			AddRow("value2", "integer", true, "2", false).
			AddRow("flag", "boolean", false, nil, false))
	mock.ExpectQuery("FROM pg_index").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"relname", "indisunique", "attname"}).
			AddRow("t1_pair", true, "value2").
			AddRow("t1_pair", true, "value1").
			AddRow("t1_value1", false, "value1"))

	def, err := in.IntrospectTable(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, def)

	assert.Equal(t, "test_id", def.PrimaryKey)
	assert.Equal(t, []string{"test_id", "value1", "value2", "flag"}, def.ColumnNames())
	assert.False(t, def.GetColumn("test_id").DefaultSet)

	v1 := def.GetColumn("value1")
	assert.Equal(t, "character varying(32)", v1.Type)
	assert.False(t, v1.Nullable)
	assert.Equal(t, "value1", v1.Default)

	assert.Equal(t, "2", def.GetColumn("value2").Default)
	assert.True(t, def.GetColumn("flag").Nullable)
	assert.False(t, def.GetColumn("flag").DefaultSet)

	require.Len(t, def.Indexes, 2)
	assert.Equal(t, &ast.IndexDef{Name: "pair", Columns: []string{"value2", "value1"}, Unique: true, Physical: "t1_pair"}, def.Indexes[0])
	assert.Equal(t, &ast.IndexDef{Name: "value1", Columns: []string{"value1"}, Physical: "t1_value1"}, def.Indexes[1])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MissingTable(t *testing.T) {
	in, mock := newPostgresMock(t)

	mock.ExpectQuery("FROM pg_attribute").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "format_type", "attnotnull", "default", "is_pk"}))

	def, err := in.IntrospectTable(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, def)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryError(t *testing.T) {
	in, mock := newPostgresMock(t)

	mock.ExpectQuery("FROM pg_attribute").
		WithArgs("t1").
		WillReturnError(errors.New("connection reset"))

	_, err := in.IntrospectTable(context.Background(), "t1")
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrIntrospection))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "table: t1")
}
