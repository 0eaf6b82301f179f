package query

import (
	"context"
	"database/sql"
)

// Row is one result row keyed by live column name.
type Row map[string]any

// Int64 returns the value of column as an int64 when it holds an integer.
func (r Row) Int64(column string) (int64, bool) {
	switch v := r[column].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}

// String returns the value of column when it holds a string.
func (r Row) String(column string) (string, bool) {
	s, ok := r[column].(string)
	return s, ok
}

type actorKey struct{}

// WithActor returns a context carrying the id recorded in deleted_by by
// logical deletes.
func WithActor(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorFrom returns the actor id stored by WithActor.
func ActorFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorKey{}).(int64)
	return id, ok
}

// scanRows reads and closes rows. []byte values are copied into strings.
// When pk is not named id the key is also exposed as "id".
func scanRows(rows *sql.Rows, pk string, alias bool) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols)+1)
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		if alias {
			if v, ok := row[pk]; ok {
				if _, taken := row[IDAlias]; !taken {
					row[IDAlias] = v
				}
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
