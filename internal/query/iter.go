package query

import (
	"context"
	"iter"
	"slices"

	"github.com/hlop3z/tabula/internal/alerr"
)

// Pages iterates matching rows in primary key order, size rows per page.
// Each page is one query of the form "pk > last ORDER BY pk LIMIT size", so
// rows deleted or inserted between pages neither shift nor repeat the walk.
// A page is fully read and its result set closed before it is yielded.
// Ordering clauses are replaced by the primary key; Offset applies to the
// first page and Limit caps the total.
func (b *Builder) Pages(ctx context.Context, size int) iter.Seq2[[]Row, error] {
	return func(yield func([]Row, error) bool) {
		if b.err != nil {
			yield(nil, b.err)
			return
		}
		if size <= 0 {
			yield(nil, alerr.Newf(alerr.ErrInvalidValue, "page size must be positive, got %d", size).
				WithTable(b.table))
			return
		}

		pk := b.schema.PrimaryKey
		base := b.Clone()
		base.orders = []order{{column: pk}}
		base.limit, base.offset = 0, 0
		if len(base.columns) > 0 && !slices.Contains(base.columns, pk) {
			base.columns = append(base.columns, pk)
		}

		var (
			last      any
			remaining = b.limit
		)
		for {
			n := size
			if b.limit > 0 {
				if remaining <= 0 {
					return
				}
				n = min(size, remaining)
			}

			page := base.Clone().Limit(n)
			if last == nil {
				page.offset = b.offset
			} else {
				page.preds = append(page.preds, predicate{column: pk, op: opGt, value: last})
			}

			rows, err := page.Get(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(rows) == 0 {
				return
			}
			last = rows[len(rows)-1][pk]
			remaining -= len(rows)

			if !yield(rows, nil) {
				return
			}
			if len(rows) < n {
				return
			}
		}
	}
}

// Rows iterates matching rows one at a time, fetching size rows per query.
func (b *Builder) Rows(ctx context.Context, size int) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for page, err := range b.Pages(ctx, size) {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, row := range page {
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}

// Chunk calls fn with successive pages of at most size rows. Returning
// false from fn stops the walk; no further page is fetched.
func (b *Builder) Chunk(ctx context.Context, size int, fn func([]Row) bool) error {
	for page, err := range b.Pages(ctx, size) {
		if err != nil {
			return err
		}
		if !fn(page) {
			return nil
		}
	}
	return nil
}

// Each calls fn for every matching row, fetching size rows per query.
// Returning false from fn stops the walk.
func (b *Builder) Each(ctx context.Context, size int, fn func(Row) bool) error {
	for row, err := range b.Rows(ctx, size) {
		if err != nil {
			return err
		}
		if !fn(row) {
			return nil
		}
	}
	return nil
}
