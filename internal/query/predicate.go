package query

import (
	"reflect"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/sqlgen"
)

// Cond pairs an operator with its operand, for Where and WhereMap.
type Cond struct {
	Op    string
	Value any
}

const (
	opEq        = "="
	opNe        = "!="
	opNeAlt     = "<>"
	opLt        = "<"
	opLe        = "<="
	opGt        = ">"
	opGe        = ">="
	opLike      = "like"
	opNotLike   = "not like"
	opIn        = "in"
	opNotIn     = "not in"
	opIsNull    = "is null"
	opIsNotNull = "is not null"
)

var operators = map[string]bool{
	opEq: true, opNe: true, opNeAlt: true,
	opLt: true, opLe: true, opGt: true, opGe: true,
	opLike: true, opNotLike: true,
	opIn: true, opNotIn: true,
	opIsNull: true, opIsNotNull: true,
}

// normalizeOp lowercases op and collapses inner whitespace.
func normalizeOp(op string) string {
	return strings.Join(strings.Fields(strings.ToLower(op)), " ")
}

func isOperator(op string) bool {
	return operators[normalizeOp(op)]
}

type predicate struct {
	column string
	op     string
	value  any
	values []any

	// intList marks WhereIntegerInRaw: ints are bound as int64 directly.
	intList bool
	ints    []int64
}

func newPredicate(column, op string, value any) (predicate, error) {
	p := predicate{column: column, op: normalizeOp(op), value: value}

	if p.op == "" {
		switch {
		case value == nil:
			p.op = opIsNull
		case isList(value):
			p.op = opIn
		default:
			p.op = opEq
		}
	}
	if !operators[p.op] {
		return p, alerr.Newf(alerr.ErrInvalidOperator, "unsupported operator %q", op).
			WithColumn(column).
			WithHelp("use one of =, !=, <>, <, <=, >, >=, like, not like, in, not in, is null, is not null")
	}

	switch p.op {
	case opEq:
		if value == nil {
			p.op = opIsNull
		}
	case opNe, opNeAlt:
		if value == nil {
			p.op = opIsNotNull
		}
	case opIn, opNotIn:
		p.values = listValues(value)
	case opIsNull, opIsNotNull:
		p.value = nil
	default:
		if value == nil {
			return p, alerr.Newf(alerr.ErrInvalidValue, "operator %q needs a value", p.op).WithColumn(column)
		}
	}
	return p, nil
}

// isList reports whether v is a slice or array other than []byte.
func isList(v any) bool {
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// listValues flattens a slice or array into []any; a scalar becomes a
// single-element list and nil an empty one.
func listValues(v any) []any {
	if v == nil {
		return nil
	}
	if vs, ok := v.([]any); ok {
		return vs
	}
	if !isList(v) {
		return []any{v}
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func (p predicate) len() int {
	if p.intList {
		return len(p.ints)
	}
	return len(p.values)
}

func (p predicate) write(b *sqlgen.Builder) {
	if (p.op == opIn || p.op == opNotIn) && p.len() == 0 {
		// Empty IN matches nothing; empty NOT IN matches everything.
		if p.op == opIn {
			b.Raw("1 = 0")
		} else {
			b.Raw("1 = 1")
		}
		return
	}

	b.Ident(p.column)
	switch p.op {
	case opIsNull:
		b.Raw(" IS NULL")
	case opIsNotNull:
		b.Raw(" IS NOT NULL")
	case opIn, opNotIn:
		if p.op == opNotIn {
			b.Raw(" NOT IN (")
		} else {
			b.Raw(" IN (")
		}
		if p.intList {
			for i, v := range p.ints {
				if i > 0 {
					b.Comma()
				}
				b.Arg(v)
			}
		} else {
			b.Args(p.values...)
		}
		b.CloseParen()
	case opLike:
		b.Raw(" LIKE ").Arg(p.value)
	case opNotLike:
		b.Raw(" NOT LIKE ").Arg(p.value)
	default:
		b.Raw(" " + p.op + " ").Arg(p.value)
	}
}
