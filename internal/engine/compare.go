package engine

import (
	"strconv"
	"strings"

	"github.com/hlop3z/tabula/internal/ast"
)

// DefaultComparer reports whether a declared default and a live default are
// the same value. Both arguments are non-nil.
type DefaultComparer func(declared, live any) bool

// defaultComparers is keyed by the family of the declared column type.
func defaultComparers() map[ast.TypeFamily]DefaultComparer {
	return map[ast.TypeFamily]DefaultComparer{
		ast.FamilyInteger: NumericDefaults,
		ast.FamilyNumeric: NumericDefaults,
		ast.FamilyBoolean: BooleanDefaults,
	}
}

// NumericDefaults compares values as numbers, so 2 and "2" are equal.
// Values that do not parse fall back to string comparison.
func NumericDefaults(declared, live any) bool {
	a, aok := ast.CanonicalValue(declared)
	b, bok := ast.CanonicalValue(live)
	if !aok || !bok {
		return aok == bok
	}
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return a == b
	}
	return fa == fb
}

// BooleanDefaults compares truthiness: true, "t", "1" and 1 are equal.
func BooleanDefaults(declared, live any) bool {
	a, aok := ast.CanonicalValue(declared)
	b, bok := ast.CanonicalValue(live)
	if !aok || !bok {
		return aok == bok
	}
	ba, okA := ast.ParseBool(a)
	bb, okB := ast.ParseBool(b)
	if !okA || !okB {
		return strings.EqualFold(a, b)
	}
	return ba == bb
}

// ExactDefaults compares the unquoted string form of both values.
func ExactDefaults(declared, live any) bool {
	a, aok := ast.CanonicalValue(declared)
	b, bok := ast.CanonicalValue(live)
	return aok == bok && a == b
}
