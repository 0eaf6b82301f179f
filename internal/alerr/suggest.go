package alerr

import "fmt"

func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// ClosestColumn returns the closest column name within an edit distance of 3.
func ClosestColumn(input string, columns []string) (string, bool) {
	const maxDistance = 3

	best := ""
	bestDist := maxDistance + 1
	for _, c := range columns {
		if d := levenshteinDistance(input, c); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best, bestDist <= maxDistance
}

// UnknownColumn reports a reference to a column the table does not declare,
// with a "did you mean" hint when a close match exists.
func UnknownColumn(table, column string, known []string) *Error {
	e := New(ErrInvalidReference, "unknown column").
		WithTable(table).
		WithColumn(column)
	if match, ok := ClosestColumn(column, known); ok {
		e.WithHelp(fmt.Sprintf("did you mean '%s'?", match))
	}
	return e
}
