package engine

import (
	"fmt"

	"github.com/hlop3z/tabula/internal/ast"
)

// ApplyError reports an Ensure that stopped part way. Operations before
// Index were applied and are not rolled back; running Ensure again resumes
// from the live state.
type ApplyError struct {
	Table   string
	Applied []ast.Operation
	Failed  ast.Operation
	Index   int    // Position of Failed in the planned sequence
	SQL     string // Statement that failed, empty if rendering failed
	Cause   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("ensure %s: operation %d (%s) failed after %d applied: %v",
		e.Table, e.Index, e.Failed, len(e.Applied), e.Cause)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}
