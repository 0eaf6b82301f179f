package drift

import (
	"sync"

	"github.com/hlop3z/tabula/internal/ast"
)

// Tracker remembers the fingerprint of each table as of its last successful
// reconciliation. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	hashes map[string]string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{hashes: make(map[string]string)}
}

// Changed reports whether def differs from the recorded state. A table
// with no recorded state is always changed. The computed hash is returned
// so the caller can Record it after applying.
func (t *Tracker) Changed(def *ast.TableDef) (bool, string, error) {
	th, err := ComputeTableHash(def)
	if err != nil {
		return false, "", err
	}
	known, ok := t.Known(def.Name)
	return !ok || known != th.Hash, th.Hash, nil
}

// Record stores hash as the known state of table.
func (t *Tracker) Record(table, hash string) {
	t.mu.Lock()
	t.hashes[table] = hash
	t.mu.Unlock()
}

// Forget drops the known state of table.
func (t *Tracker) Forget(table string) {
	t.mu.Lock()
	delete(t.hashes, table)
	t.mu.Unlock()
}

// Known returns the recorded hash of table, if any.
func (t *Tracker) Known(table string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.hashes[table]
	return h, ok
}
