// Package registry holds the declared table descriptors of one application
// session. It is an explicit object handed to the migrator and the query
// builders; there is no package-level state.
package registry

import (
	"slices"
	"sync"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
)

// Registry maps table names to their latest declared descriptor.
// It is safe for concurrent use.
type Registry struct {
	tables map[string]*ast.TableDef
	mu     sync.RWMutex
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		tables: make(map[string]*ast.TableDef),
	}
}

// Setup parses spec into a descriptor for name and stores it, replacing any
// earlier declaration of the same table.
func (r *Registry) Setup(name string, spec TableSpec) (*ast.TableDef, error) {
	def, err := spec.Build(name)
	if err != nil {
		return nil, err
	}
	if err := r.Register(def); err != nil {
		return nil, err
	}
	return def.Clone(), nil
}

// Register validates def and stores it, replacing any earlier declaration.
func (r *Registry) Register(def *ast.TableDef) error {
	if def == nil {
		return alerr.New(alerr.ErrSchemaInvalid, "table definition cannot be nil")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[def.Name] = def.Clone()
	return nil
}

// Get returns a copy of the descriptor for name.
func (r *Registry) Get(name string) (*ast.TableDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tables[name]
	if !ok {
		return nil, false
	}
	return def.Clone(), true
}

// Schema returns the descriptor for name, or the implicit shape of an
// undeclared table: primary key "<name>_id" and no delete policy.
func (r *Registry) Schema(name string) *ast.TableDef {
	if def, ok := r.Get(name); ok {
		return def
	}
	return &ast.TableDef{Name: name, PrimaryKey: ast.DefaultPrimaryKey(name)}
}

// Remove forgets the descriptor for name. It reports whether one existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.tables[name]
	delete(r.tables, name)
	return ok
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of registered tables.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}
