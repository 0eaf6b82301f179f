package ast

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/hlop3z/tabula/internal/alerr"
)

// Validation messages shared by the definition and operation types.
const (
	msgTableNameRequired  = "table name is required"
	msgColumnNameRequired = "column name is required"
	msgIndexNeedsColumn   = "index must have at least one column"
)

var validIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks that a name is a safe SQL identifier.
func ValidateIdentifier(name string) error {
	if !validIdentifierPattern.MatchString(name) {
		return alerr.New(alerr.ErrInvalidIdentifier,
			fmt.Sprintf("invalid identifier %q; must match [A-Za-z_][A-Za-z0-9_]*", name))
	}
	return nil
}

// DefaultPrimaryKey returns the primary key name used when a table does not
// override it.
func DefaultPrimaryKey(table string) string {
	return table + "_id"
}

// -----------------------------------------------------------------------------
// TableDef
// -----------------------------------------------------------------------------

// TableDef is a table shape. Declared descriptors and introspected live
// snapshots share this type so they can be compared directly.
type TableDef struct {
	Name       string
	PrimaryKey string // Primary key column name
	Columns    []*ColumnDef
	Indexes    []*IndexDef
	Delete     DeletePolicy
}

// GetColumn returns a column by name, or nil if not found.
func (t *TableDef) GetColumn(name string) *ColumnDef {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn returns true if the table has a column with the given name.
func (t *TableDef) HasColumn(name string) bool {
	return t.GetColumn(name) != nil
}

// ColumnNames returns the column names in table order.
func (t *TableDef) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// GetIndex returns an index by logical name, or nil if not found.
func (t *TableDef) GetIndex(name string) *IndexDef {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx
		}
	}
	return nil
}

// SoftDeletes reports whether rows are marked deleted instead of removed.
func (t *TableDef) SoftDeletes() bool {
	return t.Delete == DeleteLogical
}

// Clone returns a deep copy.
func (t *TableDef) Clone() *TableDef {
	if t == nil {
		return nil
	}
	out := &TableDef{
		Name:       t.Name,
		PrimaryKey: t.PrimaryKey,
		Delete:     t.Delete,
		Columns:    make([]*ColumnDef, len(t.Columns)),
		Indexes:    make([]*IndexDef, len(t.Indexes)),
	}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	for i, idx := range t.Indexes {
		out.Indexes[i] = idx.Clone()
	}
	return out
}

// Validate checks a declared descriptor: identifiers, unique column and
// index names, reserved column collisions, index references and defaults.
func (t *TableDef) Validate() error {
	if t.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgTableNameRequired)
	}
	if err := ValidateIdentifier(t.Name); err != nil {
		return err
	}
	if err := ValidateIdentifier(t.PrimaryKey); err != nil {
		return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid primary key name").WithTable(t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if err := c.Validate(); err != nil {
			return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid column").
				WithTable(t.Name).
				WithColumn(c.Name)
		}
		if seen[c.Name] {
			return alerr.New(alerr.ErrSchemaInvalid, "duplicate column name").
				WithTable(t.Name).
				WithColumn(c.Name)
		}
		seen[c.Name] = true

		if c.Name == t.PrimaryKey {
			return alerr.New(alerr.ErrSchemaInvalid, "column collides with the primary key").
				WithTable(t.Name).
				WithColumn(c.Name).
				WithHelp("the primary key column is created automatically; use 'id' to rename it")
		}
		if t.Delete == DeleteLogical && (c.Name == ColumnDeletedAt || c.Name == ColumnDeletedBy) {
			return alerr.New(alerr.ErrSoftDeleteCollision, "column collides with a soft-delete column").
				WithTable(t.Name).
				WithColumn(c.Name)
		}
	}

	known := t.ColumnNames()
	known = append(known, t.PrimaryKey)
	if t.Delete == DeleteLogical {
		known = append(known, ColumnDeletedAt, ColumnDeletedBy)
	}

	names := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if err := idx.Validate(); err != nil {
			return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid index").
				WithTable(t.Name).
				With("index", idx.Name)
		}
		if names[idx.Name] {
			return alerr.New(alerr.ErrSchemaInvalid, "duplicate index name").
				WithTable(t.Name).
				With("index", idx.Name).
				WithHelp("index names must be unique across key and unique groups")
		}
		names[idx.Name] = true

		for _, col := range idx.Columns {
			if !slices.Contains(known, col) {
				e := alerr.UnknownColumn(t.Name, col, known)
				e.With("index", idx.Name)
				return e
			}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// ColumnDef
// -----------------------------------------------------------------------------

// ColumnDef is a column with its dialect-specific SQL type.
type ColumnDef struct {
	Name       string
	Type       string // SQL type as written, e.g. "VARCHAR(32)"
	Nullable   bool
	Default    any  // Scalar default (string, integer, float, bool)
	DefaultSet bool // True if a non-NULL default is present
	PrimaryKey bool
}

// Validate checks that the column definition is well-formed.
func (c *ColumnDef) Validate() error {
	if c.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgColumnNameRequired)
	}
	if err := ValidateIdentifier(c.Name); err != nil {
		return err
	}
	if c.Type == "" {
		return alerr.New(alerr.ErrSchemaInvalid, "column type is required").
			WithColumn(c.Name)
	}
	if c.DefaultSet {
		if err := CheckDefault(c.Type, c.Default); err != nil {
			return err.WithColumn(c.Name)
		}
	}
	return nil
}

// Family returns the type family of the column.
func (c *ColumnDef) Family() TypeFamily {
	return FamilyOf(c.Type)
}

// Clone returns a copy of the column.
func (c *ColumnDef) Clone() *ColumnDef {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// -----------------------------------------------------------------------------
// IndexDef
// -----------------------------------------------------------------------------

// IndexDef is a named index over an ordered column list.
type IndexDef struct {
	Name     string   // Logical name as declared
	Columns  []string // Member columns in order
	Unique   bool
	Physical string // Database object name; see PhysicalIndexName
}

// PhysicalIndexName returns the database object name for a logical index.
// Index names share one namespace per schema, so the table name is prefixed.
func PhysicalIndexName(table, name string) string {
	return table + "_" + name
}

// Validate checks that the index definition is well-formed.
func (i *IndexDef) Validate() error {
	if err := ValidateIdentifier(i.Name); err != nil {
		return err
	}
	if len(i.Columns) == 0 {
		return alerr.New(alerr.ErrSchemaInvalid, msgIndexNeedsColumn)
	}
	for _, col := range i.Columns {
		if err := ValidateIdentifier(col); err != nil {
			return err
		}
	}
	return nil
}

// SameShape reports whether two indexes cover the same columns in the same
// order with the same uniqueness.
func (i *IndexDef) SameShape(o *IndexDef) bool {
	return i.Unique == o.Unique && slices.Equal(i.Columns, o.Columns)
}

// Clone returns a copy of the index.
func (i *IndexDef) Clone() *IndexDef {
	if i == nil {
		return nil
	}
	cp := *i
	cp.Columns = slices.Clone(i.Columns)
	return &cp
}
