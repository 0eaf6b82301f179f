package ast

import (
	"fmt"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
)

// Operation is a single schema change produced by the differ.
// The concrete types form a closed set; consumers switch over them exhaustively.
type Operation interface {
	// Type returns the operation tag.
	Type() OpType

	// Table returns the table the operation targets.
	Table() string

	// Validate checks that the operation is well-formed.
	Validate() error

	// String returns a one-line human readable description.
	String() string
}

// -----------------------------------------------------------------------------
// Embedded types
// -----------------------------------------------------------------------------

// TableRef names the table a column or index operation targets.
type TableRef struct {
	TableName string
}

// Table returns the target table name.
func (t TableRef) Table() string {
	return t.TableName
}

func (t TableRef) validate(what string) *alerr.Error {
	if t.TableName == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgTableNameRequired+" for "+what)
	}
	return nil
}

// -----------------------------------------------------------------------------
// CreateTable
// -----------------------------------------------------------------------------

// CreateTable creates a table with the full declared shape: primary key,
// user columns, soft-delete columns and indexes.
type CreateTable struct {
	TableRef
	PrimaryKey string
	Columns    []*ColumnDef // Excluding the primary key column
	Indexes    []*IndexDef
}

func (op *CreateTable) Type() OpType { return OpCreateTable }

func (op *CreateTable) Validate() error {
	if err := op.validate("create table"); err != nil {
		return err
	}
	if op.PrimaryKey == "" {
		return alerr.New(alerr.ErrSchemaInvalid, "primary key is required").WithTable(op.TableName)
	}
	for _, col := range op.Columns {
		if err := col.Validate(); err != nil {
			return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid column").
				WithTable(op.TableName).
				WithColumn(col.Name)
		}
	}
	for _, idx := range op.Indexes {
		if err := idx.Validate(); err != nil {
			return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid index").
				WithTable(op.TableName)
		}
	}
	return nil
}

func (op *CreateTable) String() string {
	return fmt.Sprintf("create table %s (%d columns, %d indexes)", op.TableName, len(op.Columns)+1, len(op.Indexes))
}

// -----------------------------------------------------------------------------
// AddColumn
// -----------------------------------------------------------------------------

// AddColumn adds a declared column missing from the live table.
type AddColumn struct {
	TableRef
	Column *ColumnDef
}

func (op *AddColumn) Type() OpType { return OpAddColumn }

func (op *AddColumn) Validate() error {
	if err := op.validate("add column"); err != nil {
		return err
	}
	if op.Column == nil {
		return alerr.New(alerr.ErrSchemaInvalid, "column definition is required").WithTable(op.TableName)
	}
	if err := op.Column.Validate(); err != nil {
		return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid column").
			WithTable(op.TableName).
			WithColumn(op.Column.Name)
	}
	return nil
}

func (op *AddColumn) String() string {
	return fmt.Sprintf("add column %s.%s %s", op.TableName, op.Column.Name, describeColumn(op.Column))
}

// -----------------------------------------------------------------------------
// ModifyColumn
// -----------------------------------------------------------------------------

// ModifyColumn changes a live column to match its declaration.
type ModifyColumn struct {
	TableRef
	Column   *ColumnDef // Declared shape
	Previous *ColumnDef // Live shape before the change
}

func (op *ModifyColumn) Type() OpType { return OpModifyColumn }

func (op *ModifyColumn) Validate() error {
	if err := op.validate("modify column"); err != nil {
		return err
	}
	if op.Column == nil || op.Previous == nil {
		return alerr.New(alerr.ErrSchemaInvalid, "declared and live column are required").WithTable(op.TableName)
	}
	if op.Column.Name != op.Previous.Name {
		return alerr.New(alerr.ErrSchemaInvalid, "modify column cannot rename").
			WithTable(op.TableName).
			WithColumn(op.Previous.Name)
	}
	return nil
}

func (op *ModifyColumn) String() string {
	return fmt.Sprintf("modify column %s.%s %s -> %s", op.TableName, op.Column.Name,
		describeColumn(op.Previous), describeColumn(op.Column))
}

// -----------------------------------------------------------------------------
// DropColumn
// -----------------------------------------------------------------------------

// DropColumn removes a live column that is no longer declared.
type DropColumn struct {
	TableRef
	Name string
}

func (op *DropColumn) Type() OpType { return OpDropColumn }

func (op *DropColumn) Validate() error {
	if err := op.validate("drop column"); err != nil {
		return err
	}
	if op.Name == "" {
		return alerr.New(alerr.ErrSchemaInvalid, msgColumnNameRequired).WithTable(op.TableName)
	}
	return nil
}

func (op *DropColumn) String() string {
	return fmt.Sprintf("drop column %s.%s", op.TableName, op.Name)
}

// -----------------------------------------------------------------------------
// AddIndex / DropIndex
// -----------------------------------------------------------------------------

// AddIndex creates a declared index.
type AddIndex struct {
	TableRef
	Index *IndexDef
}

func (op *AddIndex) Type() OpType { return OpAddIndex }

func (op *AddIndex) Validate() error {
	if err := op.validate("add index"); err != nil {
		return err
	}
	if op.Index == nil || op.Index.Physical == "" {
		return alerr.New(alerr.ErrSchemaInvalid, "index name is required").WithTable(op.TableName)
	}
	return op.Index.Validate()
}

func (op *AddIndex) String() string {
	kind := "key"
	if op.Index.Unique {
		kind = "unique"
	}
	return fmt.Sprintf("add %s index %s on %s (%s)", kind, op.Index.Physical, op.TableName, strings.Join(op.Index.Columns, ", "))
}

// DropIndex removes a live index.
type DropIndex struct {
	TableRef
	Index *IndexDef
}

func (op *DropIndex) Type() OpType { return OpDropIndex }

func (op *DropIndex) Validate() error {
	if err := op.validate("drop index"); err != nil {
		return err
	}
	if op.Index == nil || op.Index.Physical == "" {
		return alerr.New(alerr.ErrSchemaInvalid, "index name is required for drop").WithTable(op.TableName)
	}
	return nil
}

func (op *DropIndex) String() string {
	return fmt.Sprintf("drop index %s on %s", op.Index.Physical, op.TableName)
}

func describeColumn(c *ColumnDef) string {
	var b strings.Builder
	b.WriteString(c.Type)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.DefaultSet {
		s, _ := CanonicalValue(c.Default)
		b.WriteString(fmt.Sprintf(" DEFAULT %q", s))
	}
	return b.String()
}
