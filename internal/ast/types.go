// Package ast defines the in-memory table descriptors and the schema
// operations produced when a declared table is compared with the live one.
package ast

import (
	"slices"
	"strings"

	"github.com/hlop3z/tabula/internal/alerr"
)

// OpType is the tag of a schema operation.
// The declaration order is the order operations are applied in.
type OpType int

const (
	// OpCreateTable creates a missing table with its full declared shape.
	OpCreateTable OpType = iota

	// OpDropIndex removes an index that is no longer declared or changed shape.
	OpDropIndex

	// OpDropColumn removes a live column that is no longer declared.
	OpDropColumn

	// OpModifyColumn changes a column's type, nullability, or default.
	OpModifyColumn

	// OpAddColumn adds a declared column missing from the live table.
	OpAddColumn

	// OpAddIndex creates a declared index missing from the live table.
	OpAddIndex
)

// String returns the string representation of an OpType.
func (o OpType) String() string {
	switch o {
	case OpCreateTable:
		return "CreateTable"
	case OpDropIndex:
		return "DropIndex"
	case OpDropColumn:
		return "DropColumn"
	case OpModifyColumn:
		return "ModifyColumn"
	case OpAddColumn:
		return "AddColumn"
	case OpAddIndex:
		return "AddIndex"
	default:
		return "Unknown"
	}
}

// -----------------------------------------------------------------------------
// Delete policy
// -----------------------------------------------------------------------------

// DeletePolicy controls how rows of a table are deleted.
type DeletePolicy int

const (
	// DeleteNone is the default: rows are removed with DELETE.
	DeleteNone DeletePolicy = iota

	// DeleteLogical marks rows with deleted_at/deleted_by instead of removing them.
	DeleteLogical

	// DeletePhysical removes rows with DELETE.
	DeletePhysical
)

// Reserved soft-delete columns appended to DeleteLogical tables.
const (
	ColumnDeletedAt = "deleted_at"
	ColumnDeletedBy = "deleted_by"
)

// String returns the configuration keyword for the policy.
func (p DeletePolicy) String() string {
	switch p {
	case DeleteLogical:
		return "logical"
	case DeletePhysical:
		return "physical"
	default:
		return ""
	}
}

// ParseDeletePolicy parses the "delete" keyword of a table spec.
// An empty string yields DeleteNone.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DeleteNone, nil
	case "logical":
		return DeleteLogical, nil
	case "physical":
		return DeletePhysical, nil
	default:
		return DeleteNone, alerr.Newf(alerr.ErrSchemaInvalid, "invalid delete policy %q", s).
			WithHelp("use 'logical', 'physical', or leave it empty")
	}
}

// -----------------------------------------------------------------------------
// Type families
// -----------------------------------------------------------------------------

// TypeFamily groups dialect-specific SQL type strings by how their values compare.
type TypeFamily int

const (
	FamilyText TypeFamily = iota
	FamilyInteger
	FamilyNumeric
	FamilyBoolean
	FamilyTemporal
	FamilyBinary
)

// String returns the family name.
func (f TypeFamily) String() string {
	switch f {
	case FamilyInteger:
		return "integer"
	case FamilyNumeric:
		return "numeric"
	case FamilyBoolean:
		return "boolean"
	case FamilyTemporal:
		return "temporal"
	case FamilyBinary:
		return "binary"
	default:
		return "text"
	}
}

// ParseTypeFamily returns the family named s, as printed by String.
func ParseTypeFamily(s string) (TypeFamily, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return FamilyText, true
	case "integer":
		return FamilyInteger, true
	case "numeric":
		return FamilyNumeric, true
	case "boolean":
		return FamilyBoolean, true
	case "temporal":
		return FamilyTemporal, true
	case "binary":
		return FamilyBinary, true
	default:
		return FamilyText, false
	}
}

// FamilyOf classifies a SQL type string. Unknown types are FamilyText.
func FamilyOf(sqlType string) TypeFamily {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch {
	case slices.ContainsFunc(strings.Fields(t), func(w string) bool { return integerWords[w] }):
		return FamilyInteger
	case strings.HasPrefix(t, "BOOL"):
		return FamilyBoolean
	case strings.HasPrefix(t, "DECIMAL"), strings.HasPrefix(t, "NUMERIC"),
		strings.HasPrefix(t, "REAL"), strings.HasPrefix(t, "FLOAT"),
		strings.HasPrefix(t, "DOUBLE"):
		return FamilyNumeric
	case strings.HasPrefix(t, "TIMESTAMP"), strings.HasPrefix(t, "DATE"),
		strings.HasPrefix(t, "TIME"), t == "INTERVAL":
		return FamilyTemporal
	case t == "BLOB" || t == "BYTEA":
		return FamilyBinary
	default:
		return FamilyText
	}
}

// integerWords are the integer type names of SQLite and PostgreSQL. Types
// are matched word by word so INTERVAL and POINT stay out.
var integerWords = map[string]bool{
	"INT": true, "INTEGER": true, "BIGINT": true, "SMALLINT": true,
	"TINYINT": true, "MEDIUMINT": true, "INT2": true, "INT4": true, "INT8": true,
	"SERIAL": true, "BIGSERIAL": true, "SMALLSERIAL": true,
	"SERIAL2": true, "SERIAL4": true, "SERIAL8": true,
}
