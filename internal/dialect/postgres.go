package dialect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/hlop3z/tabula/internal/ast"
	"github.com/hlop3z/tabula/internal/sqlgen"
)

// postgres implements the Dialect interface for PostgreSQL.
type postgres struct{}

// Postgres returns the PostgreSQL dialect implementation.
func Postgres() Dialect {
	return &postgres{}
}

func (d *postgres) Name() string {
	return "postgres"
}

func (d *postgres) Gen() sqlgen.Dialect {
	return sqlgen.Postgres
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *postgres) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *postgres) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// -----------------------------------------------------------------------------
// Implicit columns
// -----------------------------------------------------------------------------

func (d *postgres) PrimaryKeyType() string {
	return "BIGSERIAL PRIMARY KEY"
}

func (d *postgres) DeletedAtType() string {
	return "TIMESTAMP"
}

func (d *postgres) DeletedByType() string {
	return "BIGINT"
}

// -----------------------------------------------------------------------------
// Catalog normalization
// -----------------------------------------------------------------------------

// postgresTypeAliases maps declared spellings to the names format_type reports.
var postgresTypeAliases = map[string]string{
	"INT":         "INTEGER",
	"INT4":        "INTEGER",
	"SERIAL":      "INTEGER",
	"INT8":        "BIGINT",
	"BIGSERIAL":   "BIGINT",
	"INT2":        "SMALLINT",
	"VARCHAR":     "CHARACTER VARYING",
	"CHAR":        "CHARACTER",
	"BPCHAR":      "CHARACTER",
	"BOOL":        "BOOLEAN",
	"FLOAT4":      "REAL",
	"FLOAT8":      "DOUBLE PRECISION",
	"FLOAT":       "DOUBLE PRECISION",
	"DECIMAL":     "NUMERIC",
	"TIMESTAMP":   "TIMESTAMP WITHOUT TIME ZONE",
	"TIMESTAMPTZ": "TIMESTAMP WITH TIME ZONE",
	"TIME":        "TIME WITHOUT TIME ZONE",
	"TIMETZ":      "TIME WITH TIME ZONE",
}

var typeWithArgs = regexp.MustCompile(`^([A-Z0-9 ]+?)(\(.*\))?$`)

// NormalizeType maps declared aliases to their catalog spelling so
// "varchar(32)" and "character varying(32)" compare equal. Display widths on
// integer types ("INT(11)") are dropped; PostgreSQL has no such concept.
func (d *postgres) NormalizeType(sqlType string) string {
	t := collapseSpaces(sqlType)
	m := typeWithArgs.FindStringSubmatch(t)
	if m == nil {
		return t
	}
	base, args := strings.TrimSpace(m[1]), m[2]
	if alias, ok := postgresTypeAliases[base]; ok {
		base = alias
	}
	if args != "" && (base == "INTEGER" || base == "BIGINT" || base == "SMALLINT") {
		args = ""
	}
	if strings.HasPrefix(base, "TIMESTAMP") || strings.HasPrefix(base, "TIME ") {
		// timestamp(6) without time zone
		if args != "" {
			parts := strings.SplitN(base, " ", 2)
			if len(parts) == 2 {
				return parts[0] + args + " " + parts[1]
			}
		}
	}
	return base + args
}

// ParseDefault parses pg_get_expr default expressions such as
// 'value1'::character varying, 2, NULL::text or true.
func (d *postgres) ParseDefault(expr string) (any, bool) {
	expr = stripParens(strings.TrimSpace(expr))
	if expr == "" {
		return nil, false
	}
	if strings.HasPrefix(strings.ToLower(expr), "nextval(") {
		return nil, false
	}
	if s, ok := unquoteLiteral(stripCast(expr)); ok {
		return s, true
	}
	expr = stripParens(stripCast(expr))
	if strings.EqualFold(expr, "NULL") {
		return nil, false
	}
	return expr, true
}

// stripCast removes a trailing ::type cast outside of quotes.
func stripCast(expr string) string {
	inQuote := false
	for i := 0; i < len(expr)-1; i++ {
		switch {
		case expr[i] == '\'':
			inQuote = !inQuote
		case !inQuote && expr[i] == ':' && expr[i+1] == ':':
			return strings.TrimSpace(expr[:i])
		}
	}
	return expr
}

func (d *postgres) SupportsReturning() bool {
	return true
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *postgres) OperationSQL(op ast.Operation, live *ast.TableDef) ([]string, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	switch o := op.(type) {
	case *ast.CreateTable:
		return buildCreateTableSQL(sqlgen.Postgres, o.TableName, o.PrimaryKey, d.PrimaryKeyType(), o.Columns, o.Indexes, PostgresBooleans), nil
	case *ast.AddColumn:
		return []string{buildAddColumnSQL(sqlgen.Postgres, o.TableName, o.Column, PostgresBooleans)}, nil
	case *ast.ModifyColumn:
		return d.modifyColumnSQL(o), nil
	case *ast.DropColumn:
		return []string{buildDropColumnSQL(sqlgen.Postgres, o.TableName, o.Name)}, nil
	case *ast.AddIndex:
		return []string{buildCreateIndexSQL(o.TableName, o.Index, d.QuoteIdent)}, nil
	case *ast.DropIndex:
		return []string{buildDropIndexSQL(o.Index, d.QuoteIdent)}, nil
	default:
		return nil, unknownOperation(op)
	}
}

func (d *postgres) DropTableSQL(table string) string {
	return sqlgen.New(sqlgen.Postgres).DropTableIfExists(table).String()
}

// modifyColumnSQL renders one ALTER TABLE with every needed action. When the
// column becomes NOT NULL with a default, existing NULLs are backfilled first.
func (d *postgres) modifyColumnSQL(op *ast.ModifyColumn) []string {
	col, prev := op.Column, op.Previous
	table := d.QuoteIdent(op.TableName)
	name := d.QuoteIdent(col.Name)
	typeChanged := d.NormalizeType(col.Type) != d.NormalizeType(prev.Type)

	var stmts []string
	if !col.Nullable && prev.Nullable && col.DefaultSet {
		stmts = append(stmts, "UPDATE "+table+" SET "+name+" = "+
			buildDefaultValueSQL(col.Type, col.Default, PostgresBooleans)+" WHERE "+name+" IS NULL")
	}

	var actions []string
	alter := "ALTER COLUMN " + name + " "
	if typeChanged || prev.DefaultSet {
		actions = append(actions, alter+"DROP DEFAULT")
	}
	if typeChanged {
		actions = append(actions, alter+"TYPE "+col.Type+" USING "+name+"::"+col.Type)
	}
	if col.DefaultSet {
		actions = append(actions, alter+"SET DEFAULT "+buildDefaultValueSQL(col.Type, col.Default, PostgresBooleans))
	}
	if col.Nullable != prev.Nullable {
		if col.Nullable {
			actions = append(actions, alter+"DROP NOT NULL")
		} else {
			actions = append(actions, alter+"SET NOT NULL")
		}
	}

	stmts = append(stmts, "ALTER TABLE "+table+" "+strings.Join(actions, ", "))
	return stmts
}
