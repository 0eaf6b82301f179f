package registry

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
)

// TableSpec is the declared shape of a table as written in configuration.
//
//	id: test_id
//	columns:
//	  value1: {type: VARCHAR(32), null: false, default: value1}
//	  value2: {type: INT(11), null: false, default: 2}
//	index:
//	  key: {value1: [value1]}
//	delete: logical
type TableSpec struct {
	ID      string      `yaml:"id,omitempty"`
	Columns ColumnSpecs `yaml:"columns"`
	Index   IndexSpec   `yaml:"index,omitempty"`
	Delete  string      `yaml:"delete,omitempty"`
}

// ColumnSpec declares one column. Null defaults to true when omitted.
type ColumnSpec struct {
	Name    string `yaml:"-"`
	Type    string `yaml:"type"`
	Null    *bool  `yaml:"null,omitempty"`
	Default any    `yaml:"default,omitempty"`
}

// ColumnSpecs is an ordered column mapping.
type ColumnSpecs []ColumnSpec

// IndexSpec groups indexes by kind.
type IndexSpec struct {
	Key    IndexGroup `yaml:"key,omitempty"`
	Unique IndexGroup `yaml:"unique,omitempty"`
}

// IndexGroup is an ordered mapping of index name to member columns.
type IndexGroup []NamedIndex

// NamedIndex is one entry of an IndexGroup.
type NamedIndex struct {
	Name    string
	Columns []string
}

// Nullable returns a pointer for ColumnSpec.Null.
func Nullable(b bool) *bool {
	return &b
}

// Build converts the spec into a validated descriptor for table name.
func (s TableSpec) Build(name string) (*ast.TableDef, error) {
	if err := ast.ValidateIdentifier(name); err != nil {
		return nil, err
	}

	policy, err := ast.ParseDeletePolicy(s.Delete)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid table spec").WithTable(name)
	}

	def := &ast.TableDef{
		Name:       name,
		PrimaryKey: ast.DefaultPrimaryKey(name),
		Delete:     policy,
	}
	if s.ID != "" {
		def.PrimaryKey = s.ID
	}

	for _, c := range s.Columns {
		col := &ast.ColumnDef{
			Name:       c.Name,
			Type:       c.Type,
			Nullable:   c.Null == nil || *c.Null,
			Default:    c.Default,
			DefaultSet: c.Default != nil,
		}
		def.Columns = append(def.Columns, col)
	}

	for _, g := range []struct {
		group  IndexGroup
		unique bool
	}{{s.Index.Key, false}, {s.Index.Unique, true}} {
		for _, idx := range g.group {
			def.Indexes = append(def.Indexes, &ast.IndexDef{
				Name:     idx.Name,
				Columns:  slices.Clone(idx.Columns),
				Unique:   g.unique,
				Physical: ast.PhysicalIndexName(name, idx.Name),
			})
		}
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// -----------------------------------------------------------------------------
// YAML decoding
// -----------------------------------------------------------------------------

// UnmarshalYAML keeps the declaration order of the column mapping.
// A scalar value is shorthand for {type: <value>}.
func (cs *ColumnSpecs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return alerr.New(alerr.ErrSchemaInvalid, "columns must be a mapping").
			With("line", value.Line)
	}

	out := make(ColumnSpecs, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		var col ColumnSpec
		if val.Kind == yaml.ScalarNode {
			col.Type = val.Value
		} else if err := decodeColumn(val, &col); err != nil {
			return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid column").
				WithColumn(key.Value).
				With("line", val.Line)
		}
		col.Name = key.Value
		out = append(out, col)
	}
	*cs = out
	return nil
}

// decodeColumn reads a column mapping field by field. A plain yaml.Decode
// would miss the "null" key, which YAML resolves to the null tag rather
// than a string.
func decodeColumn(value *yaml.Node, col *ColumnSpec) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: column must be a type or a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch key.Value {
		case "type":
			if err := val.Decode(&col.Type); err != nil {
				return err
			}
		case "null":
			var b bool
			if err := val.Decode(&b); err != nil {
				return err
			}
			col.Null = &b
		case "default":
			if err := val.Decode(&col.Default); err != nil {
				return err
			}
		default:
			return fmt.Errorf("line %d: unknown column field %q", key.Line, key.Value)
		}
	}
	return nil
}

// MarshalYAML writes the columns back as an ordered mapping.
func (cs ColumnSpecs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range cs {
		var val yaml.Node
		if err := val.Encode(c); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: c.Name}, &val)
	}
	return node, nil
}

// UnmarshalYAML keeps the declaration order of an index group.
// A scalar value is shorthand for a single-column index.
func (g *IndexGroup) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return alerr.New(alerr.ErrSchemaInvalid, "index group must be a mapping").
			With("line", value.Line)
	}

	out := make(IndexGroup, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		idx := NamedIndex{Name: key.Value}
		switch val.Kind {
		case yaml.ScalarNode:
			idx.Columns = []string{val.Value}
		default:
			if err := val.Decode(&idx.Columns); err != nil {
				return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid index").
					With("index", key.Value).
					With("line", val.Line)
			}
		}
		out = append(out, idx)
	}
	*g = out
	return nil
}

// MarshalYAML writes the group back as an ordered mapping.
func (g IndexGroup) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, idx := range g {
		var val yaml.Node
		if err := val.Encode(idx.Columns); err != nil {
			return nil, err
		}
		val.Style = yaml.FlowStyle
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: idx.Name}, &val)
	}
	return node, nil
}

// Declarations is an ordered set of named table specs, the "tables" section
// of a declaration file.
type Declarations []Declaration

// Declaration is one named table spec.
type Declaration struct {
	Name string
	Spec TableSpec
}

// UnmarshalYAML keeps the declaration order of the tables mapping.
func (d *Declarations) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return alerr.New(alerr.ErrSchemaInvalid, "tables must be a mapping").
			With("line", value.Line)
	}

	out := make(Declarations, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		var spec TableSpec
		if err := val.Decode(&spec); err != nil {
			return alerr.Wrap(alerr.ErrSchemaInvalid, err, "invalid table spec").
				WithTable(key.Value).
				With("line", val.Line)
		}
		out = append(out, Declaration{Name: key.Value, Spec: spec})
	}
	*d = out
	return nil
}

// LoadDeclarations reads a YAML file containing a top-level "tables" mapping.
func LoadDeclarations(path string) (Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSchemaInvalid, err, "failed to read declaration file").
			With("path", path)
	}

	var doc struct {
		Tables Declarations `yaml:"tables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, alerr.Wrap(alerr.ErrSchemaInvalid, err, "failed to parse declaration file").
			With("path", path)
	}
	return doc.Tables, nil
}

// SetupAll registers every declaration in order. It stops at the first invalid one.
func (r *Registry) SetupAll(decls Declarations) error {
	for _, d := range decls {
		if _, err := r.Setup(d.Name, d.Spec); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Generic map input
// -----------------------------------------------------------------------------

// ParseSpec reads a spec from the generic nested-map form. Columns given as a
// map are ordered by name; pass a list of {name: ..., type: ...} entries to
// keep a specific order.
func ParseSpec(m map[string]any) (TableSpec, error) {
	var s TableSpec

	for key, raw := range m {
		switch key {
		case "id":
			id, ok := raw.(string)
			if !ok {
				return s, specTypeError("id", "string", raw)
			}
			s.ID = id
		case "delete":
			if raw == nil {
				continue
			}
			del, ok := raw.(string)
			if !ok {
				return s, specTypeError("delete", "string", raw)
			}
			s.Delete = del
		case "columns":
			cols, err := parseColumns(raw)
			if err != nil {
				return s, err
			}
			s.Columns = cols
		case "index":
			idx, err := parseIndex(raw)
			if err != nil {
				return s, err
			}
			s.Index = idx
		default:
			return s, alerr.Newf(alerr.ErrSchemaInvalid, "unknown table spec key %q", key).
				WithHelp("recognized keys: id, columns, index, delete")
		}
	}
	return s, nil
}

func parseColumns(raw any) (ColumnSpecs, error) {
	switch v := raw.(type) {
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)

		out := make(ColumnSpecs, 0, len(v))
		for _, name := range names {
			col, err := parseColumn(name, v[name])
			if err != nil {
				return nil, err
			}
			out = append(out, col)
		}
		return out, nil
	case []any:
		out := make(ColumnSpecs, 0, len(v))
		for _, item := range v {
			fields, ok := item.(map[string]any)
			if !ok {
				return nil, specTypeError("columns[]", "mapping", item)
			}
			name, _ := fields["name"].(string)
			rest := make(map[string]any, len(fields))
			for k, f := range fields {
				if k != "name" {
					rest[k] = f
				}
			}
			col, err := parseColumn(name, rest)
			if err != nil {
				return nil, err
			}
			out = append(out, col)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, specTypeError("columns", "mapping", raw)
	}
}

func parseColumn(name string, raw any) (ColumnSpec, error) {
	col := ColumnSpec{Name: name}
	if typ, ok := raw.(string); ok {
		col.Type = typ
		return col, nil
	}

	fields, ok := raw.(map[string]any)
	if !ok {
		return col, specTypeError("columns."+name, "mapping", raw)
	}
	for k, v := range fields {
		switch k {
		case "type":
			typ, ok := v.(string)
			if !ok {
				return col, specTypeError("columns."+name+".type", "string", v)
			}
			col.Type = typ
		case "null":
			b, ok := v.(bool)
			if !ok {
				return col, specTypeError("columns."+name+".null", "bool", v)
			}
			col.Null = Nullable(b)
		case "default":
			col.Default = v
		default:
			return col, alerr.Newf(alerr.ErrSchemaInvalid, "unknown column key %q", k).
				WithColumn(name).
				WithHelp("recognized keys: type, null, default")
		}
	}
	return col, nil
}

func parseIndex(raw any) (IndexSpec, error) {
	var spec IndexSpec
	groups, ok := raw.(map[string]any)
	if !ok {
		if raw == nil {
			return spec, nil
		}
		return spec, specTypeError("index", "mapping", raw)
	}

	for kind, g := range groups {
		group, err := parseIndexGroup(kind, g)
		if err != nil {
			return spec, err
		}
		switch kind {
		case "key":
			spec.Key = group
		case "unique":
			spec.Unique = group
		default:
			return spec, alerr.Newf(alerr.ErrSchemaInvalid, "unknown index kind %q", kind).
				WithHelp("use 'key' or 'unique'")
		}
	}
	return spec, nil
}

func parseIndexGroup(kind string, raw any) (IndexGroup, error) {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, specTypeError("index."+kind, "mapping", raw)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	group := make(IndexGroup, 0, len(entries))
	for _, name := range names {
		idx := NamedIndex{Name: name}
		switch cols := entries[name].(type) {
		case string:
			idx.Columns = []string{cols}
		case []string:
			idx.Columns = slices.Clone(cols)
		case []any:
			for _, c := range cols {
				s, ok := c.(string)
				if !ok {
					return nil, specTypeError("index."+kind+"."+name, "list of column names", cols)
				}
				idx.Columns = append(idx.Columns, s)
			}
		default:
			return nil, specTypeError("index."+kind+"."+name, "list of column names", cols)
		}
		group = append(group, idx)
	}
	return group, nil
}

func specTypeError(path, want string, got any) error {
	return alerr.Newf(alerr.ErrSchemaInvalid, "%s must be a %s", path, want).
		With("got", fmt.Sprintf("%T", got))
}
