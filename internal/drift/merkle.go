// Package drift fingerprints table shapes with merkle trees.
// A fingerprint changes whenever anything that reconciliation looks at
// changes: columns, indexes, primary key name or delete policy.
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cbergoon/merkletree"

	"github.com/hlop3z/tabula/internal/alerr"
	"github.com/hlop3z/tabula/internal/ast"
)

// SchemaHash is the merkle root over a set of tables.
type SchemaHash struct {
	Root   string                // Root hash of all tables
	Tables map[string]*TableHash // Individual table hashes for drill-down
}

// TableHash is the merkle hash of a single table.
type TableHash struct {
	Name    string
	Hash    string            // Root of the table's leaf tree
	Columns map[string]string // Column name -> hash
	Indexes map[string]string // Logical index name -> hash
}

// leaf implements merkletree.Content over a precomputed hash string.
type leaf struct {
	hash string
}

func (l leaf) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(l.hash))
	return h[:], nil
}

func (l leaf) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(leaf)
	if !ok {
		return false, nil
	}
	return l.hash == o.hash, nil
}

// ComputeTableHash fingerprints one table.
// Columns and indexes are hashed in name order, so declaring the same
// shape in a different order yields the same hash.
func ComputeTableHash(table *ast.TableDef) (*TableHash, error) {
	result := &TableHash{
		Name:    table.Name,
		Columns: make(map[string]string, len(table.Columns)),
		Indexes: make(map[string]string, len(table.Indexes)),
	}

	leaves := []merkletree.Content{
		leaf{hash: hashString(fmt.Sprintf("table:%s|pk:%s|delete:%s", table.Name, table.PrimaryKey, table.Delete))},
	}

	for _, col := range table.Columns {
		result.Columns[col.Name] = computeColumnHash(col)
	}
	for _, name := range sortedKeys(result.Columns) {
		leaves = append(leaves, leaf{hash: "column:" + name + ":" + result.Columns[name]})
	}

	for _, idx := range table.Indexes {
		result.Indexes[idx.Name] = computeIndexHash(idx)
	}
	for _, name := range sortedKeys(result.Indexes) {
		leaves = append(leaves, leaf{hash: "index:" + name + ":" + result.Indexes[name]})
	}

	tree, err := merkletree.NewTree(leaves)
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to build merkle tree").WithTable(table.Name)
	}
	result.Hash = hex.EncodeToString(tree.MerkleRoot())
	return result, nil
}

// ComputeSchemaHash fingerprints a set of tables.
func ComputeSchemaHash(tables ...*ast.TableDef) (*SchemaHash, error) {
	result := &SchemaHash{Tables: make(map[string]*TableHash, len(tables))}
	if len(tables) == 0 {
		result.Root = emptyHash()
		return result, nil
	}

	for _, t := range tables {
		th, err := ComputeTableHash(t)
		if err != nil {
			return nil, err
		}
		result.Tables[t.Name] = th
	}

	var contents []merkletree.Content
	for _, name := range sortedKeys(result.Tables) {
		contents = append(contents, leaf{hash: name + ":" + result.Tables[name].Hash})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to build merkle tree")
	}
	result.Root = hex.EncodeToString(tree.MerkleRoot())
	return result, nil
}

func computeColumnHash(col *ast.ColumnDef) string {
	data := fmt.Sprintf("name:%s|type:%s|nullable:%v|pk:%v",
		col.Name,
		strings.ToUpper(strings.Join(strings.Fields(col.Type), " ")),
		col.Nullable,
		col.PrimaryKey,
	)
	if col.DefaultSet {
		v, _ := ast.CanonicalValue(col.Default)
		data += "|default:" + v
	}
	return hashString(data)
}

func computeIndexHash(idx *ast.IndexDef) string {
	return hashString(fmt.Sprintf("name:%s|physical:%s|columns:[%s]|unique:%v",
		idx.Name,
		idx.Physical,
		strings.Join(idx.Columns, ","),
		idx.Unique,
	))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// hashString computes SHA256 hash of a string and returns hex encoding.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func emptyHash() string {
	return hashString("empty_schema")
}
