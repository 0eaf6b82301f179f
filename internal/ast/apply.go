package ast

// Apply returns the table shape that results from applying ops to live.
// live is not modified; a nil live is treated as a missing table.
func Apply(live *TableDef, ops ...Operation) *TableDef {
	t := live.Clone()
	for _, op := range ops {
		if _, create := op.(*CreateTable); !create && t == nil {
			continue
		}
		switch o := op.(type) {
		case *CreateTable:
			t = &TableDef{Name: o.TableName, PrimaryKey: o.PrimaryKey}
			t.Columns = append(t.Columns, &ColumnDef{Name: o.PrimaryKey, Type: "INTEGER", PrimaryKey: true})
			for _, c := range o.Columns {
				t.Columns = append(t.Columns, c.Clone())
			}
			for _, idx := range o.Indexes {
				t.Indexes = append(t.Indexes, idx.Clone())
			}
		case *AddColumn:
			t.Columns = append(t.Columns, o.Column.Clone())
		case *ModifyColumn:
			for i, c := range t.Columns {
				if c.Name == o.Column.Name {
					t.Columns[i] = o.Column.Clone()
				}
			}
		case *DropColumn:
			cols := t.Columns[:0]
			for _, c := range t.Columns {
				if c.Name != o.Name {
					cols = append(cols, c)
				}
			}
			t.Columns = cols
			idxs := t.Indexes[:0]
			for _, idx := range t.Indexes {
				if !idx.covers(o.Name) {
					idxs = append(idxs, idx)
				}
			}
			t.Indexes = idxs
		case *AddIndex:
			t.Indexes = append(t.Indexes, o.Index.Clone())
		case *DropIndex:
			idxs := t.Indexes[:0]
			for _, idx := range t.Indexes {
				if idx.Physical != o.Index.Physical {
					idxs = append(idxs, idx)
				}
			}
			t.Indexes = idxs
		}
	}
	return t
}

func (i *IndexDef) covers(column string) bool {
	for _, c := range i.Columns {
		if c == column {
			return true
		}
	}
	return false
}
