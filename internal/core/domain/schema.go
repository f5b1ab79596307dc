package domain

import "strings"

// ColumnDef describes one column of a table schema.
type ColumnDef struct {
	Name string
	Type ColumnType

	// Key marks the column as part of the primary key.
	Key bool

	// Tombstone marks a boolean column that, when true, deletes the row at its
	// key from the merged result instead of contributing data.
	Tombstone bool
}

// TableSchema is the decoded definition of one table type for one game
// version. Column order is the on-disk encoding order.
type TableSchema struct {
	Name    string
	Version int
	Columns []ColumnDef
}

// Column returns the definition of the named column, or nil.
func (s *TableSchema) Column(name string) *ColumnDef {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// KeyColumns returns the primary-key column names in schema order.
func (s *TableSchema) KeyColumns() []string {
	var keys []string
	for _, c := range s.Columns {
		if c.Key {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// TombstoneColumn returns the name of the delete-marker column, or "".
func (s *TableSchema) TombstoneColumn() string {
	for _, c := range s.Columns {
		if c.Tombstone {
			return c.Name
		}
	}
	return ""
}

// Row is a mapping from column name to typed cell. Rows are compared and
// addressed only through their schema-derived RowKey.
type Row map[string]Value

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowKey is the stable identity of a logical row within one table: the
// primary-key cells joined in schema order. Rows from different layers with
// the same RowKey are the same logical entity.
type RowKey string

// KeyOf derives the RowKey of a row under the given schema.
func (s *TableSchema) KeyOf(row Row) RowKey {
	var b strings.Builder
	first := true
	for _, c := range s.Columns {
		if !c.Key {
			continue
		}
		if !first {
			// Unit separator, cannot appear in cell data.
			b.WriteByte(0x1f)
		}
		b.WriteString(row[c.Name].String())
		first = false
	}
	return RowKey(b.String())
}

// ZeroRow returns a row with every column set to its zero value.
func (s *TableSchema) ZeroRow() Row {
	row := make(Row, len(s.Columns))
	for _, c := range s.Columns {
		row[c.Name] = Value{Type: c.Type}
	}
	return row
}
