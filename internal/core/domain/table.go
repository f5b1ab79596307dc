package domain

// MergedTable is the result of merging one table name across a load order:
// the winning row per key, plus the layer that contributed it. Insertion
// order is preserved from first appearance so serialization is deterministic.
type MergedTable struct {
	Name   string
	Schema *TableSchema

	keys   []RowKey
	rows   map[RowKey]Row
	origin map[RowKey]string
}

// NewMergedTable returns an empty merged table for the given schema.
func NewMergedTable(schema *TableSchema) *MergedTable {
	return &MergedTable{
		Name:   schema.Name,
		Schema: schema,
		rows:   make(map[RowKey]Row),
		origin: make(map[RowKey]string),
	}
}

// Put inserts or overwrites the row at its key. layer names the archive the
// row came from. Whole-row override: the previous row is fully replaced.
func (t *MergedTable) Put(row Row, layer string) {
	key := t.Schema.KeyOf(row)
	if _, ok := t.rows[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.rows[key] = row
	t.origin[key] = layer
}

// Delete removes the row at key, honoring a tombstone from a higher layer.
func (t *MergedTable) Delete(key RowKey) {
	if _, ok := t.rows[key]; !ok {
		return
	}
	delete(t.rows, key)
	delete(t.origin, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Get returns the winning row at key.
func (t *MergedTable) Get(key RowKey) (Row, bool) {
	row, ok := t.rows[key]
	return row, ok
}

// Origin returns the name of the layer that contributed the row at key.
func (t *MergedTable) Origin(key RowKey) string {
	return t.origin[key]
}

// Len returns the number of live rows.
func (t *MergedTable) Len() int {
	return len(t.keys)
}

// Keys returns the row keys in first-appearance order. The returned slice is
// shared; callers must not mutate it.
func (t *MergedTable) Keys() []RowKey {
	return t.keys
}

// Rows returns the rows in first-appearance order.
func (t *MergedTable) Rows() []Row {
	out := make([]Row, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.rows[k])
	}
	return out
}

// Clone returns a deep copy. Script execution mutates a clone so the merged
// snapshot handed to other consumers stays immutable.
func (t *MergedTable) Clone() *MergedTable {
	out := NewMergedTable(t.Schema)
	out.keys = append([]RowKey(nil), t.keys...)
	for k, row := range t.rows {
		out.rows[k] = row.Clone()
		out.origin[k] = t.origin[k]
	}
	return out
}

// MergedTables is the per-run collection of merged tables, keyed by name.
type MergedTables map[string]*MergedTable
