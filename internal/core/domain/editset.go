package domain

// TableEdits collects the row insertions/overwrites one producer emitted for
// one table. Rows keep first-appearance order.
type TableEdits struct {
	Schema *TableSchema

	// LowPriority marks the table file for the '~' rename in the generated
	// archive so a full-table rewrite sorts below every mod's own table files.
	LowPriority bool

	keys []RowKey
	rows map[RowKey]Row
}

func newTableEdits(schema *TableSchema) *TableEdits {
	return &TableEdits{Schema: schema, rows: make(map[RowKey]Row)}
}

// Put records a row edit, overwriting a previous edit at the same key.
func (e *TableEdits) Put(row Row) {
	key := e.Schema.KeyOf(row)
	if _, ok := e.rows[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.rows[key] = row
}

// Get returns the edited row at key.
func (e *TableEdits) Get(key RowKey) (Row, bool) {
	row, ok := e.rows[key]
	return row, ok
}

// Len returns the number of edited rows.
func (e *TableEdits) Len() int { return len(e.keys) }

// Rows returns the edited rows in first-appearance order.
func (e *TableEdits) Rows() []Row {
	out := make([]Row, 0, len(e.keys))
	for _, k := range e.keys {
		out = append(out, e.rows[k])
	}
	return out
}

// EditSet is the sparse output of one synthesizer, the localization engine or
// the script processor: row edits per table, loc overwrites, and raw blobs to
// place in the generated archive (placeholder videos, marker files).
type EditSet struct {
	tableNames []string
	tables     map[string]*TableEdits

	locKeys []LocKey
	locs    map[LocKey]LocEntry

	blobPaths []string
	blobs     map[string][]byte
}

// NewEditSet returns an empty edit set.
func NewEditSet() *EditSet {
	return &EditSet{
		tables: make(map[string]*TableEdits),
		locs:   make(map[LocKey]LocEntry),
		blobs:  make(map[string][]byte),
	}
}

// Table returns the edit collection for the named table, creating it with the
// given schema on first use.
func (s *EditSet) Table(schema *TableSchema) *TableEdits {
	if t, ok := s.tables[schema.Name]; ok {
		return t
	}
	t := newTableEdits(schema)
	s.tables[schema.Name] = t
	s.tableNames = append(s.tableNames, schema.Name)
	return t
}

// TableByName returns the edits recorded for a table, or nil.
func (s *EditSet) TableByName(name string) *TableEdits {
	return s.tables[name]
}

// TableNames returns the touched table names in first-touch order.
func (s *EditSet) TableNames() []string {
	return s.tableNames
}

// PutLoc records a loc overwrite.
func (s *EditSet) PutLoc(entry LocEntry) {
	if _, ok := s.locs[entry.Key]; !ok {
		s.locKeys = append(s.locKeys, entry.Key)
	}
	s.locs[entry.Key] = entry
}

// Locs returns the loc overwrites in first-appearance order.
func (s *EditSet) Locs() []LocEntry {
	out := make([]LocEntry, 0, len(s.locKeys))
	for _, k := range s.locKeys {
		out = append(out, s.locs[k])
	}
	return out
}

// PutBlob records a raw file to be placed at path inside the archive.
func (s *EditSet) PutBlob(path string, data []byte) {
	if _, ok := s.blobs[path]; !ok {
		s.blobPaths = append(s.blobPaths, path)
	}
	s.blobs[path] = data
}

// BlobPaths returns blob paths in first-appearance order.
func (s *EditSet) BlobPaths() []string {
	return s.blobPaths
}

// Blob returns the blob recorded at path.
func (s *EditSet) Blob(path string) []byte {
	return s.blobs[path]
}

// Empty reports whether the set carries no edits at all.
func (s *EditSet) Empty() bool {
	return len(s.tableNames) == 0 && len(s.locKeys) == 0 && len(s.blobPaths) == 0
}

// Apply folds other into s, later writer winning on key collisions. Producer
// ordering is the caller's responsibility and must be fixed, never arrival
// order.
func (s *EditSet) Apply(other *EditSet) {
	for _, name := range other.tableNames {
		src := other.tables[name]
		dst := s.Table(src.Schema)
		if src.LowPriority {
			dst.LowPriority = true
		}
		for _, row := range src.Rows() {
			dst.Put(row)
		}
	}
	for _, entry := range other.Locs() {
		s.PutLoc(entry)
	}
	for _, path := range other.blobPaths {
		s.PutBlob(path, other.blobs[path])
	}
}
