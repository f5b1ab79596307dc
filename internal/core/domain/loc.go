package domain

// LocKey identifies one localized string. The game's convention encodes the
// source table, field and row key, e.g. "land_units_onscreen_name_emp_halberdiers".
type LocKey string

// LocEntry is one localized string.
type LocEntry struct {
	Key     LocKey
	Value   string
	Tooltip bool
}

// LocSet is an ordered, layered set of loc entries with the same override
// semantics as MergedTable: last writer per key wins, first-appearance order
// is preserved, and provenance records the contributing layer.
type LocSet struct {
	keys    []LocKey
	entries map[LocKey]LocEntry
	origin  map[LocKey]string
}

// NewLocSet returns an empty loc set.
func NewLocSet() *LocSet {
	return &LocSet{
		entries: make(map[LocKey]LocEntry),
		origin:  make(map[LocKey]string),
	}
}

// Put inserts or overwrites the entry at its key.
func (s *LocSet) Put(entry LocEntry, layer string) {
	if _, ok := s.entries[entry.Key]; !ok {
		s.keys = append(s.keys, entry.Key)
	}
	s.entries[entry.Key] = entry
	s.origin[entry.Key] = layer
}

// Get returns the winning entry at key.
func (s *LocSet) Get(key LocKey) (LocEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Origin returns the layer that contributed the entry at key.
func (s *LocSet) Origin(key LocKey) string {
	return s.origin[key]
}

// Len returns the number of entries.
func (s *LocSet) Len() int {
	return len(s.keys)
}

// Keys returns keys in first-appearance order. Shared slice, do not mutate.
func (s *LocSet) Keys() []LocKey {
	return s.keys
}

// Entries returns the entries in first-appearance order.
func (s *LocSet) Entries() []LocEntry {
	out := make([]LocEntry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.entries[k])
	}
	return out
}
