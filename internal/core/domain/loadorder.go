package domain

// Category partitions archives into the game's two parallel load orders.
type Category int8

const (
	CategoryData Category = iota
	CategoryMovie
)

// String returns the manifest spelling of the category.
func (c Category) String() string {
	if c == CategoryMovie {
		return "movie"
	}
	return "data"
}

// ArchiveRef identifies one installed archive: its pack name, absolute path
// and declared category. It is resolution metadata only; opening the archive
// is the codec's job.
type ArchiveRef struct {
	Name     string
	Path     string
	Category Category
}

// Sequence is one ordered load order partition, lowest precedence first.
// Vanilla content is the implicit layer below index 0 and is never listed.
type Sequence []ArchiveRef

// Names returns the pack names in order.
func (s Sequence) Names() []string {
	out := make([]string, len(s))
	for i, ref := range s {
		out[i] = ref.Name
	}
	return out
}

// LoadOrder is the resolved result of a user mod list: the same generic
// Sequence instantiated once per category.
type LoadOrder struct {
	Game  string
	Data  Sequence
	Movie Sequence
}

// All returns both sequences concatenated, data first. Used when the full mod
// list matters regardless of category, e.g. translation lookup and the
// dependency list of the generated pack.
func (lo *LoadOrder) All() Sequence {
	out := make(Sequence, 0, len(lo.Data)+len(lo.Movie))
	out = append(out, lo.Data...)
	out = append(out, lo.Movie...)
	return out
}

// Empty reports whether no mod archive resolved at all.
func (lo *LoadOrder) Empty() bool {
	return len(lo.Data) == 0 && len(lo.Movie) == 0
}
