package ports

import "github.com/packforge/twpatch/internal/core/domain"

// ContentLoader builds a ContentIndex from an installed-content manifest.
type ContentLoader interface {
	Load(manifestPath string) (ContentIndex, error)
}

// LoadOrderResolver turns the user's load-order file into an ordered,
// categorized archive sequence against the installed content.
type LoadOrderResolver interface {
	// Resolve parses the load-order file at path. Entries that resolve to no
	// installed archive are skipped with a warning. An unreadable or empty
	// file yields domain.ErrResolution.
	Resolve(path string, game *domain.GameDef, index ContentIndex) (domain.LoadOrder, error)
}

// ContentIndex resolves mod identifiers against installed content metadata.
// Absence of an entry is not an error; the resolver skips it with a warning.
type ContentIndex interface {
	// Lookup resolves a pack name from the user's mod list.
	Lookup(packName string) (domain.ArchiveRef, bool)

	// Vanilla returns the base game's own archives, in the game's canonical
	// order. These form the implicit bottom layer of every load order.
	Vanilla() []domain.ArchiveRef

	// Installed returns every known non-vanilla archive. Used to discover
	// movie packs that never appear in the mod list.
	Installed() []domain.ArchiveRef

	// OutputDir returns the directory the generated pack is written to when
	// the user gives no explicit path.
	OutputDir() string
}
