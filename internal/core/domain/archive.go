package domain

// PatchFile is one serialized file inside the generated archive.
type PatchFile struct {
	Path string
	Data []byte
}

// PatchArchive is the fully assembled, not yet serialized patch: the file set
// plus the container metadata the codec needs to write it.
type PatchArchive struct {
	Name     string
	Game     string
	Category Category

	// Dependencies is the full mod load order, recorded in the container
	// header. Real reports whether the game actually honors the list.
	Dependencies []string
	Real         bool

	Files []PatchFile
}

// CacheEntry is one persisted reference-cache value: the decoded vanilla rows
// for a table plus the fingerprint of the vanilla content they came from.
type CacheEntry struct {
	Fingerprint string
	Rows        []Row
}
