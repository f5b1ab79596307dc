package ports

import (
	"io"

	"github.com/packforge/twpatch/internal/core/domain"
)

// Archive is an opened, read-only view of one game archive container.
type Archive interface {
	// Name returns the pack filename, e.g. "mod_a.pack".
	Name() string

	// Category returns the container's declared category.
	Category() domain.Category

	// Tables returns the names of the DB tables the archive contains.
	Tables() []string

	// HasTable reports whether the archive carries the named table.
	HasTable(name string) bool

	// DecodeTable decodes the rows of the named table under the given schema.
	// Returns domain.ErrCorruptArchive on malformed row data.
	DecodeTable(name string, schema *domain.TableSchema) ([]domain.Row, error)

	// DecodeLoc decodes every loc file in the archive, concatenated in
	// in-archive path order.
	DecodeLoc() ([]domain.LocEntry, error)

	// Fingerprint returns a stable content signature of the container, used
	// for reference cache freshness.
	Fingerprint() string

	Close() error
}

// ArchiveCodec opens archive containers and serializes new ones. The
// container wire format and its compression are owned by the adapter.
type ArchiveCodec interface {
	// Open maps the container at path. Returns domain.ErrCorruptArchive if the
	// container cannot be parsed.
	Open(path string, category domain.Category) (Archive, error)

	// Encode serializes the assembled patch archive to w. The layout is
	// deterministic: identical input produces identical bytes.
	Encode(w io.Writer, patch *domain.PatchArchive) error
}

// TableCodec converts between decoded rows and their binary table encoding.
type TableCodec interface {
	EncodeTable(schema *domain.TableSchema, rows []domain.Row) ([]byte, error)
	DecodeTable(schema *domain.TableSchema, data []byte) ([]domain.Row, error)
	EncodeLoc(entries []domain.LocEntry) ([]byte, error)
	DecodeLoc(data []byte) ([]domain.LocEntry, error)
}
