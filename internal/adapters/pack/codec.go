// Package pack implements the game archive container codec: reading mod and
// vanilla packs and serializing the generated patch pack.
package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

var packMagic = [4]byte{'T', 'W', 'P', 'K'}

const (
	containerVersion = 1

	flagSnappy = 1 << 0

	dbPrefix     = "db/"
	tableSuffix  = "_tables"
	locDirPrefix = "text/"
	locSuffix    = ".loc"
)

var _ ports.ArchiveCodec = (*Codec)(nil)

// Codec reads and writes archive containers.
type Codec struct{}

// NewCodec returns the container codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Open maps the container at p into memory.
func (c *Codec) Open(p string, category domain.Category) (ports.Archive, error) {
	data, err := os.ReadFile(p) //nolint:gosec // Path comes from resolved content metadata
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read archive"), "path", p)
	}
	a, err := parseArchive(data, path.Base(strings.ReplaceAll(p, "\\", "/")), category)
	if err != nil {
		return nil, zerr.With(err, "path", p)
	}
	return a, nil
}

type fileEntry struct {
	flags   uint8
	raw     []byte // stored (possibly compressed) bytes
	rawSize uint64
	hash    uint64
}

type archive struct {
	name        string
	category    domain.Category
	fingerprint string

	paths []string
	files map[string]*fileEntry
}

func parseArchive(data []byte, name string, category domain.Category) (*archive, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != packMagic {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "bad container magic")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version != containerVersion {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "unsupported container version")
	}

	// Category byte and dependency-real flag. The on-disk category wins over
	// the caller's declared one; movie packs are discovered this way.
	var catByte, realByte uint8
	if err := binary.Read(r, binary.LittleEndian, &catByte); err != nil {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated header")
	}
	if err := binary.Read(r, binary.LittleEndian, &realByte); err != nil {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated header")
	}
	if catByte == 1 {
		category = domain.CategoryMovie
	}

	var depCount uint32
	if err := binary.Read(r, binary.LittleEndian, &depCount); err != nil {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated dependency list")
	}
	for i := uint32(0); i < depCount; i++ {
		if _, err := readString(r); err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated dependency list")
		}
	}

	var fileCount uint32
	if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
		return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated index")
	}

	type indexEntry struct {
		path    string
		flags   uint8
		size    uint64
		rawSize uint64
		hash    uint64
	}
	index := make([]indexEntry, 0, fileCount)
	for i := uint32(0); i < fileCount; i++ {
		var e indexEntry
		var err error
		if e.path, err = readString(r); err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated index")
		}
		if err = binary.Read(r, binary.LittleEndian, &e.flags); err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated index")
		}
		if err = binary.Read(r, binary.LittleEndian, &e.size); err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated index")
		}
		if err = binary.Read(r, binary.LittleEndian, &e.rawSize); err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated index")
		}
		if err = binary.Read(r, binary.LittleEndian, &e.hash); err != nil {
			return nil, zerr.Wrap(domain.ErrCorruptArchive, "truncated index")
		}
		index = append(index, e)
	}

	a := &archive{
		name:        name,
		category:    category,
		fingerprint: fmt.Sprintf("%016x", xxhash.Sum64(data)),
		files:       make(map[string]*fileEntry, len(index)),
	}
	for _, e := range index {
		// The declared size is untrusted; bound it before allocating.
		if e.size > uint64(r.Len()) {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "payload size exceeds archive"), "file", e.path)
		}
		stored := make([]byte, e.size)
		if _, err := io.ReadFull(r, stored); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "truncated payload"), "file", e.path)
		}
		a.paths = append(a.paths, e.path)
		a.files[e.path] = &fileEntry{flags: e.flags, raw: stored, rawSize: e.rawSize, hash: e.hash}
	}
	return a, nil
}

func (a *archive) Name() string              { return a.name }
func (a *archive) Category() domain.Category { return a.category }
func (a *archive) Fingerprint() string       { return a.fingerprint }
func (a *archive) Close() error              { return nil }

// Tables derives table names from in-archive paths of the form
// "db/<table>_tables/<file>".
func (a *archive) Tables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range a.paths {
		name, ok := tableNameFromPath(p)
		if ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (a *archive) HasTable(name string) bool {
	for _, p := range a.paths {
		if n, ok := tableNameFromPath(p); ok && n == name {
			return true
		}
	}
	return false
}

// DecodeTable decodes every fragment of the named table, in-archive path
// order, and concatenates the rows.
func (a *archive) DecodeTable(name string, schema *domain.TableSchema) ([]domain.Row, error) {
	var paths []string
	for _, p := range a.paths {
		if n, ok := tableNameFromPath(p); ok && n == name {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var rows []domain.Row
	for _, p := range paths {
		data, err := a.contents(p)
		if err != nil {
			return nil, err
		}
		decoded, err := decodeTable(schema, data)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "file", p), "archive", a.name)
		}
		rows = append(rows, decoded...)
	}
	return rows, nil
}

// DecodeLoc decodes every loc file under text/, in path order. Loc files
// outside text/ are ignored; some mods ship stray ones that wipe entries.
func (a *archive) DecodeLoc() ([]domain.LocEntry, error) {
	var paths []string
	for _, p := range a.paths {
		if strings.HasPrefix(p, locDirPrefix) && strings.HasSuffix(p, locSuffix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var entries []domain.LocEntry
	for _, p := range paths {
		data, err := a.contents(p)
		if err != nil {
			return nil, err
		}
		decoded, err := decodeLoc(data)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "file", p), "archive", a.name)
		}
		entries = append(entries, decoded...)
	}
	return entries, nil
}

func (a *archive) contents(p string) ([]byte, error) {
	e := a.files[p]
	raw := e.raw
	if e.flags&flagSnappy != 0 {
		decoded, err := snappy.Decode(nil, raw)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "snappy decode failed"), "file", p)
		}
		raw = decoded
	}
	if uint64(len(raw)) != e.rawSize || xxhash.Sum64(raw) != e.hash {
		return nil, zerr.With(zerr.Wrap(domain.ErrCorruptArchive, "file checksum mismatch"), "file", p)
	}
	return raw, nil
}

func tableNameFromPath(p string) (string, bool) {
	if !strings.HasPrefix(p, dbPrefix) {
		return "", false
	}
	rest := p[len(dbPrefix):]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return "", false
	}
	dir := rest[:slash]
	if !strings.HasSuffix(dir, tableSuffix) {
		return "", false
	}
	// The '~' low-priority prefix applies to the file name, not the dir.
	return dir[:len(dir)-len(tableSuffix)], true
}

// Encode serializes the patch archive. Files are written sorted by path so
// identical input always yields identical bytes.
func (c *Codec) Encode(w io.Writer, patch *domain.PatchArchive) error {
	files := append([]domain.PatchFile(nil), patch.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var buf bytes.Buffer
	buf.Write(packMagic[:])
	if err := binary.Write(&buf, binary.LittleEndian, uint32(containerVersion)); err != nil {
		return zerr.Wrap(err, "failed to encode header")
	}
	catByte := uint8(0)
	if patch.Category == domain.CategoryMovie {
		catByte = 1
	}
	realByte := uint8(0)
	if patch.Real {
		realByte = 1
	}
	buf.WriteByte(catByte)
	buf.WriteByte(realByte)

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(patch.Dependencies))); err != nil {
		return zerr.Wrap(err, "failed to encode dependency list")
	}
	for _, dep := range patch.Dependencies {
		writeString(&buf, dep)
	}

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(files))); err != nil {
		return zerr.Wrap(err, "failed to encode index")
	}

	stored := make([][]byte, len(files))
	for i, f := range files {
		compressed := snappy.Encode(nil, f.Data)
		stored[i] = compressed

		writeString(&buf, f.Path)
		buf.WriteByte(flagSnappy)
		if err := binary.Write(&buf, binary.LittleEndian, uint64(len(compressed))); err != nil {
			return zerr.Wrap(err, "failed to encode index")
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint64(len(f.Data))); err != nil {
			return zerr.Wrap(err, "failed to encode index")
		}
		if err := binary.Write(&buf, binary.LittleEndian, xxhash.Sum64(f.Data)); err != nil {
			return zerr.Wrap(err, "failed to encode index")
		}
	}
	for _, s := range stored {
		buf.Write(s)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return zerr.Wrap(err, "failed to write archive")
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}
