// Package refcache persists decoded vanilla table rows in a local LevelDB
// database so later runs skip the expensive archive decode.
package refcache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

var (
	_ ports.CacheStore  = (*Store)(nil)
	_ ports.CacheOpener = (*Opener)(nil)
)

// Opener implements ports.CacheOpener.
type Opener struct{}

// NewOpener returns a cache opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens (or creates) the cache database under dir.
func (o *Opener) Open(dir string) (ports.CacheStore, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		OpenFilesCacheCapacity: 24,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open reference cache"), "dir", dir)
	}
	return &Store{db: db}, nil
}

// Store implements ports.CacheStore over LevelDB. Values are gob-encoded
// entries, snappy compressed, with an xxhash64 trailer that detects torn
// writes.
type Store struct {
	db *leveldb.DB
}

// NewMemStore returns a store backed by in-memory storage. Used by tests.
func NewMemStore() *Store {
	db, _ := leveldb.Open(storage.NewMemStorage(), nil)
	return &Store{db: db}
}

func cacheKey(game, table string) []byte {
	return []byte(game + "/" + table)
}

// Get retrieves the entry for (game, table).
func (s *Store) Get(game, table string) (*domain.CacheEntry, error) {
	raw, err := s.db.Get(cacheKey(game, table), nil)
	if err == ldberrors.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrCacheFreshness, "cache read failed"),
			"game", game), "table", table)
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		return nil, zerr.With(zerr.With(err, "game", game), "table", table)
	}
	return entry, nil
}

// Put stores the entry, replacing any previous one. The write is synced so a
// crash never leaves a key pointing at missing data.
func (s *Store) Put(game, table string, entry *domain.CacheEntry) error {
	raw, err := encodeEntry(entry)
	if err != nil {
		return zerr.With(zerr.With(err, "game", game), "table", table)
	}
	if err := s.db.Put(cacheKey(game, table), raw, &opt.WriteOptions{Sync: true}); err != nil {
		return zerr.With(zerr.With(zerr.Wrap(err, "cache write failed"), "game", game), "table", table)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeEntry(entry *domain.CacheEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, zerr.Wrap(err, "failed to encode cache entry")
	}
	compressed := snappy.Encode(nil, buf.Bytes())

	out := make([]byte, len(compressed)+8)
	copy(out, compressed)
	binary.LittleEndian.PutUint64(out[len(compressed):], xxhash.Sum64(compressed))
	return out, nil
}

func decodeEntry(raw []byte) (*domain.CacheEntry, error) {
	if len(raw) < 8 {
		return nil, zerr.Wrap(domain.ErrCacheFreshness, "cache value too short")
	}
	compressed, trailer := raw[:len(raw)-8], raw[len(raw)-8:]
	if xxhash.Sum64(compressed) != binary.LittleEndian.Uint64(trailer) {
		return nil, zerr.Wrap(domain.ErrCacheFreshness, "cache value checksum mismatch")
	}
	decoded, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrCacheFreshness, "cache value decompression failed")
	}
	var entry domain.CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(decoded)).Decode(&entry); err != nil {
		return nil, zerr.Wrap(domain.ErrCacheFreshness, "cache value decode failed")
	}
	return &entry, nil
}
