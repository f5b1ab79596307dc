package ports

import "github.com/packforge/twpatch/internal/core/domain"

// CacheOpener opens the cache database under dir. The directory is created
// when missing.
type CacheOpener interface {
	Open(dir string) (CacheStore, error)
}

// CacheStore is durable storage for decoded vanilla table rows, keyed by
// (game, table). Implementations must be crash consistent: a torn write reads
// back as domain.ErrCacheFreshness, which callers treat as a miss.
type CacheStore interface {
	// Get retrieves the entry for (game, table). Returns nil, nil on a clean
	// miss and nil, domain.ErrCacheFreshness on a corrupt value.
	Get(game, table string) (*domain.CacheEntry, error)

	// Put stores the entry, replacing any previous one for the key.
	Put(game, table string, entry *domain.CacheEntry) error

	Close() error
}
