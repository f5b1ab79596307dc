// Package merge builds the layered view of the load order: vanilla rows via
// the reference cache, mod rows on top, and the localization passes.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

// StackFingerprint derives one signature for a whole archive stack. Any
// archive changing, appearing or reordering changes the result.
func StackFingerprint(archives []ports.Archive) string {
	var b strings.Builder
	for _, a := range archives {
		b.WriteString(a.Name())
		b.WriteByte(0)
		b.WriteString(a.Fingerprint())
		b.WriteByte(0)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// ReferenceCache serves decoded vanilla rows per (game, table), backed by a
// persistent store. Freshness is checked against the vanilla stack
// fingerprint; stale or corrupt entries rebuild silently.
type ReferenceCache struct {
	log   ports.Logger
	store ports.CacheStore
	group singleflight.Group
}

// NewReferenceCache creates a reference cache over store.
func NewReferenceCache(log ports.Logger, store ports.CacheStore) *ReferenceCache {
	return &ReferenceCache{log: log, store: store}
}

// VanillaRows returns the decoded vanilla rows for table, cached. The rows
// are concatenated across the vanilla archives in stack order; later
// archives' rows come later so the merger's override semantics apply
// unchanged. A decode failure is returned as is: vanilla content that cannot
// be decoded is never papered over.
func (c *ReferenceCache) VanillaRows(game, table string, schema *domain.TableSchema, vanilla []ports.Archive) ([]domain.Row, error) {
	fingerprint := StackFingerprint(vanilla)

	v, err, _ := c.group.Do(game+"/"+table, func() (any, error) {
		entry, err := c.store.Get(game, table)
		if err != nil {
			if !errors.Is(err, domain.ErrCacheFreshness) {
				return nil, err
			}
			c.log.Warn("reference cache entry unreadable, rebuilding", "game", game, "table", table)
			entry = nil
		}
		if entry != nil && entry.Fingerprint == fingerprint {
			return entry.Rows, nil
		}

		rows, err := decodeStack(table, schema, vanilla)
		if err != nil {
			return nil, err
		}
		if err := c.store.Put(game, table, &domain.CacheEntry{Fingerprint: fingerprint, Rows: rows}); err != nil {
			c.log.Warn("reference cache write failed", "game", game, "table", table, "error", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Row), nil
}

func decodeStack(table string, schema *domain.TableSchema, archives []ports.Archive) ([]domain.Row, error) {
	var rows []domain.Row
	for _, a := range archives {
		if !a.HasTable(table) {
			continue
		}
		decoded, err := a.DecodeTable(table, schema)
		if err != nil {
			return nil, err
		}
		rows = append(rows, decoded...)
	}
	return rows, nil
}
