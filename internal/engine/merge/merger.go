package merge

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

// VanillaLayer is the provenance name recorded for rows contributed by the
// base game rather than a mod archive.
const VanillaLayer = "vanilla"

// Merger builds merged tables from the vanilla stack plus the resolved data
// load order.
type Merger struct {
	log     ports.Logger
	cache   *ReferenceCache
	schemas ports.SchemaProvider
}

// NewMerger creates a merger.
func NewMerger(log ports.Logger, cache *ReferenceCache, schemas ports.SchemaProvider) *Merger {
	return &Merger{log: log, cache: cache, schemas: schemas}
}

// MergeTable merges one table across the stack: vanilla rows first, then
// each mod archive in load order. A row whose tombstone column is set drops
// its key instead of writing it.
func (m *Merger) MergeTable(game, table string, vanilla, mods []ports.Archive) (*domain.MergedTable, error) {
	schema, err := m.schemas.Schema(game, table)
	if err != nil {
		return nil, err
	}

	merged := domain.NewMergedTable(schema)

	rows, err := m.cache.VanillaRows(game, table, schema, vanilla)
	if err != nil {
		return nil, err
	}
	applyLayer(merged, schema, rows, VanillaLayer)

	for _, a := range mods {
		if !a.HasTable(table) {
			continue
		}
		rows, err := a.DecodeTable(table, schema)
		if err != nil {
			return nil, err
		}
		applyLayer(merged, schema, rows, a.Name())
	}
	return merged, nil
}

func applyLayer(merged *domain.MergedTable, schema *domain.TableSchema, rows []domain.Row, layer string) {
	tombstone := schema.TombstoneColumn()
	for _, row := range rows {
		if tombstone != "" && row[tombstone].Bool {
			merged.Delete(schema.KeyOf(row))
			continue
		}
		merged.Put(row, layer)
	}
}

// MergeAll merges every named table concurrently. A table that fails to
// merge is dropped with a warning unless required marks it, in which case the
// failure is fatal for the run.
func (m *Merger) MergeAll(game string, tables []string, vanilla, mods []ports.Archive, required map[string]bool) (domain.MergedTables, error) {
	var mu sync.Mutex
	out := make(domain.MergedTables, len(tables))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for _, table := range tables {
		g.Go(func() error {
			merged, err := m.MergeTable(game, table, vanilla, mods)
			if err != nil {
				if required[table] {
					return err
				}
				m.log.Warn("table dropped from patch", "table", table, "error", err)
				return nil
			}
			mu.Lock()
			out[table] = merged
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
