// Package assemble turns the accumulated edit sets into the final patch
// archive and writes it atomically.
package assemble

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

// In-archive layout of the generated pack.
const (
	tableFileName = "data__"

	// lowPriorityPrefix demotes a table file below every mod's own files in
	// the game's in-directory sort.
	lowPriorityPrefix = "~"

	modernLocPath = "text/db/patch.loc"
	legacyLocPath = "text/localisation.loc"
)

// Assembler combines edit sets into one archive.
type Assembler struct {
	log    ports.Logger
	codec  ports.ArchiveCodec
	tables ports.TableCodec
}

// New creates an assembler.
func New(log ports.Logger, codec ports.ArchiveCodec, tables ports.TableCodec) *Assembler {
	return &Assembler{log: log, codec: codec, tables: tables}
}

// Inputs are the per-run edit sets, in their fixed precedence order:
// localization first, then the synthesizers, then script edits on top.
type Inputs struct {
	Game  *domain.GameDef
	Order *domain.LoadOrder

	Localization *domain.EditSet
	Synth        *domain.EditSet
	Script       *domain.EditSet
}

// Assemble folds the edit sets together and serializes every touched table,
// the loc file and the raw blobs into a patch archive ready to write.
func (a *Assembler) Assemble(in Inputs) (*domain.PatchArchive, error) {
	combined := domain.NewEditSet()
	for _, set := range []*domain.EditSet{in.Localization, in.Synth, in.Script} {
		if set != nil {
			combined.Apply(set)
		}
	}

	patch := &domain.PatchArchive{
		Name:         in.Game.ReservedName(),
		Game:         in.Game.Key,
		Category:     domain.CategoryMovie,
		Dependencies: in.Order.All().Names(),
		Real:         in.Game.RealDependencies,
	}

	for _, name := range combined.TableNames() {
		edits := combined.TableByName(name)
		if edits.Len() == 0 {
			continue
		}
		data, err := a.tables.EncodeTable(edits.Schema, edits.Rows())
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to encode table"), "table", name)
		}
		fileName := tableFileName
		if edits.LowPriority {
			fileName = lowPriorityPrefix + fileName
		}
		patch.Files = append(patch.Files, domain.PatchFile{
			Path: "db/" + name + "_tables/" + fileName,
			Data: data,
		})
	}

	if locs := combined.Locs(); len(locs) > 0 {
		data, err := a.tables.EncodeLoc(locs)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to encode loc entries")
		}
		path := modernLocPath
		if in.Game.OldMultilanguage {
			path = legacyLocPath
		}
		patch.Files = append(patch.Files, domain.PatchFile{Path: path, Data: data})
	}

	for _, path := range combined.BlobPaths() {
		patch.Files = append(patch.Files, domain.PatchFile{Path: path, Data: combined.Blob(path)})
	}

	return patch, nil
}

// Write serializes the patch into dir and returns the final path. The
// archive is written to a temporary name and renamed into place, so a
// failure never leaves a partial pack where the game would load it.
func (a *Assembler) Write(patch *domain.PatchArchive, dir string) (string, error) {
	final := filepath.Join(dir, patch.Name)
	tmp := filepath.Join(dir, ".twpatch-"+uuid.NewString()+".tmp")

	f, err := os.Create(tmp) //nolint:gosec // Temp name under the output dir
	if err != nil {
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrWriteFailure, "cannot create temp file"),
			"path", tmp), "cause", err.Error())
	}

	if err := a.codec.Encode(f, patch); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrWriteFailure, "archive serialization failed"),
			"path", tmp), "cause", err.Error())
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrWriteFailure, "sync failed"), "path", tmp), "cause", err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrWriteFailure, "close failed"), "path", tmp), "cause", err.Error())
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrWriteFailure, "rename into place failed"),
			"path", final), "cause", err.Error())
	}

	if info, err := os.Stat(final); err == nil {
		a.log.Info("patch archive written", "path", final,
			"files", len(patch.Files), "size", humanize.Bytes(uint64(info.Size())))
	}
	return final, nil
}
