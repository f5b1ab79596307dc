package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

var _ ports.LoadOrderResolver = (*Resolver)(nil)

// Resolver parses the game's load-order file and resolves every entry to an
// installed archive.
type Resolver struct {
	log   ports.Logger
	codec ports.ArchiveCodec
}

// NewResolver creates a resolver. The codec probes containers found in
// working directories to discover movie packs the mod list never names.
func NewResolver(log ports.Logger, codec ports.ArchiveCodec) *Resolver {
	return &Resolver{log: log, codec: codec}
}

// Resolve builds the load order for game from the file at path.
func (r *Resolver) Resolve(path string, game *domain.GameDef, index ports.ContentIndex) (domain.LoadOrder, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-supplied load-order path
	if err != nil {
		return domain.LoadOrder{}, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrResolution, "failed to read load order file"),
			"path", path), "cause", err.Error())
	}

	mods, workingDirs := parseLoadOrderFile(string(data))
	if len(mods) == 0 {
		return domain.LoadOrder{}, zerr.With(
			zerr.Wrap(domain.ErrResolution, "load order file lists no mods"), "path", path)
	}

	order := domain.LoadOrder{Game: game.Key}
	listed := make(map[string]bool, len(mods))
	for _, name := range mods {
		listed[name] = true
		if isReservedName(name, game) {
			continue
		}
		ref, ok := r.resolveMod(name, index, workingDirs)
		if !ok {
			r.log.Warn("mod listed in load order but not installed, skipping", "pack", name)
			continue
		}
		if ref.Category == domain.CategoryMovie {
			order.Movie = append(order.Movie, ref)
		} else {
			order.Data = append(order.Data, ref)
		}
	}

	order.Movie = append(order.Movie, r.discoverMoviePacks(game, workingDirs, listed)...)

	if len(order.Data) == 0 && len(order.Movie) == 0 {
		return domain.LoadOrder{}, zerr.With(
			zerr.Wrap(domain.ErrResolution, "no load order entry resolved to an installed archive"),
			"path", path)
	}
	return order, nil
}

func (r *Resolver) resolveMod(name string, index ports.ContentIndex, workingDirs []string) (domain.ArchiveRef, bool) {
	if ref, ok := index.Lookup(name); ok {
		return ref, true
	}
	for _, dir := range workingDirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		return domain.ArchiveRef{Name: name, Path: p, Category: r.probeCategory(p)}, true
	}
	return domain.ArchiveRef{}, false
}

// discoverMoviePacks scans the working directories for packs the mod list
// never names. Containers that declare the movie category join the load
// order anyway; the game engine loads them unconditionally, so the patch has
// to outrank them.
func (r *Resolver) discoverMoviePacks(game *domain.GameDef, workingDirs []string, listed map[string]bool) []domain.ArchiveRef {
	var found []domain.ArchiveRef
	for _, dir := range workingDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			r.log.Warn("unreadable working directory, skipping", "dir", dir)
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".pack") || listed[name] || isReservedName(name, game) {
				continue
			}
			p := filepath.Join(dir, name)
			if r.probeCategory(p) == domain.CategoryMovie {
				r.log.Info("discovered movie pack outside mod list", "pack", name)
				found = append(found, domain.ArchiveRef{Name: name, Path: p, Category: domain.CategoryMovie})
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found
}

func (r *Resolver) probeCategory(path string) domain.Category {
	a, err := r.codec.Open(path, domain.CategoryData)
	if err != nil {
		return domain.CategoryData
	}
	defer a.Close()
	return a.Category()
}

func isReservedName(name string, game *domain.GameDef) bool {
	return name == domain.ReservedPackName || name == domain.ReservedPackNameAlt || name == game.ReservedName()
}

// parseLoadOrderFile reads the grammar the game launcher writes: one
// directive per line, `mod "name.pack";` or `add_working_directory "path";`.
// Unknown lines are ignored.
func parseLoadOrderFile(data string) (mods, workingDirs []string) {
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "mod "):
			if v, ok := quotedArg(line[len("mod "):]); ok {
				mods = append(mods, v)
			}
		case strings.HasPrefix(line, "add_working_directory "):
			if v, ok := quotedArg(line[len("add_working_directory "):]); ok {
				workingDirs = append(workingDirs, v)
			}
		}
	}
	return mods, workingDirs
}

func quotedArg(s string) (string, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ";")
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	return s[1 : len(s)-1], true
}
