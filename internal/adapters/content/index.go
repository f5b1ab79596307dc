// Package content resolves the user's mod list against installed game
// content: the manifest index and the load-order file parser live here.
package content

import (
	"os"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

var (
	_ ports.ContentIndex  = (*Index)(nil)
	_ ports.ContentLoader = (*Loader)(nil)
)

// Loader implements ports.ContentLoader.
type Loader struct{}

// NewLoader returns a content manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

type manifestDTO struct {
	Game      string     `yaml:"game"`
	OutputDir string     `yaml:"output_dir"`
	Vanilla   []entryDTO `yaml:"vanilla"`
	Packs     []entryDTO `yaml:"packs"`
}

type entryDTO struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Category string `yaml:"category"`
}

// Load parses the installed-content manifest at path.
func (l *Loader) Load(path string) (ports.ContentIndex, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-supplied manifest path
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read content manifest"), "path", path)
	}
	var dto manifestDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse content manifest"), "path", path)
	}

	idx := &Index{
		outputDir: dto.OutputDir,
		byName:    make(map[string]domain.ArchiveRef, len(dto.Packs)),
	}
	for _, e := range dto.Vanilla {
		idx.vanilla = append(idx.vanilla, toRef(e))
	}
	for _, e := range dto.Packs {
		ref := toRef(e)
		idx.installed = append(idx.installed, ref)
		idx.byName[ref.Name] = ref
	}
	return idx, nil
}

func toRef(e entryDTO) domain.ArchiveRef {
	category := domain.CategoryData
	if e.Category == "movie" {
		category = domain.CategoryMovie
	}
	return domain.ArchiveRef{Name: e.Name, Path: e.Path, Category: category}
}

// Index is an in-memory view of the installed-content manifest.
type Index struct {
	outputDir string
	vanilla   []domain.ArchiveRef
	installed []domain.ArchiveRef
	byName    map[string]domain.ArchiveRef
}

// NewIndex builds an index directly from refs. Used by tests.
func NewIndex(outputDir string, vanilla, installed []domain.ArchiveRef) *Index {
	idx := &Index{
		outputDir: outputDir,
		vanilla:   vanilla,
		installed: installed,
		byName:    make(map[string]domain.ArchiveRef, len(installed)),
	}
	for _, ref := range installed {
		idx.byName[ref.Name] = ref
	}
	return idx
}

// Lookup resolves a pack name from the mod list.
func (i *Index) Lookup(packName string) (domain.ArchiveRef, bool) {
	ref, ok := i.byName[packName]
	return ref, ok
}

// Vanilla returns the base game's archives in canonical order.
func (i *Index) Vanilla() []domain.ArchiveRef {
	return i.vanilla
}

// Installed returns every known non-vanilla archive.
func (i *Index) Installed() []domain.ArchiveRef {
	return i.installed
}

// OutputDir returns the default directory for the generated pack.
func (i *Index) OutputDir() string {
	return i.outputDir
}
