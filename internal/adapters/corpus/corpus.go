// Package corpus reads the community translation corpus: per-mod translation
// patches and vanilla reference text, stored as tab-separated loc dumps.
package corpus

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

var (
	_ ports.TranslationCorpus = (*Corpus)(nil)
	_ ports.CorpusOpener      = (*Opener)(nil)
)

// Opener implements ports.CorpusOpener.
type Opener struct{}

// NewOpener returns a corpus opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open binds the corpus for one game. A missing game directory is not an
// error; the returned corpus simply has no translations.
func (o *Opener) Open(dir, game string) (ports.TranslationCorpus, error) {
	return &Corpus{root: filepath.Join(dir, game)}, nil
}

// Corpus reads loc dumps from a per-game directory tree:
//
//	<game>/vanilla_english.tsv
//	<game>/vanilla_fixes_<lang>.tsv
//	<game>/<pack>/<lang>.tsv
type Corpus struct {
	root string
}

// Lookup returns the translation patch for (pack, language).
func (c *Corpus) Lookup(packName, language string) ([]domain.LocEntry, bool, error) {
	name := strings.TrimSuffix(packName, ".pack")
	return c.read(filepath.Join(c.root, name, language+".tsv"))
}

// VanillaEnglish returns the reference English loc dump.
func (c *Corpus) VanillaEnglish() ([]domain.LocEntry, error) {
	entries, ok, err := c.read(filepath.Join(c.root, "vanilla_english.tsv"))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, zerr.With(zerr.New("corpus has no vanilla english dump"), "root", c.root)
	}
	return entries, nil
}

// Fixes returns community corrections for the vanilla translation.
func (c *Corpus) Fixes(language string) ([]domain.LocEntry, bool, error) {
	return c.read(filepath.Join(c.root, "vanilla_fixes_"+language+".tsv"))
}

func (c *Corpus) read(path string) ([]domain.LocEntry, bool, error) {
	f, err := os.Open(path) //nolint:gosec // Path is under the corpus root
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, "failed to open corpus file"), "path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, "failed to parse corpus file"), "path", path)
	}

	entries := make([]domain.LocEntry, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 || rec[0] == "" || rec[0] == "key" {
			continue
		}
		e := domain.LocEntry{Key: domain.LocKey(rec[0]), Value: rec[1]}
		if len(rec) > 2 {
			e.Tooltip = rec[2] == "true" || rec[2] == "1"
		}
		entries = append(entries, e)
	}
	return entries, true, nil
}
