package merge

import (
	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

// Localizer assembles the translated text layer for the patch. It only runs
// when the user asked for a translation language; without one the mods' own
// loc files stand.
type Localizer struct {
	log    ports.Logger
	corpus ports.TranslationCorpus
}

// NewLocalizer creates a localizer over the translation corpus.
func NewLocalizer(log ports.Logger, corpus ports.TranslationCorpus) *Localizer {
	return &Localizer{log: log, corpus: corpus}
}

// Localize produces the loc overwrites for the patch, in four passes:
//
//  1. merge the mods' own loc entries across the data load order
//  2. apply community fixes for the vanilla translation
//  3. clean pass: a mod string identical to vanilla English reverts to the
//     vanilla translated string, so untouched text stays localized
//  4. per-mod translation patches from the corpus, load order position
//     deciding collisions, and the corpus winning over the mod's own text
//
// Corpus gaps are never fatal; each degrades with a warning.
func (l *Localizer) Localize(vanilla, mods []ports.Archive, language string) (*domain.EditSet, error) {
	set := domain.NewEditSet()
	if language == "" {
		return set, nil
	}

	vanillaLoc := decodeLocStack(l.log, vanilla, VanillaLayer)
	merged := decodeLocStack(l.log, mods, "")

	english := make(map[domain.LocKey]string)
	if entries, err := l.corpus.VanillaEnglish(); err != nil {
		l.log.Warn("no vanilla english reference, skipping clean pass", "error", err)
	} else {
		for _, e := range entries {
			english[e.Key] = e.Value
		}
	}

	result := domain.NewLocSet()

	fixes, ok, err := l.corpus.Fixes(language)
	if err != nil {
		l.log.Warn("vanilla fixes unreadable, skipping", "language", language, "error", err)
	} else if ok {
		for _, e := range fixes {
			result.Put(e, "fixes")
		}
	}

	for _, key := range merged.Keys() {
		entry, _ := merged.Get(key)
		if eng, ok := english[key]; ok && eng == entry.Value {
			if vanillaEntry, ok := vanillaLoc.Get(key); ok {
				entry.Value = vanillaEntry.Value
			}
		}
		result.Put(entry, merged.Origin(key))
	}

	for _, a := range mods {
		entries, ok, err := l.corpus.Lookup(a.Name(), language)
		if err != nil {
			l.log.Warn("translation patch unreadable, skipping", "pack", a.Name(), "error", err)
			continue
		}
		if !ok {
			continue
		}
		for _, e := range entries {
			// Translations only override keys the mod actually owns in the
			// final stack; a stale corpus must not resurrect removed text.
			if origin := result.Origin(e.Key); origin != "" && origin != a.Name() && origin != "fixes" {
				continue
			}
			result.Put(e, a.Name())
		}
	}

	for _, e := range result.Entries() {
		set.PutLoc(e)
	}
	return set, nil
}

func decodeLocStack(log ports.Logger, archives []ports.Archive, layer string) *domain.LocSet {
	set := domain.NewLocSet()
	for _, a := range archives {
		entries, err := a.DecodeLoc()
		if err != nil {
			log.Warn("loc data unreadable, skipping archive text", "archive", a.Name(), "error", err)
			continue
		}
		name := layer
		if name == "" {
			name = a.Name()
		}
		for _, e := range entries {
			set.Put(e, name)
		}
	}
	return set
}
