package ports

import "github.com/packforge/twpatch/internal/core/domain"

// CorpusOpener opens the translation corpus for one game. A missing corpus
// directory yields a corpus that reports no translations.
type CorpusOpener interface {
	Open(dir, game string) (TranslationCorpus, error)
}

// TranslationCorpus gives read access to the community translation corpus.
// Retrieval and freshness of the corpus itself are outside the pipeline.
type TranslationCorpus interface {
	// Lookup returns the translation patch for (pack, language), if one
	// exists. The boolean reports presence; an error means the patch exists
	// but could not be read.
	Lookup(packName, language string) ([]domain.LocEntry, bool, error)

	// VanillaEnglish returns the reference English loc dump for the game,
	// used by the clean pass to detect untouched mod strings.
	VanillaEnglish() ([]domain.LocEntry, error)

	// Fixes returns community corrections for the vanilla translation in the
	// given language. Missing fixes are not an error.
	Fixes(language string) ([]domain.LocEntry, bool, error)
}
