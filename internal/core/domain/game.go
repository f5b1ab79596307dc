package domain

// Feature enumerates the closed set of patch synthesizers. New features are
// added here, not discovered dynamically.
type Feature int8

const (
	FeatureScriptLogging Feature = iota
	FeatureSkipIntro
	FeatureTraitLimit
	FeatureSiegeAttacker
	FeatureUnitMultiplier
	FeatureTranslations
)

// String returns the flag-style name of the feature.
func (f Feature) String() string {
	switch f {
	case FeatureScriptLogging:
		return "enable-logging"
	case FeatureSkipIntro:
		return "skip-intro-videos"
	case FeatureTraitLimit:
		return "remove-trait-limit"
	case FeatureSiegeAttacker:
		return "remove-siege-attacker"
	case FeatureUnitMultiplier:
		return "unit-multiplier"
	case FeatureTranslations:
		return "translation-language"
	default:
		return "unknown-feature"
	}
}

// IntroMode selects how a game's intro videos are skipped.
type IntroMode int8

const (
	// IntroByBlob replaces the video files themselves with minimal valid
	// placeholders.
	IntroByBlob IntroMode = iota
	// IntroByTable repoints the video manifest tables at names that resolve to
	// nothing.
	IntroByTable
)

// Reserved names of the generated pack. Chosen so lexical load-order sorting
// places the pack after every other data or movie archive. Older titles sort
// movie packs the other way around and need the alternative.
const (
	ReservedPackName    = "zzzzzzzzzzzzzzzzzzzzrun_you_fool_thron.pack"
	ReservedPackNameAlt = "!!!!!!!!!!!!!!!!!!!!!run_you_fool_thron.pack"
)

// ScriptLoggingPath is the in-archive marker file whose presence enables the
// game's script console logging.
const ScriptLoggingPath = "script/enable_console_logging"

// GameDef is the static description of one supported game: which features
// apply, how its load order and generated pack behave, and where its intro
// videos live.
type GameDef struct {
	Key         string
	DisplayName string

	// OldMultilanguage selects the legacy single-file localisation flow used
	// by titles up to and including Attila.
	OldMultilanguage bool

	// AltReservedName selects ReservedPackNameAlt for titles whose movie-pack
	// ordering breaks on the standard name.
	AltReservedName bool

	// RealDependencies controls whether the generated pack's dependency list
	// is honored by the game or merely decorative.
	RealDependencies bool

	IntroMode IntroMode

	// IntroMoviePaths are the blob paths replaced under IntroByBlob.
	IntroMoviePaths []string

	// IntroMovieKeys are the manifest row keys repointed under IntroByTable.
	IntroMovieKeys []string

	// IntroMovieFormat is the placeholder container format, "ca_vp8" or "bik".
	IntroMovieFormat string

	features map[Feature]bool
}

// Supports reports whether the feature does anything for this game.
func (g *GameDef) Supports(f Feature) bool {
	return g.features[f]
}

// ReservedName returns the generated pack's filename for this game.
func (g *GameDef) ReservedName() string {
	if g.AltReservedName {
		return ReservedPackNameAlt
	}
	return ReservedPackName
}

var modernIntroPaths = []string{
	"movies/startup_movie_01.ca_vp8",
	"movies/startup_movie_02.ca_vp8",
	"movies/startup_movie_03.ca_vp8",
}

var legacyIntroPaths = []string{
	"movies/startup_movie_01.bik",
	"movies/startup_movie_02.bik",
	"movies/startup_movie_03.bik",
}

var introManifestKeys = []string{
	"startup_movie_01",
	"startup_movie_02",
	"startup_movie_03",
}

func features(fs ...Feature) map[Feature]bool {
	m := make(map[Feature]bool, len(fs))
	for _, f := range fs {
		m[f] = true
	}
	return m
}

var games = []*GameDef{
	{
		Key: "warhammer_3", DisplayName: "Total War: Warhammer 3",
		RealDependencies: true,
		IntroMode:        IntroByBlob, IntroMoviePaths: modernIntroPaths, IntroMovieFormat: "ca_vp8",
		features: features(FeatureScriptLogging, FeatureSkipIntro, FeatureTraitLimit,
			FeatureSiegeAttacker, FeatureUnitMultiplier, FeatureTranslations),
	},
	{
		Key: "warhammer_2", DisplayName: "Total War: Warhammer 2",
		RealDependencies: true,
		IntroMode:        IntroByBlob, IntroMoviePaths: modernIntroPaths, IntroMovieFormat: "ca_vp8",
		features: features(FeatureScriptLogging, FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "warhammer", DisplayName: "Total War: Warhammer",
		RealDependencies: true,
		IntroMode:        IntroByBlob, IntroMoviePaths: modernIntroPaths, IntroMovieFormat: "ca_vp8",
		features: features(FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "three_kingdoms", DisplayName: "Total War: Three Kingdoms",
		RealDependencies: true,
		IntroMode:        IntroByBlob, IntroMoviePaths: modernIntroPaths, IntroMovieFormat: "ca_vp8",
		features: features(FeatureSkipIntro, FeatureUnitMultiplier, FeatureTranslations),
	},
	{
		Key: "troy", DisplayName: "Total War Saga: Troy",
		RealDependencies: true,
		IntroMode:        IntroByTable, IntroMovieKeys: introManifestKeys, IntroMovieFormat: "ca_vp8",
		features: features(FeatureScriptLogging, FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "pharaoh", DisplayName: "Total War: Pharaoh",
		RealDependencies: true,
		IntroMode:        IntroByTable, IntroMovieKeys: introManifestKeys, IntroMovieFormat: "ca_vp8",
		features: features(FeatureScriptLogging, FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "pharaoh_dynasties", DisplayName: "Total War: Pharaoh Dynasties",
		RealDependencies: true,
		IntroMode:        IntroByTable, IntroMovieKeys: introManifestKeys, IntroMovieFormat: "ca_vp8",
		features: features(FeatureScriptLogging, FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "thrones_of_britannia", DisplayName: "Total War Saga: Thrones of Britannia",
		OldMultilanguage: true, AltReservedName: true,
		IntroMode: IntroByBlob, IntroMoviePaths: modernIntroPaths, IntroMovieFormat: "ca_vp8",
		features: features(FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "attila", DisplayName: "Total War: Attila",
		OldMultilanguage: true, AltReservedName: true,
		IntroMode: IntroByBlob, IntroMoviePaths: modernIntroPaths, IntroMovieFormat: "ca_vp8",
		features: features(FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "rome_2", DisplayName: "Total War: Rome 2",
		OldMultilanguage: true, AltReservedName: true,
		IntroMode: IntroByBlob, IntroMoviePaths: modernIntroPaths, IntroMovieFormat: "ca_vp8",
		features: features(FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "shogun_2", DisplayName: "Total War: Shogun 2",
		OldMultilanguage: true, AltReservedName: true,
		IntroMode: IntroByBlob, IntroMoviePaths: legacyIntroPaths, IntroMovieFormat: "bik",
		features: features(FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "napoleon", DisplayName: "Napoleon: Total War",
		OldMultilanguage: true,
		IntroMode:        IntroByBlob, IntroMoviePaths: legacyIntroPaths, IntroMovieFormat: "bik",
		features: features(FeatureSkipIntro, FeatureTranslations),
	},
	{
		Key: "empire", DisplayName: "Empire: Total War",
		OldMultilanguage: true,
		IntroMode:        IntroByBlob, IntroMoviePaths: legacyIntroPaths, IntroMovieFormat: "bik",
		features: features(FeatureSkipIntro, FeatureTranslations),
	},
}

// GameByKey returns the registered game definition for key.
func GameByKey(key string) (*GameDef, error) {
	for _, g := range games {
		if g.Key == key {
			return g, nil
		}
	}
	return nil, ErrUnknownGame
}

// GameKeys returns all registered game keys, in registration order.
func GameKeys() []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Key
	}
	return out
}
