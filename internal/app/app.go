// Package app implements the application layer: the patch synthesis
// pipeline from load order to written archive.
package app

import (
	"context"
	"errors"
	"os"
	"sort"

	"go.trai.ch/zerr"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
	"github.com/packforge/twpatch/internal/engine/assemble"
	"github.com/packforge/twpatch/internal/engine/merge"
	"github.com/packforge/twpatch/internal/engine/script"
	"github.com/packforge/twpatch/internal/engine/synth"
)

// App wires the pipeline stages together.
type App struct {
	log           ports.Logger
	codec         ports.ArchiveCodec
	schemaLoader  ports.SchemaLoader
	contentLoader ports.ContentLoader
	resolver      ports.LoadOrderResolver
	cacheOpener   ports.CacheOpener
	corpusOpener  ports.CorpusOpener
	synthesizer   *synth.Synthesizer
	scripts       *script.Processor
	assembler     *assemble.Assembler
}

// New creates the app.
func New(
	log ports.Logger,
	codec ports.ArchiveCodec,
	schemaLoader ports.SchemaLoader,
	contentLoader ports.ContentLoader,
	resolver ports.LoadOrderResolver,
	cacheOpener ports.CacheOpener,
	corpusOpener ports.CorpusOpener,
	synthesizer *synth.Synthesizer,
	scripts *script.Processor,
	assembler *assemble.Assembler,
) *App {
	return &App{
		log:           log,
		codec:         codec,
		schemaLoader:  schemaLoader,
		contentLoader: contentLoader,
		resolver:      resolver,
		cacheOpener:   cacheOpener,
		corpusOpener:  corpusOpener,
		synthesizer:   synthesizer,
		scripts:       scripts,
		assembler:     assembler,
	}
}

// RunOptions carries everything one patch run needs, mapped straight from
// the CLI flags.
type RunOptions struct {
	GameKey       string
	LoadOrderPath string
	ManifestPath  string
	SchemaDir     string
	CacheDir      string
	CorpusDir     string

	// OutputDir overrides the manifest's default output directory when set.
	OutputDir string

	EnableLogging       bool
	SkipIntroVideos     bool
	RemoveTraitLimit    bool
	RemoveSiegeAttacker bool

	// UnitMultiplier of 0 means the feature is off.
	UnitMultiplier float64
	TuningPath     string

	TranslationLanguage string

	ScriptPaths  []string
	ScriptParams map[string]string
}

func (o *RunOptions) features() []domain.Feature {
	var fs []domain.Feature
	if o.EnableLogging {
		fs = append(fs, domain.FeatureScriptLogging)
	}
	if o.SkipIntroVideos {
		fs = append(fs, domain.FeatureSkipIntro)
	}
	if o.RemoveTraitLimit {
		fs = append(fs, domain.FeatureTraitLimit)
	}
	if o.RemoveSiegeAttacker {
		fs = append(fs, domain.FeatureSiegeAttacker)
	}
	if o.UnitMultiplier > 0 {
		fs = append(fs, domain.FeatureUnitMultiplier)
	}
	return fs
}

// Run executes the full pipeline and returns the path of the written patch.
func (a *App) Run(ctx context.Context, opts RunOptions) (string, error) {
	game, err := domain.GameByKey(opts.GameKey)
	if err != nil {
		// Wrap before attaching metadata so the sentinel stays in the chain.
		return "", zerr.With(zerr.Wrap(err, "unknown game key"), "game", opts.GameKey)
	}

	schemas, err := a.schemaLoader.Load(opts.SchemaDir)
	if err != nil {
		return "", err
	}
	index, err := a.contentLoader.Load(opts.ManifestPath)
	if err != nil {
		return "", err
	}

	order, err := a.resolver.Resolve(opts.LoadOrderPath, game, index)
	if err != nil {
		return "", err
	}
	a.log.Info("load order resolved", "game", game.Key,
		"data", len(order.Data), "movie", len(order.Movie))

	var tuning *synth.Tuning
	if opts.TuningPath != "" {
		if tuning, err = synth.LoadTuning(opts.TuningPath); err != nil {
			return "", err
		}
	}
	scripts := a.loadScripts(opts)

	vanilla, err := a.openArchives(index.Vanilla())
	if err != nil {
		return "", err
	}
	defer closeAll(vanilla)

	mods, err := a.openArchives(order.Data)
	if err != nil {
		return "", err
	}
	defer closeAll(mods)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	store, err := a.cacheOpener.Open(opts.CacheDir)
	if err != nil {
		return "", err
	}
	defer store.Close()

	features := opts.features()
	required := requiredTables(game, features, tuning, scripts)
	tables := mergeTargets(mods, required)

	merger := merge.NewMerger(a.log, merge.NewReferenceCache(a.log, store), schemas)
	merged, err := merger.MergeAll(game.Key, tables, vanilla, mods, required)
	if err != nil {
		return "", err
	}

	var locSet *domain.EditSet
	if opts.TranslationLanguage != "" {
		corpus, err := a.corpusOpener.Open(opts.CorpusDir, game.Key)
		if err != nil {
			return "", err
		}
		localizer := merge.NewLocalizer(a.log, corpus)
		if locSet, err = localizer.Localize(vanilla, mods, opts.TranslationLanguage); err != nil {
			return "", err
		}
	}

	synthSet, err := a.synthesizer.Synthesize(game, features, merged,
		synth.Options{Multiplier: opts.UnitMultiplier, Tuning: tuning})
	if err != nil {
		return "", err
	}

	scriptSet, err := a.scripts.Run(scripts, merged)
	if err != nil {
		return "", err
	}

	patch, err := a.assembler.Assemble(assemble.Inputs{
		Game:         game,
		Order:        &order,
		Localization: locSet,
		Synth:        synthSet,
		Script:       scriptSet,
	})
	if err != nil {
		return "", err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = index.OutputDir()
	}
	return a.assembler.Write(patch, outputDir)
}

// loadScripts parses the requested script files. A script that fails to
// parse is skipped with a warning unless a placeholder is unbound, which is
// a user error worth failing loudly inside that script's scope too.
func (a *App) loadScripts(opts RunOptions) []*script.Script {
	var out []*script.Script
	for _, path := range opts.ScriptPaths {
		data, err := os.ReadFile(path) //nolint:gosec // User-supplied script path
		if err != nil {
			a.log.Warn("script unreadable, skipping", "path", path, "error", err)
			continue
		}
		s, err := script.Parse(path, string(data), opts.ScriptParams)
		if err != nil {
			a.log.Warn("script rejected, skipping", "path", path, "error", err)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (a *App) openArchives(refs []domain.ArchiveRef) ([]ports.Archive, error) {
	out := make([]ports.Archive, 0, len(refs))
	for _, ref := range refs {
		archive, err := a.codec.Open(ref.Path, ref.Category)
		if err != nil {
			closeAll(out)
			return nil, zerr.With(err, "pack", ref.Name)
		}
		out = append(out, archive)
	}
	return out, nil
}

func closeAll(archives []ports.Archive) {
	for _, a := range archives {
		a.Close()
	}
}

// requiredTables collects the tables whose merge failure must abort the run:
// everything the enabled features and scripts depend on.
func requiredTables(game *domain.GameDef, features []domain.Feature, tuning *synth.Tuning, scripts []*script.Script) map[string]bool {
	required := make(map[string]bool)
	for _, name := range synth.RequiredTables(game, features) {
		required[name] = true
	}
	if tuning != nil {
		for _, name := range tuning.Tables() {
			required[name] = true
		}
	}
	for _, s := range scripts {
		for _, name := range s.Tables {
			required[name] = true
		}
	}
	return required
}

// mergeTargets is the union of every table the mods touch and every table
// the run requires, sorted for a stable merge schedule.
func mergeTargets(mods []ports.Archive, required map[string]bool) []string {
	seen := make(map[string]bool, len(required))
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, a := range mods {
		for _, name := range a.Tables() {
			add(name)
		}
	}
	for name := range required {
		add(name)
	}
	sort.Strings(out)
	return out
}

// ExitCode maps a pipeline error onto the process exit code contract:
// 1 resolution, 2 archive or schema decode, 3 write, 0 success.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrWriteFailure):
		return 3
	case errors.Is(err, domain.ErrCorruptArchive), errors.Is(err, domain.ErrUnknownSchema):
		return 2
	default:
		return 1
	}
}
