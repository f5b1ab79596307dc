// Package synth derives patch edits from the merged game state: the feature
// synthesizers behind the CLI's toggle flags.
package synth

import (
	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

// Table and column names the synthesizers touch.
const (
	tableLandUnits    = "land_units"
	tableCampaignVars = "campaign_variables"

	colNumMen        = "num_men"
	colHitPoints     = "bonus_hit_points"
	colWarMachine    = "is_war_machine"
	colSiegeAttacker = "siege_attacker"
	colVarKey        = "key"
	colVarValue      = "value"

	// The engine treats any value at or above the unit's trait slots as
	// unlimited; this just has to be comfortably out of reach.
	traitLimitSentinel = 999

	maxTraitsRowKey = "max_character_traits"

	scriptLoggingBody = "why not working?!!"
)

// Options carries the per-run synthesizer inputs.
type Options struct {
	// Multiplier is the unit size factor. Ignored unless FeatureUnitMultiplier
	// is requested.
	Multiplier float64

	// Tuning is the optional multiplier curve for difficulty-related columns.
	Tuning *Tuning
}

// Synthesizer runs the requested feature synthesizers against the merged
// tables. Every synthesizer is pure: it reads the merged state and emits an
// edit set, never mutating its input.
type Synthesizer struct {
	log ports.Logger
}

// New creates a synthesizer.
func New(log ports.Logger) *Synthesizer {
	return &Synthesizer{log: log}
}

// synthOrder fixes the application order of the synthesizers. Output
// stability depends on this never following flag order.
var synthOrder = []domain.Feature{
	domain.FeatureScriptLogging,
	domain.FeatureSkipIntro,
	domain.FeatureTraitLimit,
	domain.FeatureSiegeAttacker,
	domain.FeatureUnitMultiplier,
}

// RequiredTables returns the merged tables the given features need. The
// caller treats these as must-merge: a decode failure in one of them is
// fatal rather than droppable.
func RequiredTables(game *domain.GameDef, features []domain.Feature) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, f := range features {
		if !game.Supports(f) {
			continue
		}
		switch f {
		case domain.FeatureSkipIntro:
			if game.IntroMode == domain.IntroByTable {
				add(tableVideos, tableCampaignVideos)
			}
		case domain.FeatureTraitLimit:
			add(tableCampaignVars)
		case domain.FeatureSiegeAttacker, domain.FeatureUnitMultiplier:
			add(tableLandUnits)
		}
	}
	return out
}

// Synthesize runs every requested feature the game supports, in fixed order,
// and folds the results into one edit set.
func (s *Synthesizer) Synthesize(game *domain.GameDef, features []domain.Feature, tables domain.MergedTables, opts Options) (*domain.EditSet, error) {
	requested := make(map[domain.Feature]bool, len(features))
	for _, f := range features {
		requested[f] = true
	}

	out := domain.NewEditSet()
	for _, f := range synthOrder {
		if !requested[f] {
			continue
		}
		if !game.Supports(f) {
			s.log.Warn("feature not supported by game, skipping", "feature", f.String(), "game", game.Key)
			continue
		}

		var (
			set *domain.EditSet
			err error
		)
		switch f {
		case domain.FeatureScriptLogging:
			set = s.scriptLogging()
		case domain.FeatureSkipIntro:
			set = s.skipIntro(game, tables)
		case domain.FeatureTraitLimit:
			set = s.traitLimit(tables)
		case domain.FeatureSiegeAttacker:
			set = s.siegeAttacker(tables)
		case domain.FeatureUnitMultiplier:
			set, err = s.unitMultiplier(tables, opts)
		}
		if err != nil {
			return nil, err
		}
		if set != nil {
			out.Apply(set)
		}
	}
	return out, nil
}

// scriptLogging drops the marker file whose presence flips the game's script
// console logging on. The body is irrelevant to the engine.
func (s *Synthesizer) scriptLogging() *domain.EditSet {
	set := domain.NewEditSet()
	set.PutBlob(domain.ScriptLoggingPath, []byte(scriptLoggingBody))
	return set
}

// traitLimit lifts the campaign trait cap by overwriting the limit variable
// with a sentinel.
func (s *Synthesizer) traitLimit(tables domain.MergedTables) *domain.EditSet {
	merged, ok := tables[tableCampaignVars]
	if !ok {
		s.log.Warn("campaign variables table missing, trait limit unchanged")
		return nil
	}

	set := domain.NewEditSet()
	edits := set.Table(merged.Schema)
	row := domain.Row{
		colVarKey:   domain.StringValue(maxTraitsRowKey),
		colVarValue: domain.FloatValue(traitLimitSentinel),
	}
	if existing, ok := merged.Get(merged.Schema.KeyOf(row)); ok {
		row = existing.Clone()
		row[colVarValue] = domain.FloatValue(traitLimitSentinel)
	}
	edits.Put(row)
	return set
}

// siegeAttacker clears the siege attacker attribute on everything that is
// not a war machine, so armies need actual siege equipment again.
func (s *Synthesizer) siegeAttacker(tables domain.MergedTables) *domain.EditSet {
	merged, ok := tables[tableLandUnits]
	if !ok {
		s.log.Warn("land units table missing, siege attacker flags unchanged")
		return nil
	}

	set := domain.NewEditSet()
	edits := set.Table(merged.Schema)
	for _, row := range merged.Rows() {
		if row[colWarMachine].Bool || !row[colSiegeAttacker].Bool {
			continue
		}
		edited := row.Clone()
		edited[colSiegeAttacker] = domain.BoolValue(false)
		edits.Put(edited)
	}
	return set
}
