package synth

import (
	"math"
	"os"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/packforge/twpatch/internal/core/domain"
)

// Tuning is the optional multiplier curve: difficulty-related columns that
// scale with a power of the unit factor instead of linearly. Bigger armies
// make flat bonuses stronger, so these columns grow sub- or super-linearly
// to compensate.
type Tuning struct {
	Curve []TuningEntry `yaml:"curve"`
}

// TuningEntry scales one column by multiplier^Exponent.
type TuningEntry struct {
	Table    string  `yaml:"table"`
	Column   string  `yaml:"column"`
	Exponent float64 `yaml:"exponent"`

	// Rows restricts the scaling to the listed row keys. Empty means every row.
	Rows []string `yaml:"rows"`
}

// LoadTuning reads a tuning curve file.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-supplied tuning path
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read tuning file"), "path", path)
	}
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse tuning file"), "path", path)
	}
	return &t, nil
}

// Tables returns the table names the curve touches.
func (t *Tuning) Tables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.Curve {
		if !seen[e.Table] {
			seen[e.Table] = true
			out = append(out, e.Table)
		}
	}
	return out
}

// unitMultiplier scales unit sizes. Multi-entity units get their entity
// count scaled; single-entity units grow health instead, mirroring how the
// game balances lords and monsters. Curve-listed columns scale by
// multiplier^exponent.
func (s *Synthesizer) unitMultiplier(tables domain.MergedTables, opts Options) (*domain.EditSet, error) {
	if opts.Multiplier <= 0 {
		return nil, zerr.With(zerr.New("unit multiplier must be positive"), "multiplier", opts.Multiplier)
	}

	set := domain.NewEditSet()

	if merged, ok := tables[tableLandUnits]; ok {
		edits := set.Table(merged.Schema)
		for _, row := range merged.Rows() {
			edited := row.Clone()
			if men := row[colNumMen].Int; men > 1 {
				edited[colNumMen] = domain.IntValue(scaleInt(men, opts.Multiplier))
			} else {
				edited[colHitPoints] = domain.IntValue(scaleInt(row[colHitPoints].Int, opts.Multiplier))
			}
			edits.Put(edited)
		}
	} else {
		s.log.Warn("land units table missing, unit sizes unchanged")
	}

	if opts.Tuning != nil {
		s.applyCurve(tables, opts, set)
	}
	return set, nil
}

func (s *Synthesizer) applyCurve(tables domain.MergedTables, opts Options, set *domain.EditSet) {
	for _, entry := range opts.Tuning.Curve {
		merged, ok := tables[entry.Table]
		if !ok {
			s.log.Warn("tuning table missing, skipping curve entry", "table", entry.Table)
			continue
		}
		col := merged.Schema.Column(entry.Column)
		if col == nil {
			s.log.Warn("tuning column unknown, skipping curve entry",
				"table", entry.Table, "column", entry.Column)
			continue
		}

		wanted := make(map[string]bool, len(entry.Rows))
		for _, k := range entry.Rows {
			wanted[k] = true
		}
		keyCols := merged.Schema.KeyColumns()

		factor := math.Pow(opts.Multiplier, entry.Exponent)
		edits := set.Table(merged.Schema)
		for _, row := range merged.Rows() {
			if len(wanted) > 0 && !matchesKey(row, keyCols, wanted) {
				continue
			}
			edited := row.Clone()
			switch col.Type {
			case domain.TypeFloat:
				edited[entry.Column] = domain.FloatValue(row[entry.Column].Float * factor)
			case domain.TypeInt:
				edited[entry.Column] = domain.IntValue(scaleInt(row[entry.Column].Int, factor))
			default:
				continue
			}
			edits.Put(edited)
		}
	}
}

func matchesKey(row domain.Row, keyCols []string, wanted map[string]bool) bool {
	for _, kc := range keyCols {
		if wanted[row[kc].Str] {
			return true
		}
	}
	return false
}

func scaleInt(v int64, factor float64) int64 {
	return int64(math.Round(float64(v) * factor))
}
