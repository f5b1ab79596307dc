package synth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/engine/synth"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any) {}
func (nopLogger) Error(err error)              {}

func landUnitsSchema() *domain.TableSchema {
	return &domain.TableSchema{
		Name:    "land_units",
		Version: 3,
		Columns: []domain.ColumnDef{
			{Name: "key", Type: domain.TypeString, Key: true},
			{Name: "num_men", Type: domain.TypeInt},
			{Name: "bonus_hit_points", Type: domain.TypeInt},
			{Name: "is_war_machine", Type: domain.TypeBool},
			{Name: "siege_attacker", Type: domain.TypeBool},
		},
	}
}

func landUnit(key string, numMen, hitPoints int64, warMachine, siegeAttacker bool) domain.Row {
	return domain.Row{
		"key":              domain.StringValue(key),
		"num_men":          domain.IntValue(numMen),
		"bonus_hit_points": domain.IntValue(hitPoints),
		"is_war_machine":   domain.BoolValue(warMachine),
		"siege_attacker":   domain.BoolValue(siegeAttacker),
	}
}

func landUnitsTable(rows ...domain.Row) domain.MergedTables {
	t := domain.NewMergedTable(landUnitsSchema())
	for _, row := range rows {
		t.Put(row, "vanilla")
	}
	return domain.MergedTables{"land_units": t}
}

func game(t *testing.T, key string) *domain.GameDef {
	t.Helper()
	g, err := domain.GameByKey(key)
	require.NoError(t, err)
	return g
}

func editedRow(t *testing.T, set *domain.EditSet, table, key string) domain.Row {
	t.Helper()
	edits := set.TableByName(table)
	require.NotNil(t, edits)
	for _, row := range edits.Rows() {
		if row["key"].Str == key {
			return row
		}
	}
	t.Fatalf("no edit for %s/%s", table, key)
	return nil
}

func TestUnitMultiplier_ScalesCountOrHealth(t *testing.T) {
	tables := landUnitsTable(
		landUnit("halberdiers", 40, 0, false, false),
		landUnit("giant", 1, 2000, false, false),
	)

	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureUnitMultiplier},
		tables, synth.Options{Multiplier: 1.5})
	require.NoError(t, err)

	assert.Equal(t, int64(60), editedRow(t, set, "land_units", "halberdiers")["num_men"].Int)
	// Single-entity units keep their size and gain health instead.
	giant := editedRow(t, set, "land_units", "giant")
	assert.Equal(t, int64(1), giant["num_men"].Int)
	assert.Equal(t, int64(3000), giant["bonus_hit_points"].Int)

	set, err = s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureUnitMultiplier},
		landUnitsTable(landUnit("giant", 1, 2000, false, false)), synth.Options{Multiplier: 2.0})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), editedRow(t, set, "land_units", "giant")["bonus_hit_points"].Int)
}

func TestUnitMultiplier_RejectsNonPositiveFactor(t *testing.T) {
	s := synth.New(nopLogger{})
	_, err := s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureUnitMultiplier},
		landUnitsTable(), synth.Options{Multiplier: 0})
	assert.Error(t, err)
}

func TestUnitMultiplier_UnsupportedGameIsNoop(t *testing.T) {
	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "attila"), []domain.Feature{domain.FeatureUnitMultiplier},
		landUnitsTable(landUnit("spears", 100, 0, false, false)), synth.Options{Multiplier: 2.0})
	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestUnitMultiplier_TuningCurve(t *testing.T) {
	rulesSchema := &domain.TableSchema{
		Name:    "kv_rules",
		Version: 1,
		Columns: []domain.ColumnDef{
			{Name: "key", Type: domain.TypeString, Key: true},
			{Name: "value", Type: domain.TypeFloat},
		},
	}
	rules := domain.NewMergedTable(rulesSchema)
	rules.Put(domain.Row{"key": domain.StringValue("ammo_scale"), "value": domain.FloatValue(10)}, "vanilla")
	rules.Put(domain.Row{"key": domain.StringValue("unrelated"), "value": domain.FloatValue(5)}, "vanilla")

	tables := landUnitsTable()
	tables["kv_rules"] = rules

	tuning := &synth.Tuning{Curve: []synth.TuningEntry{
		{Table: "kv_rules", Column: "value", Exponent: 2, Rows: []string{"ammo_scale"}},
	}}

	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureUnitMultiplier},
		tables, synth.Options{Multiplier: 2.0, Tuning: tuning})
	require.NoError(t, err)

	// 10 * 2^2
	assert.InDelta(t, 40.0, editedRow(t, set, "kv_rules", "ammo_scale")["value"].Float, 1e-9)
	edits := set.TableByName("kv_rules")
	assert.Equal(t, 1, edits.Len(), "rows outside the filter stay untouched")
}

func TestLoadTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
curve:
  - {table: kv_rules, column: value, exponent: 0.5, rows: [ammo_scale]}
  - {table: campaign_variables, column: value, exponent: 1}
`), 0o644))

	tuning, err := synth.LoadTuning(path)
	require.NoError(t, err)
	require.Len(t, tuning.Curve, 2)
	assert.Equal(t, 0.5, tuning.Curve[0].Exponent)
	assert.Equal(t, []string{"kv_rules", "campaign_variables"}, tuning.Tables())
}

func TestSiegeAttacker_ClearsNonWarMachines(t *testing.T) {
	tables := landUnitsTable(
		landUnit("halberdiers", 40, 0, false, true),
		landUnit("trebuchet", 4, 0, true, true),
		landUnit("archers", 40, 0, false, false),
	)

	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureSiegeAttacker},
		tables, synth.Options{})
	require.NoError(t, err)

	edits := set.TableByName("land_units")
	require.NotNil(t, edits)
	assert.Equal(t, 1, edits.Len(), "war machines and already-clear units stay untouched")
	assert.False(t, editedRow(t, set, "land_units", "halberdiers")["siege_attacker"].Bool)
}

func TestTraitLimit_WritesSentinel(t *testing.T) {
	varsSchema := &domain.TableSchema{
		Name:    "campaign_variables",
		Version: 1,
		Columns: []domain.ColumnDef{
			{Name: "key", Type: domain.TypeString, Key: true},
			{Name: "value", Type: domain.TypeFloat},
		},
	}
	vars := domain.NewMergedTable(varsSchema)
	vars.Put(domain.Row{"key": domain.StringValue("max_character_traits"), "value": domain.FloatValue(12)}, "vanilla")

	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureTraitLimit},
		domain.MergedTables{"campaign_variables": vars}, synth.Options{})
	require.NoError(t, err)

	row := editedRow(t, set, "campaign_variables", "max_character_traits")
	assert.InDelta(t, 999.0, row["value"].Float, 1e-9)
}

func TestScriptLogging_EmitsActivator(t *testing.T) {
	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureScriptLogging},
		nil, synth.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{domain.ScriptLoggingPath}, set.BlobPaths())
	assert.NotEmpty(t, set.Blob(domain.ScriptLoggingPath))
}

func TestSkipIntro_ByBlob(t *testing.T) {
	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "warhammer_3"), []domain.Feature{domain.FeatureSkipIntro},
		nil, synth.Options{})
	require.NoError(t, err)

	paths := set.BlobPaths()
	require.Len(t, paths, 3)
	assert.Equal(t, "movies/startup_movie_01.ca_vp8", paths[0])
	assert.Equal(t, []byte("CAMV"), set.Blob(paths[0])[:4])

	set, err = s.Synthesize(game(t, "shogun_2"), []domain.Feature{domain.FeatureSkipIntro},
		nil, synth.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, set.BlobPaths())
	assert.Equal(t, "movies/startup_movie_01.bik", set.BlobPaths()[0])
	assert.Equal(t, []byte("BIKi"), set.Blob(set.BlobPaths()[0])[:4])
}

func TestSkipIntro_ByTable(t *testing.T) {
	videosSchema := &domain.TableSchema{
		Name:    "videos",
		Version: 1,
		Columns: []domain.ColumnDef{
			{Name: "key", Type: domain.TypeString, Key: true},
			{Name: "video_name", Type: domain.TypeString},
		},
	}
	videos := domain.NewMergedTable(videosSchema)
	videos.Put(domain.Row{
		"key":        domain.StringValue("startup_movie_01"),
		"video_name": domain.StringValue("startup_movie_01"),
	}, "vanilla")
	videos.Put(domain.Row{
		"key":        domain.StringValue("battle_intro"),
		"video_name": domain.StringValue("battle_intro"),
	}, "vanilla")

	s := synth.New(nopLogger{})
	set, err := s.Synthesize(game(t, "pharaoh"), []domain.Feature{domain.FeatureSkipIntro},
		domain.MergedTables{"videos": videos}, synth.Options{})
	require.NoError(t, err)

	edits := set.TableByName("videos")
	require.NotNil(t, edits)
	assert.True(t, edits.LowPriority)
	assert.Equal(t, 2, edits.Len(), "the full manifest is re-emitted")
	assert.Equal(t, "startup_movie_01dummy",
		editedRow(t, set, "videos", "startup_movie_01")["video_name"].Str)
	assert.Equal(t, "battle_intro",
		editedRow(t, set, "videos", "battle_intro")["video_name"].Str)
	assert.Empty(t, set.BlobPaths())
}

func TestRequiredTables(t *testing.T) {
	wh3 := game(t, "warhammer_3")
	assert.Empty(t, synth.RequiredTables(wh3, []domain.Feature{domain.FeatureScriptLogging}))
	assert.Equal(t, []string{"campaign_variables", "land_units"},
		synth.RequiredTables(wh3, []domain.Feature{domain.FeatureTraitLimit, domain.FeatureSiegeAttacker}))

	// Blob-mode intro skip needs no tables; table-mode does.
	assert.Empty(t, synth.RequiredTables(wh3, []domain.Feature{domain.FeatureSkipIntro}))
	assert.Equal(t, []string{"videos", "campaign_videos"},
		synth.RequiredTables(game(t, "pharaoh"), []domain.Feature{domain.FeatureSkipIntro}))
}
