package app_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packforge/twpatch/internal/adapters/content"
	"github.com/packforge/twpatch/internal/adapters/corpus"
	"github.com/packforge/twpatch/internal/adapters/pack"
	"github.com/packforge/twpatch/internal/adapters/refcache"
	"github.com/packforge/twpatch/internal/adapters/schema"
	"github.com/packforge/twpatch/internal/app"
	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/engine/assemble"
	"github.com/packforge/twpatch/internal/engine/script"
	"github.com/packforge/twpatch/internal/engine/synth"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any) {}
func (nopLogger) Error(err error)              {}

const schemas = `
game: warhammer_3
tables:
  land_units:
    version: 3
    columns:
      - {name: key, type: string, key: true}
      - {name: num_men, type: int}
      - {name: bonus_hit_points, type: int}
      - {name: is_war_machine, type: bool}
      - {name: siege_attacker, type: bool}
`

func newApp() *app.App {
	log := nopLogger{}
	codec := pack.NewCodec()
	return app.New(log, codec, schema.NewLoader(), content.NewLoader(),
		content.NewResolver(log, codec), refcache.NewOpener(), corpus.NewOpener(),
		synth.New(log), script.NewProcessor(log), assemble.New(log, codec, codec))
}

func landUnitsSchema(t *testing.T) *domain.TableSchema {
	t.Helper()
	p, err := schema.NewProviderFromBytes([]byte(schemas))
	require.NoError(t, err)
	s, err := p.Schema("warhammer_3", "land_units")
	require.NoError(t, err)
	return s
}

func unit(key string, numMen int64) domain.Row {
	return domain.Row{
		"key":              domain.StringValue(key),
		"num_men":          domain.IntValue(numMen),
		"bonus_hit_points": domain.IntValue(0),
		"is_war_machine":   domain.BoolValue(false),
		"siege_attacker":   domain.BoolValue(false),
	}
}

func writePack(t *testing.T, dir, name string, s *domain.TableSchema, rows []domain.Row) {
	t.Helper()
	codec := pack.NewCodec()
	data, err := codec.EncodeTable(s, rows)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, &domain.PatchArchive{
		Name:     name,
		Category: domain.CategoryData,
		Files:    []domain.PatchFile{{Path: "db/land_units_tables/data__", Data: data}},
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

// fixture builds a run's worth of on-disk state and returns ready options.
func fixture(t *testing.T) app.RunOptions {
	t.Helper()
	root := t.TempDir()
	s := landUnitsSchema(t)

	schemaDir := filepath.Join(root, "schemas")
	require.NoError(t, os.Mkdir(schemaDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "warhammer_3.yaml"), []byte(schemas), 0o644))

	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.Mkdir(dataDir, 0o755))
	writePack(t, dataDir, "vanilla.pack", s, []domain.Row{unit("halberdiers", 40), unit("cannon", 4)})
	writePack(t, dataDir, "mod_a.pack", s, []domain.Row{unit("halberdiers", 50)})

	manifest := fmt.Sprintf(`
game: warhammer_3
output_dir: %q
vanilla:
  - {name: vanilla.pack, path: %q}
packs:
  - {name: mod_a.pack, path: %q}
`, dataDir, filepath.Join(dataDir, "vanilla.pack"), filepath.Join(dataDir, "mod_a.pack"))
	manifestPath := filepath.Join(root, "content.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	loadOrderPath := filepath.Join(root, "used_mods.txt")
	require.NoError(t, os.WriteFile(loadOrderPath, []byte("mod \"mod_a.pack\";\n"), 0o644))

	return app.RunOptions{
		GameKey:       "warhammer_3",
		LoadOrderPath: loadOrderPath,
		ManifestPath:  manifestPath,
		SchemaDir:     schemaDir,
		CacheDir:      filepath.Join(root, "cache"),
		CorpusDir:     filepath.Join(root, "corpus"),
	}
}

func TestApp_EndToEnd(t *testing.T) {
	opts := fixture(t)
	opts.UnitMultiplier = 1.5
	opts.EnableLogging = true

	path, err := newApp().Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservedPackName, filepath.Base(path))

	opened, err := pack.NewCodec().Open(path, domain.CategoryData)
	require.NoError(t, err)
	defer opened.Close()

	assert.Equal(t, domain.CategoryMovie, opened.Category())

	rows, err := opened.DecodeTable("land_units", landUnitsSchema(t))
	require.NoError(t, err)
	byKey := make(map[string]domain.Row, len(rows))
	for _, row := range rows {
		byKey[row["key"].Str] = row
	}
	// The mod's 50 wins over vanilla's 40 before scaling.
	assert.Equal(t, int64(75), byKey["halberdiers"]["num_men"].Int)
	assert.Equal(t, int64(6), byKey["cannon"]["num_men"].Int)
}

func TestApp_SecondRunHitsCache(t *testing.T) {
	opts := fixture(t)
	opts.UnitMultiplier = 2.0

	a := newApp()
	for i := 0; i < 2; i++ {
		_, err := a.Run(context.Background(), opts)
		require.NoError(t, err)
	}
}

func TestApp_ScriptEdits(t *testing.T) {
	opts := fixture(t)
	scriptPath := filepath.Join(t.TempDir(), "buff.sql")
	require.NoError(t, os.WriteFile(scriptPath, []byte(`-- Tables to import:
--   land_units
-- End of tables to import.
UPDATE land_units SET num_men = num_men + $bonus WHERE key == "cannon";
`), 0o644))
	opts.ScriptPaths = []string{scriptPath}
	opts.ScriptParams = map[string]string{"bonus": "6"}

	path, err := newApp().Run(context.Background(), opts)
	require.NoError(t, err)

	opened, err := pack.NewCodec().Open(path, domain.CategoryData)
	require.NoError(t, err)
	defer opened.Close()

	rows, err := opened.DecodeTable("land_units", landUnitsSchema(t))
	require.NoError(t, err)
	require.Len(t, rows, 1, "only the edited row is re-emitted")
	assert.Equal(t, "cannon", rows[0]["key"].Str)
	assert.Equal(t, int64(10), rows[0]["num_men"].Int)
}

func TestApp_UnknownGame(t *testing.T) {
	opts := fixture(t)
	opts.GameKey = "medieval_2"

	_, err := newApp().Run(context.Background(), opts)
	assert.ErrorIs(t, err, domain.ErrUnknownGame)
}

func TestApp_UnresolvableLoadOrder(t *testing.T) {
	opts := fixture(t)
	opts.LoadOrderPath = filepath.Join(t.TempDir(), "missing.txt")

	_, err := newApp().Run(context.Background(), opts)
	assert.ErrorIs(t, err, domain.ErrResolution)
	assert.Equal(t, 1, app.ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, app.ExitCode(nil))
	assert.Equal(t, 1, app.ExitCode(domain.ErrResolution))
	assert.Equal(t, 2, app.ExitCode(domain.ErrCorruptArchive))
	assert.Equal(t, 2, app.ExitCode(domain.ErrUnknownSchema))
	assert.Equal(t, 3, app.ExitCode(domain.ErrWriteFailure))
}
