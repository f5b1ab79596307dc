package schema_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packforge/twpatch/internal/adapters/schema"
	"github.com/packforge/twpatch/internal/core/domain"
)

const wh3Schemas = `
game: warhammer_3
tables:
  land_units:
    version: 3
    columns:
      - name: key
        type: string
        key: true
      - name: num_men
        type: int
      - name: bonus_hit_points
        type: int
      - name: is_war_machine
        type: bool
  battle_entities:
    version: 1
    columns:
      - name: key
        type: string
        key: true
      - name: deleted
        type: bool
        tombstone: true
`

func writeSchemaDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestProvider_LoadsDirectory(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"warhammer_3.yaml": wh3Schemas,
		"notes.txt":        "ignored",
	})

	p, err := schema.NewLoader().Load(dir)
	require.NoError(t, err)

	s, err := p.Schema("warhammer_3", "land_units")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Version)
	assert.Equal(t, []string{"key"}, s.KeyColumns())
	require.NotNil(t, s.Column("num_men"))
	assert.Equal(t, domain.TypeInt, s.Column("num_men").Type)

	assert.Equal(t, []string{"battle_entities", "land_units"}, p.Tables("warhammer_3"))
}

func TestProvider_TombstoneColumn(t *testing.T) {
	p, err := schema.NewProviderFromBytes([]byte(wh3Schemas))
	require.NoError(t, err)

	s, err := p.Schema("warhammer_3", "battle_entities")
	require.NoError(t, err)
	assert.Equal(t, "deleted", s.TombstoneColumn())
}

func TestProvider_UnknownPairs(t *testing.T) {
	p, err := schema.NewProviderFromBytes([]byte(wh3Schemas))
	require.NoError(t, err)

	_, err = p.Schema("warhammer_3", "main_units")
	assert.True(t, errors.Is(err, domain.ErrUnknownSchema))

	_, err = p.Schema("attila", "land_units")
	assert.True(t, errors.Is(err, domain.ErrUnknownSchema))
	assert.Empty(t, p.Tables("attila"))
}

func TestProvider_RejectsBadDefinitions(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing game key", "tables: {}"},
		{"unknown column type", `
game: g
tables:
  t:
    version: 1
    columns:
      - {name: key, type: decimal, key: true}
`},
		{"no key column", `
game: g
tables:
  t:
    version: 1
    columns:
      - {name: value, type: string}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.NewProviderFromBytes([]byte(tc.body))
			assert.Error(t, err)
		})
	}
}
