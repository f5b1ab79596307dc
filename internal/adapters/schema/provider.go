// Package schema loads table schema definitions from per-game YAML files.
package schema

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/packforge/twpatch/internal/core/domain"
	"github.com/packforge/twpatch/internal/core/ports"
)

var (
	_ ports.SchemaProvider = (*Provider)(nil)
	_ ports.SchemaLoader   = (*Loader)(nil)
)

// Loader implements ports.SchemaLoader.
type Loader struct{}

// NewLoader returns a schema loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load builds a provider from the definition files under dir.
func (l *Loader) Load(dir string) (ports.SchemaProvider, error) {
	return NewProvider(dir)
}

// Provider implements ports.SchemaProvider from a directory of
// "<game_key>.yaml" definition files.
type Provider struct {
	games map[string]map[string]*domain.TableSchema
}

type schemaFile struct {
	Game   string              `yaml:"game"`
	Tables map[string]tableDTO `yaml:"tables"`
}

type tableDTO struct {
	Version int         `yaml:"version"`
	Columns []columnDTO `yaml:"columns"`
}

type columnDTO struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Key       bool   `yaml:"key"`
	Tombstone bool   `yaml:"tombstone"`
}

// NewProvider loads every schema file under dir.
func NewProvider(dir string) (*Provider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read schema directory"), "dir", dir)
	}

	p := &Provider{games: make(map[string]map[string]*domain.TableSchema)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		if err := p.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewProviderFromBytes builds a provider from one in-memory definition file.
// Used by tests and embedded defaults.
func NewProviderFromBytes(data []byte) (*Provider, error) {
	p := &Provider{games: make(map[string]map[string]*domain.TableSchema)}
	if err := p.loadBytes(data, "<inline>"); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path is under the configured schema dir
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read schema file"), "path", path)
	}
	return p.loadBytes(data, path)
}

func (p *Provider) loadBytes(data []byte, origin string) error {
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to parse schema file"), "path", origin)
	}
	if file.Game == "" {
		return zerr.With(zerr.New("schema file missing game key"), "path", origin)
	}

	tables := make(map[string]*domain.TableSchema, len(file.Tables))
	for name, dto := range file.Tables {
		schema := &domain.TableSchema{Name: name, Version: dto.Version}
		for _, col := range dto.Columns {
			colType, err := parseColumnType(col.Type)
			if err != nil {
				return zerr.With(zerr.With(zerr.With(err, "path", origin), "table", name), "column", col.Name)
			}
			schema.Columns = append(schema.Columns, domain.ColumnDef{
				Name:      col.Name,
				Type:      colType,
				Key:       col.Key,
				Tombstone: col.Tombstone,
			})
		}
		if len(schema.KeyColumns()) == 0 {
			return zerr.With(zerr.With(zerr.New("schema declares no key column"), "path", origin), "table", name)
		}
		tables[name] = schema
	}
	p.games[file.Game] = tables
	return nil
}

func parseColumnType(s string) (domain.ColumnType, error) {
	switch s {
	case "int":
		return domain.TypeInt, nil
	case "float":
		return domain.TypeFloat, nil
	case "bool":
		return domain.TypeBool, nil
	case "string":
		return domain.TypeString, nil
	case "blobref":
		return domain.TypeBlobRef, nil
	default:
		return 0, zerr.With(zerr.New("unknown column type"), "type", s)
	}
}

// Schema returns the schema for (game, table).
func (p *Provider) Schema(game, table string) (*domain.TableSchema, error) {
	tables, ok := p.games[game]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownSchema, "no schemas for game"), "game", game)
	}
	schema, ok := tables[table]
	if !ok {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownSchema, "no schema for table"),
			"game", game), "table", table)
	}
	return schema, nil
}

// Tables returns all known table names for game, sorted.
func (p *Provider) Tables(game string) []string {
	tables := p.games[game]
	out := make([]string, 0, len(tables))
	for name := range tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
