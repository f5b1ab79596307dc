package ports

import "github.com/packforge/twpatch/internal/core/domain"

// SchemaLoader builds a SchemaProvider from a schema definition directory.
type SchemaLoader interface {
	Load(dir string) (SchemaProvider, error)
}

// SchemaProvider resolves table schema definitions per game.
type SchemaProvider interface {
	// Schema returns the schema for (game, table). Returns
	// domain.ErrUnknownSchema for unknown pairs.
	Schema(game, table string) (*domain.TableSchema, error)

	// Tables returns every table name the provider knows for the game.
	Tables(game string) []string
}
