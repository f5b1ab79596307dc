package schema

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/core/ports"
)

// NodeID is the unique identifier for the schema loader Graft node.
const NodeID graft.ID = "adapter.schema_loader"

func init() {
	graft.Register(graft.Node[ports.SchemaLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.SchemaLoader, error) {
			return NewLoader(), nil
		},
	})
}
