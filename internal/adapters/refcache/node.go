package refcache

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/core/ports"
)

// NodeID is the unique identifier for the cache opener Graft node.
const NodeID graft.ID = "adapter.cache_opener"

func init() {
	graft.Register(graft.Node[ports.CacheOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.CacheOpener, error) {
			return NewOpener(), nil
		},
	})
}
