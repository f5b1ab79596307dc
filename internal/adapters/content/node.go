package content

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/adapters/logger"
	"github.com/packforge/twpatch/internal/adapters/pack"
	"github.com/packforge/twpatch/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the content loader Graft node.
	NodeID graft.ID = "adapter.content_loader"
	// ResolverNodeID is the unique identifier for the load order resolver Graft node.
	ResolverNodeID graft.ID = "adapter.load_order_resolver"
)

func init() {
	graft.Register(graft.Node[ports.ContentLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ContentLoader, error) {
			return NewLoader(), nil
		},
	})

	graft.Register(graft.Node[ports.LoadOrderResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, pack.NodeID},
		Run: func(ctx context.Context) (ports.LoadOrderResolver, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			codec, err := graft.Dep[ports.ArchiveCodec](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(log, codec), nil
		},
	})
}
