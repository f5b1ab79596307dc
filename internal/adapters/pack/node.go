package pack

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the archive codec Graft node.
	NodeID graft.ID = "adapter.archive_codec"
	// TableNodeID is the unique identifier for the table codec Graft node.
	TableNodeID graft.ID = "adapter.table_codec"
)

func init() {
	graft.Register(graft.Node[ports.ArchiveCodec]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ArchiveCodec, error) {
			return NewCodec(), nil
		},
	})

	graft.Register(graft.Node[ports.TableCodec]{
		ID:        TableNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.TableCodec, error) {
			return NewCodec(), nil
		},
	})
}
