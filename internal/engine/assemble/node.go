package assemble

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/adapters/logger"
	"github.com/packforge/twpatch/internal/adapters/pack"
	"github.com/packforge/twpatch/internal/core/ports"
)

// NodeID is the unique identifier for the assembler Graft node.
const NodeID graft.ID = "engine.assembler"

func init() {
	graft.Register(graft.Node[*Assembler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, pack.NodeID, pack.TableNodeID},
		Run: func(ctx context.Context) (*Assembler, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			codec, err := graft.Dep[ports.ArchiveCodec](ctx)
			if err != nil {
				return nil, err
			}
			tables, err := graft.Dep[ports.TableCodec](ctx)
			if err != nil {
				return nil, err
			}
			return New(log, codec, tables), nil
		},
	})
}
