package script

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/adapters/logger"
	"github.com/packforge/twpatch/internal/core/ports"
)

// NodeID is the unique identifier for the script processor Graft node.
const NodeID graft.ID = "engine.script_processor"

func init() {
	graft.Register(graft.Node[*Processor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Processor, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewProcessor(log), nil
		},
	})
}
