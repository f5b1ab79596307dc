package synth

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/adapters/logger"
	"github.com/packforge/twpatch/internal/core/ports"
)

// NodeID is the unique identifier for the synthesizer Graft node.
const NodeID graft.ID = "engine.synthesizer"

func init() {
	graft.Register(graft.Node[*Synthesizer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Synthesizer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}
