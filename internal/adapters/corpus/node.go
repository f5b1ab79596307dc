package corpus

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/core/ports"
)

// NodeID is the unique identifier for the corpus opener Graft node.
const NodeID graft.ID = "adapter.corpus_opener"

func init() {
	graft.Register(graft.Node[ports.CorpusOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.CorpusOpener, error) {
			return NewOpener(), nil
		},
	})
}
