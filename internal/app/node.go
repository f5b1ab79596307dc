package app

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/internal/adapters/content"
	"github.com/packforge/twpatch/internal/adapters/corpus"
	"github.com/packforge/twpatch/internal/adapters/logger"
	"github.com/packforge/twpatch/internal/adapters/pack"
	"github.com/packforge/twpatch/internal/adapters/refcache"
	"github.com/packforge/twpatch/internal/adapters/schema"
	"github.com/packforge/twpatch/internal/core/ports"
	"github.com/packforge/twpatch/internal/engine/assemble"
	"github.com/packforge/twpatch/internal/engine/script"
	"github.com/packforge/twpatch/internal/engine/synth"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components the CLI layer
// needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			pack.NodeID,
			schema.NodeID,
			content.NodeID,
			content.ResolverNodeID,
			refcache.NodeID,
			corpus.NodeID,
			synth.NodeID,
			script.NodeID,
			assemble.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	codec, err := graft.Dep[ports.ArchiveCodec](ctx)
	if err != nil {
		return nil, err
	}
	schemaLoader, err := graft.Dep[ports.SchemaLoader](ctx)
	if err != nil {
		return nil, err
	}
	contentLoader, err := graft.Dep[ports.ContentLoader](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.LoadOrderResolver](ctx)
	if err != nil {
		return nil, err
	}
	cacheOpener, err := graft.Dep[ports.CacheOpener](ctx)
	if err != nil {
		return nil, err
	}
	corpusOpener, err := graft.Dep[ports.CorpusOpener](ctx)
	if err != nil {
		return nil, err
	}
	synthesizer, err := graft.Dep[*synth.Synthesizer](ctx)
	if err != nil {
		return nil, err
	}
	processor, err := graft.Dep[*script.Processor](ctx)
	if err != nil {
		return nil, err
	}
	assembler, err := graft.Dep[*assemble.Assembler](ctx)
	if err != nil {
		return nil, err
	}

	return New(log, codec, schemaLoader, contentLoader, resolver,
		cacheOpener, corpusOpener, synthesizer, processor, assembler), nil
}
