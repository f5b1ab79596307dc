// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/packforge/twpatch/internal/adapters/content"
	_ "github.com/packforge/twpatch/internal/adapters/corpus"
	_ "github.com/packforge/twpatch/internal/adapters/logger"
	_ "github.com/packforge/twpatch/internal/adapters/pack"
	_ "github.com/packforge/twpatch/internal/adapters/refcache"
	_ "github.com/packforge/twpatch/internal/adapters/schema"
	// Register app and engine nodes.
	_ "github.com/packforge/twpatch/internal/app"
	_ "github.com/packforge/twpatch/internal/engine/assemble"
	_ "github.com/packforge/twpatch/internal/engine/script"
	_ "github.com/packforge/twpatch/internal/engine/synth"
)
