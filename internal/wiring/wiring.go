// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/sift/internal/adapters/config"
	_ "go.trai.ch/sift/internal/adapters/fs"
	_ "go.trai.ch/sift/internal/adapters/logger"
	_ "go.trai.ch/sift/internal/adapters/metrics"
	_ "go.trai.ch/sift/internal/adapters/sandbox"
	_ "go.trai.ch/sift/internal/adapters/telemetry"
	_ "go.trai.ch/sift/internal/adapters/treesitter"
	// Register app and engine nodes.
	_ "go.trai.ch/sift/internal/app"
	_ "go.trai.ch/sift/internal/engine/scheduler"
	_ "go.trai.ch/sift/internal/engine/transform"
)
