package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"go.trai.ch/sift/internal/adapters/fs"      //nolint:depguard // Wired in app layer
	"go.trai.ch/sift/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/sift/internal/adapters/metrics" //nolint:depguard // Wired in app layer
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/transform"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components is everything the CLI needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			transform.NodeID,
			fs.WriterNodeID,
			fs.WalkerNodeID,
			metrics.CollectorNodeID,
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
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	deps, err := graft.Dep[transform.Deps](ctx)
	if err != nil {
		return nil, err
	}

	writer, err := graft.Dep[*fs.Writer](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}

	collector, err := graft.Dep[*metrics.Collector](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, deps, writer, walker, collector), nil
}
