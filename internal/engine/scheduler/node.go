package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/adapters/fs"         //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/logger"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/metrics"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/telemetry"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/adapters/treesitter" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler dependencies Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[Deps]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			treesitter.NodeID,
			fs.ReaderNodeID,
			fs.ResolverNodeID,
			fs.HasherNodeID,
			logger.NodeID,
			metrics.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (Deps, error) {
			parser, err := graft.Dep[ports.Parser](ctx)
			if err != nil {
				return Deps{}, err
			}

			reader, err := graft.Dep[ports.FileReader](ctx)
			if err != nil {
				return Deps{}, err
			}

			resolver, err := graft.Dep[ports.ModuleResolver](ctx)
			if err != nil {
				return Deps{}, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return Deps{}, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return Deps{}, err
			}

			collector, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return Deps{}, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return Deps{}, err
			}

			return Deps{
				Parser:   parser,
				Resolver: resolver,
				Reader:   reader,
				Hasher:   hasher,
				Logger:   log,
				Metrics:  collector,
				Tracer:   tracer,
			}, nil
		},
	})
}
