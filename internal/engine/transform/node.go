package transform

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/adapters/sandbox" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/scheduler"
)

// NodeID is the unique identifier for the transform dependencies Graft node.
const NodeID graft.ID = "engine.transform"

func init() {
	graft.Register(graft.Node[Deps]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{scheduler.NodeID, sandbox.NodeID},
		Run: func(ctx context.Context) (Deps, error) {
			deps, err := graft.Dep[scheduler.Deps](ctx)
			if err != nil {
				return Deps{}, err
			}

			factory, err := graft.Dep[ports.SandboxFactory](ctx)
			if err != nil {
				return Deps{}, err
			}

			return Deps{Deps: deps, Sandbox: factory}, nil
		},
	})
}
