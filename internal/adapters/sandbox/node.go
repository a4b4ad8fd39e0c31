package sandbox

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

// NodeID is the unique identifier for the sandbox Graft node.
const NodeID graft.ID = "adapter.sandbox"

func init() {
	graft.Register(graft.Node[ports.SandboxFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SandboxFactory, error) {
			return New(domain.DefaultSandboxTimeout), nil
		},
	})
}
