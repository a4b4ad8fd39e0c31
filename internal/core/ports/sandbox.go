package ports

import (
	"context"

	"go.trai.ch/sift/internal/core/domain"
)

//go:generate mockgen -source=sandbox.go -destination=mocks/mock_sandbox.go -package=mocks

// SandboxFactory creates isolated execution hosts.
type SandboxFactory interface {
	// NewHost returns a host exposing globals on top of the stubbed host environment.
	NewHost(globals map[string]any) ExecutionHost
}

// ExecutionHost runs shaken code. A host lives for one transform and keeps
// the module objects of the units it ran so later units can import them.
type ExecutionHost interface {
	// Run executes unit and returns the values of its exports.
	Run(ctx context.Context, unit *domain.ExecUnit) (map[string]domain.Value, error)
	// Close releases the host.
	Close() error
}
