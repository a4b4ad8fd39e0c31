package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sift/internal/core/ports"
)

const (
	// CollectorNodeID provides the concrete *Collector, which also serves /metrics.
	CollectorNodeID graft.ID = "adapter.metrics.collector"
	// NodeID provides the collector as ports.Metrics.
	NodeID graft.ID = "adapter.metrics"
)

func init() {
	graft.Register(graft.Node[*Collector]{
		ID:        CollectorNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Collector, error) {
			return New(), nil
		},
	})

	graft.Register(graft.Node[ports.Metrics]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{CollectorNodeID},
		Run: func(ctx context.Context) (ports.Metrics, error) {
			c, err := graft.Dep[*Collector](ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	})
}
