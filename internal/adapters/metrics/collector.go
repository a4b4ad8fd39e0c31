// Package metrics implements ports.Metrics with Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/sift/internal/core/ports"
)

var _ ports.Metrics = (*Collector)(nil)

// Collector holds the Prometheus metrics of the pipeline.
type Collector struct {
	registry *prometheus.Registry

	actionsTotal      *prometheus.CounterVec
	cacheLookupsTotal *prometheus.CounterVec
	supersededTotal   prometheus.Counter
	transformsTotal   *prometheus.CounterVec
	transformDuration prometheus.Histogram
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sift_actions_total",
				Help: "Total number of scheduler actions processed",
			},
			[]string{"kind"},
		),
		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sift_cache_lookups_total",
				Help: "Total number of cache lookups",
			},
			[]string{"result"},
		),
		supersededTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sift_entrypoints_superseded_total",
				Help: "Total number of entrypoints replaced by a newer generation",
			},
		),
		transformsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sift_transforms_total",
				Help: "Total number of file transforms",
			},
			[]string{"status"},
		),
		transformDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sift_transform_duration_seconds",
				Help:    "File transform latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
	}
}

// ActionProcessed implements ports.Metrics.
func (c *Collector) ActionProcessed(kind string) {
	c.actionsTotal.WithLabelValues(kind).Inc()
}

// CacheHit implements ports.Metrics.
func (c *Collector) CacheHit() {
	c.cacheLookupsTotal.WithLabelValues("hit").Inc()
}

// CacheMiss implements ports.Metrics.
func (c *Collector) CacheMiss() {
	c.cacheLookupsTotal.WithLabelValues("miss").Inc()
}

// Superseded implements ports.Metrics.
func (c *Collector) Superseded() {
	c.supersededTotal.Inc()
}

// TransformDone implements ports.Metrics.
func (c *Collector) TransformDone(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.transformsTotal.WithLabelValues(status).Inc()
	c.transformDuration.Observe(d.Seconds())
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and exporters.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}
