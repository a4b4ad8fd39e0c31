package ports

import "time"

// Metrics records pipeline counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ActionProcessed counts a dispatched scheduler action.
	ActionProcessed(kind string)
	// CacheHit counts a cache lookup that found an entry.
	CacheHit()
	// CacheMiss counts a cache lookup that found nothing.
	CacheMiss()
	// Superseded counts an Entrypoint replaced by a newer generation.
	Superseded()
	// TransformDone observes the duration and outcome of one transform.
	TransformDone(d time.Duration, err error)
}
