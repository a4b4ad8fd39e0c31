package scheduler

import "go.trai.ch/sift/internal/core/domain"

// Current returns the newest generation for filename.
// This is exported for testing purposes only.
func (s *Scheduler) Current(filename string) (*domain.Entrypoint, bool) {
	return s.registry.Current(filename)
}

// IsAsset is exported for testing purposes only.
var IsAsset = isAsset
