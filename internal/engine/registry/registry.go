// Package registry canonicalizes (filename, required exports) pairs into
// Entrypoint generations.
package registry

import (
	"slices"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

// Outcome reports what GetOrCreate did.
type Outcome struct {
	// Created is set when a new generation was created.
	Created bool
	// Superseded is the generation replaced by the new one, if any.
	Superseded *domain.Entrypoint
}

// Registry holds the newest generation per file. It is owned by the
// scheduler loop and not safe for concurrent use.
type Registry struct {
	current map[domain.Filename]*domain.Entrypoint
	metrics ports.Metrics
}

// New creates an empty Registry. metrics may be nil.
func New(metrics ports.Metrics) *Registry {
	return &Registry{
		current: make(map[domain.Filename]*domain.Entrypoint),
		metrics: metrics,
	}
}

// GetOrCreate returns the current generation for filename when it already
// covers required. Otherwise it creates a generation requiring the union,
// carrying over the loaded source and consumers, and supersedes the old one.
func (r *Registry) GetOrCreate(filename string, required domain.ExportSet) (*domain.Entrypoint, Outcome) {
	key := domain.NewFilename(filename)
	existing, ok := r.current[key]
	if !ok {
		ep := &domain.Entrypoint{
			Filename:   filename,
			Required:   required,
			Generation: 1,
			Status:     domain.StatusQueued,
		}
		r.current[key] = ep
		return ep, Outcome{Created: true}
	}
	if required.Subset(existing.Required) {
		return existing, Outcome{}
	}

	next := &domain.Entrypoint{
		Filename:   filename,
		Required:   existing.Required.Union(required),
		Generation: existing.Generation + 1,
		Status:     domain.StatusQueued,
		Source:     existing.Source,
		Module:     existing.Module,
		Consumers:  slices.Clone(existing.Consumers),
	}
	r.Supersede(existing, next)
	r.current[key] = next
	return next, Outcome{Created: true, Superseded: existing}
}

// Supersede marks ep as replaced by next. It reports false if ep was
// already superseded.
func (r *Registry) Supersede(ep, next *domain.Entrypoint) bool {
	if ep.Status == domain.StatusSuperseded {
		return false
	}
	ep.Status = domain.StatusSuperseded
	ep.SupersededBy = next
	if r.metrics != nil {
		r.metrics.Superseded()
	}
	return true
}

// Current returns the newest generation for filename.
func (r *Registry) Current(filename string) (*domain.Entrypoint, bool) {
	ep, ok := r.current[domain.NewFilename(filename)]
	return ep, ok
}

// Len returns the number of files with a generation.
func (r *Registry) Len() int {
	return len(r.current)
}

// Files returns the filenames with a generation, sorted.
func (r *Registry) Files() []string {
	out := make([]string, 0, len(r.current))
	for key := range r.current {
		out = append(out, key.String())
	}
	slices.Sort(out)
	return out
}
