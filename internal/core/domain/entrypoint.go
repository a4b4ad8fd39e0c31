package domain

import (
	"strconv"

	"go.trai.ch/sift/internal/core/ast"
)

// EntrypointStatus is the lifecycle state of an Entrypoint.
type EntrypointStatus string

const (
	// StatusQueued is the state of a freshly created Entrypoint.
	StatusQueued EntrypointStatus = "queued"
	// StatusResolvingImports indicates the source is being loaded and its imports resolved.
	StatusResolvingImports EntrypointStatus = "resolving-imports"
	// StatusShaking indicates the module is being shaken and its dependencies awaited.
	StatusShaking EntrypointStatus = "shaking"
	// StatusEvaluating indicates the shaken code is running in the execution host.
	StatusEvaluating EntrypointStatus = "evaluating"
	// StatusResolved indicates the values of the required exports are available.
	StatusResolved EntrypointStatus = "resolved"
	// StatusFailed indicates the Entrypoint could not be resolved.
	StatusFailed EntrypointStatus = "failed"
	// StatusSuperseded indicates a newer generation replaced this Entrypoint.
	StatusSuperseded EntrypointStatus = "superseded"
)

// Terminal reports whether no further transitions can happen.
func (s EntrypointStatus) Terminal() bool {
	return s == StatusResolved || s == StatusFailed || s == StatusSuperseded
}

// Source is the loaded text of a module and its content hash.
type Source struct {
	Text string
	Hash string
}

// Entrypoint is a module evaluated for a specific set of required exports.
// Only the scheduler loop mutates it.
type Entrypoint struct {
	Filename   string
	Required   ExportSet
	Generation int
	Status     EntrypointStatus

	Source *Source
	Module *ast.Module

	// SupersededBy points at the next generation once superseded.
	SupersededBy *Entrypoint
	// Consumers are the Entrypoints whose shaken code imports this one.
	Consumers []*Entrypoint

	Values      map[string]Value
	Edges       []DependencyEdge
	Fingerprint string
	Err         error
}

// ID identifies the generation in logs and traces.
func (e *Entrypoint) ID() string {
	return e.Filename + "#" + strconv.Itoa(e.Generation)
}

// Latest follows the supersession chain to the newest generation.
func (e *Entrypoint) Latest() *Entrypoint {
	cur := e
	for cur.SupersededBy != nil {
		cur = cur.SupersededBy
	}
	return cur
}

// AddConsumer records c as a consumer unless it already is one.
func (e *Entrypoint) AddConsumer(c *Entrypoint) {
	if c == nil {
		return
	}
	for _, existing := range e.Consumers {
		if existing == c {
			return
		}
	}
	e.Consumers = append(e.Consumers, c)
}

// Ancestors returns the filenames of every transitive consumer.
func (e *Entrypoint) Ancestors() map[string]bool {
	seen := make(map[*Entrypoint]bool)
	files := make(map[string]bool)
	stack := append([]*Entrypoint(nil), e.Consumers...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		files[cur.Filename] = true
		stack = append(stack, cur.Consumers...)
	}
	return files
}

// DependencyEdge links a consumer to the exports it needs from a provider.
type DependencyEdge struct {
	Specifier string   `json:"specifier"`
	Filename  string   `json:"filename"`
	Exports   []string `json:"exports"`
}
