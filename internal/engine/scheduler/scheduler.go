// Package scheduler implements the action loop that resolves Entrypoints.
package scheduler

import (
	"context"
	"slices"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/cache"
	"go.trai.ch/sift/internal/engine/registry"
)

// Deps are the collaborators shared by every scheduler of a session.
type Deps struct {
	Parser   ports.Parser
	Resolver ports.ModuleResolver
	Reader   ports.FileReader
	Hasher   ports.Hasher
	Logger   ports.Logger
	Metrics  ports.Metrics
	Tracer   ports.Tracer
}

// Config configures one run.
type Config struct {
	Deps
	Host    ports.ExecutionHost
	Cache   *cache.Collection
	Options domain.Options
	// Styles computes the value of the style templates met in any module.
	Styles domain.StyleFunc
}

// Root is the module a run resolves. Its source and module are supplied by
// the caller; the module carries the preval expressions.
type Root struct {
	Filename string
	Source   *domain.Source
	Module   *ast.Module
}

// Report is the outcome of a run.
type Report struct {
	Root *domain.Entrypoint
	// Dependencies are the files, other than the root, that were loaded.
	Dependencies []string
	Diagnostics  []domain.Diagnostic
}

// Scheduler processes actions on a single goroutine. Blocking operations run
// on helper goroutines and come back as resume actions.
type Scheduler struct {
	cfg      Config
	registry *registry.Registry
	handlers map[domain.ActionKind]func(context.Context, domain.Action)

	queue    []domain.Action
	resumes  chan domain.Action
	inflight int

	jobs        map[*domain.Entrypoint]*job
	diagnostics []domain.Diagnostic
	pure        ast.PureCallees
	globals     []string
	// salt separates cache entries computed under different options.
	salt string
}

// New creates a Scheduler for one run.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		registry: registry.New(cfg.Metrics),
		resumes:  make(chan domain.Action),
		jobs:     make(map[*domain.Entrypoint]*job),
		pure:     pureCallees(cfg.Options.PureCallees),
	}
	for name := range cfg.Options.Globals {
		s.globals = append(s.globals, name)
	}
	slices.Sort(s.globals)
	s.salt = optionsSalt(cfg.Options, s.globals)

	s.handlers = map[domain.ActionKind]func(context.Context, domain.Action){
		domain.ActionResolveEntrypoint:      s.resolveEntrypoint,
		domain.ActionResolveImports:         s.resolveImports,
		domain.ActionExplodeReExports:       s.explodeReExports,
		domain.ActionGetExportsOfDependency: s.getExportsOfDependency,
		domain.ActionShake:                  s.shake,
		domain.ActionEvaluate:               s.evaluate,
		domain.ActionResume:                 s.resume,
	}
	return s
}

// Run resolves root for the required exports and returns once it resolved
// or failed.
func (s *Scheduler) Run(ctx context.Context, root Root, required domain.ExportSet) (*Report, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ep, _ := s.registry.GetOrCreate(root.Filename, required)
	ep.Source = root.Source
	ep.Module = root.Module
	s.push(domain.Action{Kind: domain.ActionResolveEntrypoint, Entrypoint: ep})

	for !s.settled(ep) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(s.queue) > 0 {
			a := s.queue[0]
			s.queue = s.queue[1:]
			s.dispatch(runCtx, a)
			continue
		}
		if s.inflight == 0 {
			break
		}
		select {
		case a := <-s.resumes:
			s.inflight--
			s.push(a)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	latest := ep.Latest()
	switch latest.Status {
	case domain.StatusResolved:
	case domain.StatusFailed:
		return s.report(latest), latest.Err
	default:
		return s.report(latest), domain.Fail(domain.ErrSchedulerStalled, "file", root.Filename, "status", string(latest.Status))
	}
	return s.report(latest), nil
}

func (s *Scheduler) settled(root *domain.Entrypoint) bool {
	status := root.Latest().Status
	return status == domain.StatusResolved || status == domain.StatusFailed
}

func (s *Scheduler) report(root *domain.Entrypoint) *Report {
	deps := make([]string, 0, s.registry.Len())
	for _, file := range s.registry.Files() {
		if file != root.Filename {
			deps = append(deps, file)
		}
	}
	return &Report{Root: root, Dependencies: deps, Diagnostics: s.diagnostics}
}

func (s *Scheduler) push(a domain.Action) {
	s.queue = append(s.queue, a)
}

func (s *Scheduler) dispatch(ctx context.Context, a domain.Action) {
	handler, ok := s.handlers[a.Kind]
	if !ok {
		return
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ActionProcessed(string(a.Kind))
	}
	if s.cfg.Tracer != nil {
		spanCtx, span := s.cfg.Tracer.Start(ctx, string(a.Kind), ports.WithAttribute("file", a.Entrypoint.Filename))
		defer span.End()
		ctx = ports.ContextWithSpan(spanCtx, span)
	}
	if s.cfg.Logger != nil && a.Kind != domain.ActionResume {
		s.cfg.Logger.Debug(string(a.Kind) + " " + a.Entrypoint.ID())
	}
	handler(ctx, a)
}

// suspend runs op on a helper goroutine. The continuation it returns is
// delivered back to the loop as a resume action.
func (s *Scheduler) suspend(ctx context.Context, ep *domain.Entrypoint, op func(context.Context) func()) {
	s.inflight++
	go func() {
		cont := op(ctx)
		select {
		case s.resumes <- domain.Action{Kind: domain.ActionResume, Entrypoint: ep, Continuation: cont}:
		case <-ctx.Done():
		}
	}()
}

func (s *Scheduler) resume(_ context.Context, a domain.Action) {
	if a.Continuation != nil {
		a.Continuation()
	}
}

// stale reports whether work for ep was abandoned. The newest generation is
// (re)started in its place.
func (s *Scheduler) stale(ep *domain.Entrypoint) bool {
	if ep.Status != domain.StatusSuperseded {
		return false
	}
	s.push(domain.Action{Kind: domain.ActionResolveEntrypoint, Entrypoint: ep.Latest()})
	return true
}

func (s *Scheduler) job(ep *domain.Entrypoint) *job {
	j, ok := s.jobs[ep]
	if !ok {
		j = newJob()
		s.jobs[ep] = j
	}
	return j
}

func (s *Scheduler) warn(d domain.Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
	if s.cfg.Logger != nil {
		s.cfg.Logger.Warn(d.String())
	}
}

func pureCallees(names []string) ast.PureCallees {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(callee ast.Expr) bool {
		name, ok := ast.CalleeName(callee)
		return ok && set[name]
	}
}
