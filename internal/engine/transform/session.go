// Package transform implements the host-facing transform operation.
package transform

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/cache"
	"go.trai.ch/sift/internal/engine/fold"
	"go.trai.ch/sift/internal/engine/scheduler"
	"go.trai.ch/sift/internal/engine/tags"
	"go.trai.ch/sift/internal/engine/template"
)

// Deps are the collaborators of a Session.
type Deps struct {
	scheduler.Deps
	// Sandbox runs shaken code when Options.Evaluate is set.
	Sandbox ports.SandboxFactory
}

// Result is the outcome of transforming one file.
type Result struct {
	Code         string
	CSSText      string
	CSSSourceMap string
	CSSFilename  string
	Rules        []domain.Rule
	Mappings     []domain.Mapping
	// Dependencies are the files whose content the result depends on.
	Dependencies []string
	Diagnostics  []domain.Diagnostic
}

// Session owns the cache shared by the transforms of one build. Transforms
// are serialised.
type Session struct {
	id    string
	deps  Deps
	fold  *fold.Factory
	cache *cache.Collection
	mu    sync.Mutex
}

// NewSession creates a Session. store may be nil.
func NewSession(deps Deps, store ports.CacheStore) *Session {
	opts := []cache.Option{cache.WithLogger(deps.Logger), cache.WithMetrics(deps.Metrics)}
	if store != nil {
		opts = append(opts, cache.WithStore(store))
	}
	return &Session{
		id:    uuid.NewString(),
		deps:  deps,
		fold:  fold.New(deps.Parser),
		cache: cache.New(opts...),
	}
}

// ID identifies the session in logs and traces.
func (s *Session) ID() string {
	return s.id
}

// Invalidate drops the cached results of files.
func (s *Session) Invalidate(ctx context.Context, files ...string) {
	for _, f := range files {
		s.cache.Invalidate(ctx, f)
	}
}

// Transform extracts the style templates of source.
func (s *Session) Transform(ctx context.Context, filename, source string, opts domain.Options) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var span ports.Span
	if s.deps.Tracer != nil {
		ctx, span = s.deps.Tracer.Start(ctx, "transform",
			ports.WithAttribute("file", filename), ports.WithAttribute("session", s.id))
		defer span.End()
	}

	res, err := s.transform(ctx, filename, source, opts.WithDefaults())
	if err != nil && span != nil {
		span.RecordError(err)
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.TransformDone(time.Since(start), err)
	}
	return res, err
}

func (s *Session) transform(ctx context.Context, filename, source string, opts domain.Options) (*Result, error) {
	mod, err := s.deps.Parser.Parse(ctx, filename, source)
	if err != nil {
		return nil, err
	}
	if tags.Annotate(mod, opts) == 0 {
		return &Result{Code: source, CSSFilename: opts.CSSFilename(filename)}, nil
	}
	tags.Preval(mod)

	proc := template.New(opts)
	var factory ports.SandboxFactory = s.fold
	if opts.Evaluate && s.deps.Sandbox != nil {
		factory = s.deps.Sandbox
	}
	host := factory.NewHost(opts.Globals)
	defer func() {
		if cerr := host.Close(); cerr != nil && s.deps.Logger != nil {
			s.deps.Logger.Warn("closing execution host: " + cerr.Error())
		}
	}()

	sched := scheduler.New(scheduler.Config{
		Deps:    s.deps.Deps,
		Host:    host,
		Cache:   s.cache,
		Options: opts,
		Styles:  proc.Style,
	})
	report, err := sched.Run(ctx, scheduler.Root{
		Filename: filename,
		Source:   &domain.Source{Text: source, Hash: s.deps.Hasher.Hash(source)},
		Module:   mod,
	}, domain.NewExportSet(ast.PrevalExport))
	if err != nil {
		return nil, err
	}

	out, err := proc.Process(mod, report.Root.Values[ast.PrevalExport].Items)
	if err != nil {
		return nil, err
	}
	return &Result{
		Code:         out.Code,
		CSSText:      out.CSSText,
		CSSSourceMap: out.SourceMap,
		CSSFilename:  out.CSSFilename,
		Rules:        out.Rules,
		Mappings:     out.Mappings,
		Dependencies: report.Dependencies,
		Diagnostics:  report.Diagnostics,
	}, nil
}
