package scheduler

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/shaker"
	"go.trai.ch/sift/internal/engine/tags"
)

func (s *Scheduler) resolveEntrypoint(ctx context.Context, a domain.Action) {
	ep := a.Entrypoint
	if s.stale(ep) {
		return
	}
	j := s.job(ep)
	if j.started || ep.Status.Terminal() {
		return
	}
	j.started = true
	ep.Status = domain.StatusResolvingImports

	if ep.Source != nil {
		s.load(ctx, ep)
		return
	}
	filename := ep.Filename
	s.suspend(ctx, ep, func(ctx context.Context) func() {
		text, err := s.cfg.Reader.ReadFile(ctx, filename)
		return func() {
			if s.stale(ep) {
				return
			}
			if err != nil {
				s.fail(ep, err)
				return
			}
			ep.Source = &domain.Source{Text: text, Hash: s.cfg.Hasher.Hash(text)}
			s.load(ctx, ep)
		}
	})
}

// load parses the source of ep if needed and moves on to import resolution.
func (s *Scheduler) load(ctx context.Context, ep *domain.Entrypoint) {
	if ep.Module == nil {
		mod, err := s.cfg.Parser.Parse(ctx, ep.Filename, ep.Source.Text)
		if err != nil {
			s.fail(ep, err)
			return
		}
		tags.Annotate(mod, s.cfg.Options)
		ep.Module = mod
	}
	s.push(domain.Action{Kind: domain.ActionResolveImports, Entrypoint: ep})
}

func (s *Scheduler) resolveImports(ctx context.Context, a domain.Action) {
	ep := a.Entrypoint
	if s.stale(ep) {
		return
	}
	specifiers := ep.Module.Sources()
	if len(specifiers) == 0 {
		s.importsResolved(ep, nil, nil)
		return
	}

	importer := ep.Filename
	s.suspend(ctx, ep, func(ctx context.Context) func() {
		resolved := make(map[string]string, len(specifiers))
		errs := make(map[string]error)
		for _, spec := range specifiers {
			if isAsset(spec) {
				resolved[spec] = ""
				continue
			}
			file, err := s.cfg.Resolver.Resolve(ctx, spec, importer)
			if err != nil {
				errs[spec] = err
				continue
			}
			resolved[spec] = file
		}
		return func() {
			if s.stale(ep) {
				return
			}
			s.importsResolved(ep, resolved, errs)
		}
	})
}

func (s *Scheduler) importsResolved(ep *domain.Entrypoint, resolved map[string]string, errs map[string]error) {
	j := s.job(ep)
	for spec, file := range resolved {
		j.resolved[spec] = file
		if file == "" {
			j.assets[spec] = true
		}
	}
	for spec, err := range errs {
		j.resolveErrs[spec] = err
	}

	if len(starSources(ep.Module)) > 0 {
		s.push(domain.Action{Kind: domain.ActionExplodeReExports, Entrypoint: ep})
		return
	}
	s.push(domain.Action{Kind: domain.ActionShake, Entrypoint: ep})
}

func (s *Scheduler) explodeReExports(_ context.Context, a domain.Action) {
	ep := a.Entrypoint
	if s.stale(ep) {
		return
	}
	j := s.job(ep)
	for _, spec := range starSources(ep.Module) {
		file := j.resolved[spec]
		if file == "" {
			continue
		}
		j.pendingStars++
		s.push(domain.Action{
			Kind:       domain.ActionGetExportsOfDependency,
			Entrypoint: ep,
			Payload:    starSource{specifier: spec, filename: file},
		})
	}
	if j.pendingStars == 0 {
		s.push(domain.Action{Kind: domain.ActionShake, Entrypoint: ep})
	}
}

func (s *Scheduler) getExportsOfDependency(ctx context.Context, a domain.Action) {
	ep := a.Entrypoint
	if s.stale(ep) {
		return
	}
	star, ok := a.Payload.(starSource)
	if !ok {
		return
	}
	s.suspend(ctx, ep, func(ctx context.Context) func() {
		names, err := s.exportsOf(ctx, star.filename, map[string]bool{})
		return func() {
			if s.stale(ep) || ep.Status.Terminal() {
				return
			}
			if err != nil {
				s.fail(ep, domain.Fail(err, "file", ep.Filename, "specifier", star.specifier))
				return
			}
			j := s.job(ep)
			explicit, _ := shaker.ExportNames(ep.Module)
			for _, name := range names {
				if name == "default" || slices.Contains(explicit, name) {
					continue
				}
				if _, taken := j.starExports[name]; !taken {
					j.starExports[name] = star.specifier
				}
			}
			j.pendingStars--
			if j.pendingStars == 0 {
				s.push(domain.Action{Kind: domain.ActionShake, Entrypoint: ep})
			}
		}
	})
}

// exportsOf lists the names filename exports, following nested `export *`
// statements. It runs off the loop.
func (s *Scheduler) exportsOf(ctx context.Context, filename string, seen map[string]bool) ([]string, error) {
	if seen[filename] {
		return nil, nil
	}
	seen[filename] = true

	text, err := s.cfg.Reader.ReadFile(ctx, filename)
	if err != nil {
		return nil, err
	}
	mod, err := s.cfg.Parser.Parse(ctx, filename, text)
	if err != nil {
		return nil, err
	}
	names, stars := shaker.ExportNames(mod)
	for _, spec := range stars {
		file, err := s.cfg.Resolver.Resolve(ctx, spec, filename)
		if err != nil {
			return nil, err
		}
		nested, err := s.exportsOf(ctx, file, seen)
		if err != nil {
			return nil, err
		}
		for _, name := range nested {
			if name != "default" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (s *Scheduler) shake(ctx context.Context, a domain.Action) {
	ep := a.Entrypoint
	if s.stale(ep) {
		return
	}
	ep.Status = domain.StatusShaking
	j := s.job(ep)
	j.key = domain.NewCacheKey(ep.Filename, ep.Required, s.cfg.Hasher.Hash(ep.Source.Hash+"\x00"+s.salt))

	res, err := s.shaken(ctx, ep, j)
	if err != nil {
		s.fail(ep, err)
		return
	}
	j.shaken = res

	sources := make([]string, 0, len(res.Imports))
	for src := range res.Imports {
		sources = append(sources, src)
	}
	slices.Sort(sources)

	ep.Edges = ep.Edges[:0]
	ancestors := ep.Ancestors()
	for _, source := range sources {
		names := res.Imports[source]
		if j.assets[source] {
			j.deps[source] = domain.ExecDependency{Filename: source, Values: placeholders(names, "asset "+source)}
			s.warn(s.diagnostic(ep, source, domain.CodeUnresolvedAsset, "import of asset "+source+" evaluates to a placeholder"))
			continue
		}
		if err, failed := j.resolveErrs[source]; failed {
			if !errors.Is(err, domain.ErrModuleResolution) {
				err = domain.Because(domain.ErrModuleResolution, err)
			}
			s.fail(ep, domain.Fail(err, "file", ep.Filename, "specifier", source))
			return
		}

		file := j.resolved[source]
		ep.Edges = append(ep.Edges, domain.DependencyEdge{Specifier: source, Filename: file, Exports: names})
		if file == ep.Filename || ancestors[file] {
			j.deps[source] = domain.ExecDependency{Filename: file, Values: placeholders(names, "cyclic import of "+file)}
			j.fingerprints = append(j.fingerprints, "cycle:"+file)
			s.warn(s.diagnostic(ep, source, domain.CodeCyclicDependency,
				ep.Filename+" and "+file+" import each other; "+strings.Join(names, ", ")+" left unresolved"))
			continue
		}

		child, outcome := s.registry.GetOrCreate(file, domain.NewExportSet(names...))
		child.AddConsumer(ep)
		if outcome.Superseded != nil {
			s.transferWaiters(outcome.Superseded, child)
		}
		if outcome.Created {
			s.push(domain.Action{Kind: domain.ActionResolveEntrypoint, Entrypoint: child})
		}

		switch child.Status {
		case domain.StatusResolved:
			s.provide(j, source, child)
		case domain.StatusFailed:
			s.fail(ep, dependencyFailed(ep, child))
			return
		default:
			j.waiting++
			s.await(ep, source, child)
		}
	}

	if j.waiting == 0 {
		s.push(domain.Action{Kind: domain.ActionEvaluate, Entrypoint: ep})
	}
}

// shaken returns the cached shaking of ep or shakes its module.
func (s *Scheduler) shaken(ctx context.Context, ep *domain.Entrypoint, j *job) (*shaker.Result, error) {
	if s.cfg.Cache != nil {
		if entry, ok := s.cfg.Cache.Get(ctx, j.key); ok {
			j.cached = entry
			if span, ok := ports.SpanFromContext(ctx); ok {
				span.MarkCached()
			}
			return &shaker.Result{Code: entry.ShakenCode, Exports: entry.Exports, Imports: entry.Imports}, nil
		}
	}
	return shaker.Shake(shaker.Input{
		Module:      ep.Module,
		Required:    ep.Required,
		StarExports: j.starExports,
		Pure:        s.pure,
		Globals:     s.globals,
	})
}

func (s *Scheduler) await(ep *domain.Entrypoint, source string, child *domain.Entrypoint) {
	cj := s.job(child)
	cj.waiters = append(cj.waiters, func(done *domain.Entrypoint) {
		s.push(domain.Action{
			Kind:         domain.ActionResume,
			Entrypoint:   ep,
			Continuation: func() { s.childDone(ep, source, done) },
		})
	})
}

func (s *Scheduler) childDone(ep *domain.Entrypoint, source string, child *domain.Entrypoint) {
	if s.stale(ep) || ep.Status.Terminal() {
		return
	}
	if child.Status == domain.StatusFailed {
		s.fail(ep, dependencyFailed(ep, child))
		return
	}
	j := s.job(ep)
	s.provide(j, source, child)
	j.waiting--
	if j.waiting == 0 {
		s.push(domain.Action{Kind: domain.ActionEvaluate, Entrypoint: ep})
	}
}

func (s *Scheduler) provide(j *job, source string, child *domain.Entrypoint) {
	j.deps[source] = domain.ExecDependency{
		Key:      s.job(child).key.String(),
		Filename: child.Filename,
		Values:   child.Values,
	}
	j.fingerprints = append(j.fingerprints, child.Fingerprint)
}

func (s *Scheduler) transferWaiters(old, next *domain.Entrypoint) {
	oj := s.job(old)
	nj := s.job(next)
	nj.waiters = append(nj.waiters, oj.waiters...)
	oj.waiters = nil
}

func (s *Scheduler) evaluate(ctx context.Context, a domain.Action) {
	ep := a.Entrypoint
	if s.stale(ep) || ep.Status.Terminal() {
		return
	}
	ep.Status = domain.StatusEvaluating
	j := s.job(ep)

	fps := slices.Clone(j.fingerprints)
	slices.Sort(fps)
	ep.Fingerprint = s.cfg.Hasher.Hash(strings.Join(append([]string{j.key.String()}, fps...), "\x00"))

	if e := j.cached; e != nil && e.Reusable && e.DepsFingerprint == ep.Fingerprint {
		s.resolve(ep, e.Values)
		return
	}

	values, err := s.cfg.Host.Run(ctx, &domain.ExecUnit{
		Key:          j.key.String(),
		Filename:     ep.Filename,
		Code:         j.shaken.Code,
		Exports:      j.shaken.Exports,
		Dependencies: j.deps,
		Styles:       s.cfg.Styles,
	})
	if err != nil {
		s.fail(ep, err)
		return
	}

	if s.cfg.Cache != nil {
		s.cfg.Cache.Put(ctx, &domain.CacheEntry{
			Key:             j.key,
			ShakenCode:      j.shaken.Code,
			Exports:         j.shaken.Exports,
			Imports:         j.shaken.Imports,
			Edges:           slices.Clone(ep.Edges),
			Values:          values,
			DepsFingerprint: ep.Fingerprint,
			Reusable:        reusable(values),
			Evaluated:       s.cfg.Options.Evaluate,
		})
	}
	s.resolve(ep, values)
}

func (s *Scheduler) resolve(ep *domain.Entrypoint, values map[string]domain.Value) {
	ep.Values = values
	ep.Status = domain.StatusResolved
	s.complete(ep)
}

func (s *Scheduler) fail(ep *domain.Entrypoint, err error) {
	if ep.Status.Terminal() {
		return
	}
	ep.Status = domain.StatusFailed
	ep.Err = err
	s.complete(ep)
}

func (s *Scheduler) complete(ep *domain.Entrypoint) {
	j := s.job(ep)
	waiters := j.waiters
	j.waiters = nil
	for _, w := range waiters {
		w(ep)
	}
}

func dependencyFailed(ep, child *domain.Entrypoint) error {
	return domain.Fail(domain.Because(domain.ErrDependencyFailed, child.Err), "file", ep.Filename, "dependency", child.Filename)
}

func (s *Scheduler) diagnostic(ep *domain.Entrypoint, source, code, msg string) domain.Diagnostic {
	d := domain.Diagnostic{
		Severity: domain.SeverityWarning,
		Code:     code,
		Message:  msg,
		Filename: ep.Filename,
	}
	for _, stmt := range ep.Module.Body {
		if imp, ok := stmt.(*ast.ImportDecl); ok && imp.Source == source {
			d.Line, d.Col = imp.Line, imp.Col
			break
		}
	}
	return d
}

func starSources(mod *ast.Module) []string {
	_, stars := shaker.ExportNames(mod)
	return stars
}
