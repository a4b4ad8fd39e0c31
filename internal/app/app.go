// Package app implements the application layer for sift.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/sift/internal/adapters/cas"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/adapters/metrics"
	"go.trai.ch/sift/internal/adapters/redis"
	"go.trai.ch/sift/internal/adapters/sandbox"
	"go.trai.ch/sift/internal/adapters/telemetry"
	siftprogrock "go.trai.ch/sift/internal/adapters/telemetry/progrock"
	"go.trai.ch/sift/internal/adapters/watcher"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/transform"
	"go.trai.ch/sift/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// FileWriter stores generated files.
type FileWriter interface {
	WriteFile(ctx context.Context, filename, content string) error
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	deps         transform.Deps
	writer       FileWriter
	walker       *fs.Walker
	collector    *metrics.Collector
	newWatcher   func(excludes []string) (ports.Watcher, error)
	stderr       io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	deps transform.Deps,
	writer FileWriter,
	walker *fs.Walker,
	collector *metrics.Collector,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		deps:         deps,
		writer:       writer,
		walker:       walker,
		collector:    collector,
		newWatcher: func(excludes []string) (ports.Watcher, error) {
			return watcher.New(log, watcher.DefaultQuietPeriod, excludes...)
		},
		stderr: os.Stderr,
	}
}

// WithWatcherFactory replaces the source watcher used by Watch. The factory
// receives the directories whose changes must be ignored.
func (a *App) WithWatcherFactory(f func(excludes []string) (ports.Watcher, error)) *App {
	a.newWatcher = f
	return a
}

// BuildOptions configures Build and Watch.
type BuildOptions struct {
	// NoCache disables the persistent cache for this run.
	NoCache bool
	// OutDir overrides the configured output directory.
	OutDir string
	// Constant disables sandboxed evaluation in favour of constant folding.
	Constant bool
}

// Build transforms files, or every source below the project root when none
// are given, and writes the results to the output directory.
func (a *App) Build(ctx context.Context, files []string, opts BuildOptions) error {
	run, err := a.prepare(ctx, files, opts)
	if err != nil {
		return err
	}
	defer run.close(ctx)

	summary := run.buildAll(ctx, run.roots)
	a.report(summary)
	return summary.err()
}

// Watch builds files, then rebuilds the affected files whenever a source
// below the project root changes. It returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context, files []string, opts BuildOptions) error {
	run, err := a.prepare(ctx, files, opts)
	if err != nil {
		return err
	}
	defer run.close(ctx)

	a.report(run.buildAll(ctx, run.roots))

	if run.cfg.MetricsAddr != "" {
		stop, err := serveMetrics(run.cfg.MetricsAddr, a.collector, a.logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	w, err := a.newWatcher(run.excludes())
	if err != nil {
		return err
	}
	if err := w.Start(ctx, run.cfg.Root); err != nil {
		_ = w.Stop()
		return err
	}
	defer func() { _ = w.Stop() }()

	a.logger.Info(style.Muted.Render("watching " + run.cfg.Root))
	for ev := range w.Events() {
		if ctx.Err() != nil {
			break
		}
		affected := run.apply(ctx, ev)
		if len(affected) == 0 {
			continue
		}
		a.report(run.buildAll(ctx, affected))
	}
	return nil
}

// CleanOptions selects what Clean removes.
type CleanOptions struct {
	Cache  bool
	Output bool
}

// Clean removes the persistent cache and generated output.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to get working directory")
	}
	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	var errs error
	remove := func(path, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.Cache {
		switch cfg.Cache.Backend {
		case domain.CacheBackendRedis:
			a.logger.Warn("redis cache entries expire on their own and are not removed")
		default:
			remove(cfg.Cache.Dir, "evaluation cache")
		}
	}
	if options.Output {
		remove(cfg.OutDir, "generated output")
	}
	if options.Cache && options.Output {
		siftDir := filepath.Join(cfg.Root, domain.SiftDirName)
		if entries, err := os.ReadDir(siftDir); err == nil && len(entries) == 0 {
			_ = os.Remove(siftDir)
		}
	}
	return errs
}

// run holds the state of one Build or Watch invocation.
type run struct {
	app     *App
	cfg     *domain.Config
	opts    domain.Options
	session *transform.Session
	tracer  ports.Tracer
	// roots are the files built; deps maps each root to the files it read.
	roots    []string
	explicit bool
	deps     map[string][]string
	closers  []func(context.Context) error
}

func (a *App) prepare(ctx context.Context, files []string, bo BuildOptions) (*run, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get working directory")
	}
	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if bo.OutDir != "" {
		cfg.OutDir = absolute(cwd, bo.OutDir)
	}
	if bo.Constant {
		cfg.Evaluate = false
	}

	r := &run{app: a, cfg: cfg, opts: cfg.Options(), deps: make(map[string][]string)}

	for _, f := range files {
		r.roots = append(r.roots, absolute(cwd, f))
	}
	r.explicit = len(r.roots) > 0
	if !r.explicit {
		r.roots = slices.Collect(a.walker.WalkSources(cfg.Root, r.excludes()))
	}
	if len(r.roots) == 0 {
		return nil, domain.Fail(domain.ErrNoInputs, "root", cfg.Root)
	}

	deps := a.deps
	tracer, closeTracer := a.tracer(cfg)
	deps.Tracer = tracer
	r.tracer = tracer
	r.closers = append(r.closers, closeTracer)

	if cfg.SandboxTimeout != domain.DefaultSandboxTimeout || deps.Sandbox == nil {
		deps.Sandbox = sandbox.New(cfg.SandboxTimeout)
	}

	var store ports.CacheStore
	if !bo.NoCache {
		store, err = a.openStore(ctx, cfg, r)
		if err != nil {
			r.close(ctx)
			return nil, err
		}
	}

	r.session = transform.NewSession(deps, store)
	a.logger.Debug(fmt.Sprintf("session %s: %d files, cache %s, telemetry %s",
		r.session.ID(), len(r.roots), cfg.Cache.Backend, cfg.Telemetry))
	return r, nil
}

func (a *App) openStore(ctx context.Context, cfg *domain.Config, r *run) (ports.CacheStore, error) {
	switch cfg.Cache.Backend {
	case domain.CacheBackendFile:
		return cas.NewStore(cfg.Cache.Dir), nil
	case domain.CacheBackendRedis:
		store, err := redis.Open(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func(context.Context) error { return store.Close() })
		return store, nil
	default:
		return nil, nil
	}
}

func (a *App) tracer(cfg *domain.Config) (ports.Tracer, func(context.Context) error) {
	switch cfg.Telemetry {
	case domain.TelemetryOTel:
		tp := telemetry.Setup(telemetry.NewBridge(a.logger))
		return telemetry.NewOTelTracer("sift"), tp.Shutdown
	case domain.TelemetryProgrock:
		t := siftprogrock.New(siftprogrock.NewConsole(a.stderr))
		return t, func(context.Context) error { return t.Close() }
	default:
		if a.deps.Tracer != nil {
			return a.deps.Tracer, func(context.Context) error { return nil }
		}
		return telemetry.NewNoOpTracer(), func(context.Context) error { return nil }
	}
}

func (r *run) close(ctx context.Context) {
	for _, c := range slices.Backward(r.closers) {
		if err := c(ctx); err != nil {
			r.app.logger.Warn("shutdown: " + err.Error())
		}
	}
}

// summary collects the outcome of building a set of roots.
type summary struct {
	built    int
	failures []error
	elapsed  time.Duration
}

func (s summary) err() error {
	if len(s.failures) == 0 {
		return nil
	}
	return errors.Join(append([]error{domain.ErrBuildFailed}, s.failures...)...)
}

// buildAll transforms roots one by one and writes their outputs concurrently.
func (r *run) buildAll(ctx context.Context, roots []string) summary {
	start := time.Now()
	var s summary

	ctx, span := r.tracer.Start(ctx, "build", ports.WithAttribute("files", len(roots)))
	defer span.End()
	r.tracer.EmitPlan(ctx, roots)

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		res, err := r.transform(ctx, root)
		if err != nil {
			s.failures = append(s.failures, domain.Fail(err, "file", root))
			continue
		}
		for _, d := range res.Diagnostics {
			r.app.logger.Warn(d.String())
		}
		r.deps[root] = res.Dependencies
		s.built++

		g.Go(func() error {
			return r.write(gctx, root, res)
		})
	}
	if err := g.Wait(); err != nil {
		s.failures = append(s.failures, err)
	}
	if err := s.err(); err != nil {
		span.RecordError(err)
	}
	s.elapsed = time.Since(start)
	return s
}

func (r *run) transform(ctx context.Context, filename string) (*transform.Result, error) {
	source, err := r.app.deps.Reader.ReadFile(ctx, filename)
	if err != nil {
		return nil, err
	}
	return r.session.Transform(ctx, filename, source, r.opts)
}

// write stores the rewritten module, its stylesheet and the stylesheet's
// source map below the output directory, mirroring the source tree.
func (r *run) write(ctx context.Context, root string, res *transform.Result) error {
	code := r.outPath(root)
	if err := r.app.writer.WriteFile(ctx, code, res.Code); err != nil {
		return err
	}
	if res.CSSText == "" {
		return nil
	}
	css := r.outPath(res.CSSFilename)
	if err := r.app.writer.WriteFile(ctx, css, res.CSSText); err != nil {
		return err
	}
	if res.CSSSourceMap != "" {
		return r.app.writer.WriteFile(ctx, css+".map", res.CSSSourceMap)
	}
	return nil
}

func (r *run) outPath(filename string) string {
	rel, err := filepath.Rel(r.cfg.Root, filename)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(filename)
	}
	return filepath.Join(r.cfg.OutDir, rel)
}

// excludes returns the generated directories below the project root, which
// never hold sources.
func (r *run) excludes() []string {
	var dirs []string
	for _, dir := range []string{r.cfg.OutDir, r.cfg.Cache.Dir} {
		if dir != "" && dir != r.cfg.Root && domain.Within(dir, r.cfg.Root) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// apply updates the run for a source change and returns the roots to rebuild.
func (r *run) apply(ctx context.Context, ev ports.WatchEvent) []string {
	for _, dir := range r.excludes() {
		if domain.Within(ev.Path, dir) {
			return nil
		}
	}
	r.session.Invalidate(ctx, ev.Path)

	switch ev.Operation {
	case ports.OpRemove, ports.OpRename:
		if i := slices.Index(r.roots, ev.Path); i >= 0 {
			r.roots = slices.Delete(r.roots, i, i+1)
			delete(r.deps, ev.Path)
			r.app.logger.Info(style.Muted.Render("removed " + ev.Path))
		}
	case ports.OpCreate:
		if !r.explicit && fs.IsSource(ev.Path) && !slices.Contains(r.roots, ev.Path) {
			r.roots = append(r.roots, ev.Path)
		}
	}

	var affected []string
	for _, root := range r.roots {
		if root == ev.Path || slices.Contains(r.deps[root], ev.Path) {
			affected = append(affected, root)
		}
	}
	return affected
}

func (a *App) report(s summary) {
	for _, f := range s.failures {
		a.logger.Error(f)
	}
	elapsed := s.elapsed.Round(time.Millisecond)
	if len(s.failures) > 0 {
		a.logger.Info(fmt.Sprintf("%s %d built, %d failed %s",
			style.Failure.Render(style.Cross), s.built, len(s.failures), style.Muted.Render("("+elapsed.String()+")")))
		return
	}
	a.logger.Info(fmt.Sprintf("%s %d built %s",
		style.Success.Render(style.Check), s.built, style.Muted.Render("("+elapsed.String()+")")))
}

func absolute(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}
