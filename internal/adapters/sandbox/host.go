// Package sandbox implements the JavaScript execution host on goja.
package sandbox

import (
	"context"
	"errors"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/shaker"
)

var _ ports.SandboxFactory = (*Factory)(nil)

// Factory creates goja execution hosts.
type Factory struct {
	timeout time.Duration
}

// New creates a Factory whose hosts interrupt a unit after timeout.
func New(timeout time.Duration) *Factory {
	if timeout <= 0 {
		timeout = domain.DefaultSandboxTimeout
	}
	return &Factory{timeout: timeout}
}

// NewHost implements ports.SandboxFactory.
func (f *Factory) NewHost(globals map[string]any) ports.ExecutionHost {
	rt := goja.New()
	h := &Host{
		rt:           rt,
		timeout:      f.timeout,
		modules:      make(map[string]*goja.Object),
		placeholders: make(map[string]string),
	}
	h.setupErr = h.install(globals)
	return h
}

// Host runs units in one goja runtime. Module objects of earlier units stay
// alive so later units import live values, functions included.
type Host struct {
	rt       *goja.Runtime
	timeout  time.Duration
	modules  map[string]*goja.Object
	setupErr error

	// styleErr keeps the error of a failing style function, which reaches
	// Run as a JavaScript exception.
	styleErr error

	// placeholders maps the token of each unresolved placeholder handed to
	// the runtime to its reason.
	placeholders map[string]string
	seq          int
}

var _ ports.ExecutionHost = (*Host)(nil)

// Run implements ports.ExecutionHost.
func (h *Host) Run(ctx context.Context, unit *domain.ExecUnit) (map[string]domain.Value, error) {
	if h.setupErr != nil {
		return nil, h.setupErr
	}
	code, err := lower(unit.Filename, unit.Code)
	if err != nil {
		return nil, err
	}

	fn, err := h.compile(unit.Filename, code)
	if err != nil {
		return nil, err
	}

	exports := h.rt.NewObject()
	module := h.rt.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}

	h.styleErr = nil
	guard := &runGuard{}
	timer := time.AfterFunc(h.timeout, func() {
		guard.do(func() { h.rt.Interrupt(domain.ErrEvaluationTimeout) })
	})
	stop := context.AfterFunc(ctx, func() {
		guard.do(func() { h.rt.Interrupt(ctx.Err()) })
	})
	_, runErr := fn(goja.Undefined(),
		exports,
		h.rt.ToValue(h.require(unit)),
		module,
		h.rt.ToValue(unit.Filename),
		h.rt.ToValue(path.Dir(unit.Filename)),
		h.rt.ToValue(h.styleTag(unit, domain.StyleKindCSS)),
		h.rt.ToValue(h.styleTag(unit, domain.StyleKindStyled)),
	)
	timer.Stop()
	stop()
	guard.finish()
	h.rt.ClearInterrupt()
	if runErr != nil {
		return nil, h.failure(unit, runErr)
	}

	out := module.Get("exports").ToObject(h.rt)
	if unit.Key != "" {
		h.modules[unit.Key] = out
	}
	values := make(map[string]domain.Value, len(unit.Exports))
	for _, name := range unit.Exports {
		v := out.Get(name)
		if v == nil {
			return nil, domain.Fail(domain.ErrExportNotFound, "file", unit.Filename, "export", name)
		}
		values[name] = h.toValue(v, 0)
	}
	return values, nil
}

// runGuard keeps interrupts of one run from reaching the next. Once finish
// returns, no callback passed to do runs again.
type runGuard struct {
	mu   sync.Mutex
	done bool
}

func (g *runGuard) do(f func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.done {
		f()
	}
}

func (g *runGuard) finish() {
	g.mu.Lock()
	g.done = true
	g.mu.Unlock()
}

// Close implements ports.ExecutionHost.
func (h *Host) Close() error {
	h.modules = nil
	return nil
}

func (h *Host) compile(filename, code string) (goja.Callable, error) {
	wrapped := "(function (exports, require, module, __filename, __dirname, " +
		shaker.CSSTagFunc + ", " + shaker.StyledTagFunc + ") {\n" + code + "\n})"
	v, err := h.rt.RunScript(filename, wrapped)
	if err != nil {
		return nil, domain.Fail(domain.Because(domain.ErrEvaluation, err), "file", filename)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, domain.Fail(domain.ErrEvaluation, "file", filename)
	}
	return fn, nil
}

func (h *Host) failure(unit *domain.ExecUnit, err error) error {
	if h.styleErr != nil {
		return h.styleErr
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			if errors.Is(cause, domain.ErrEvaluationTimeout) {
				return domain.Fail(cause, "file", unit.Filename, "timeout", h.timeout.String())
			}
			return cause
		}
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return domain.Fail(domain.ErrEvaluation, "file", unit.Filename, "message", ex.Value().String(), "stack", ex.Error())
	}
	return domain.Fail(domain.Because(domain.ErrEvaluation, err), "file", unit.Filename)
}

// require serves the dependencies of unit, preferring live module objects.
func (h *Host) require(unit *domain.ExecUnit) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		dep, ok := unit.Dependencies[spec]
		if !ok {
			panic(h.rt.NewGoError(domain.Fail(domain.ErrModuleResolution, "file", unit.Filename, "specifier", spec)))
		}
		if live, ok := h.modules[dep.Key]; ok && dep.Key != "" {
			return live
		}
		obj := h.rt.NewObject()
		for name, v := range dep.Values {
			_ = obj.Set(name, h.toJS(v))
		}
		_ = obj.Set("__esModule", true)
		return obj
	}
}

// styleTag returns the function a rewritten style tag calls with the
// template metadata. It yields the template tag itself.
func (h *Host) styleTag(unit *domain.ExecUnit, kind string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		meta := styleMeta(call.Argument(0), kind)
		return h.rt.ToValue(func(tc goja.FunctionCall) goja.Value {
			if unit.Styles == nil {
				return h.toJS(domain.UnresolvedValue("style template outside a transform"))
			}
			strs := tc.Argument(0).ToObject(h.rt)
			raw := strs.Get("raw").ToObject(h.rt)
			n := int(raw.Get("length").ToInteger())
			quasis := make([]string, n)
			for i := range quasis {
				quasis[i] = raw.Get(strconv.Itoa(i)).String()
			}
			var values []domain.Value
			if len(tc.Arguments) > 1 {
				values = make([]domain.Value, 0, len(tc.Arguments)-1)
				for _, arg := range tc.Arguments[1:] {
					values = append(values, h.toValue(arg, 0))
				}
			}
			v, err := unit.Styles(meta, quasis, values)
			if err != nil {
				h.styleErr = err
				panic(h.rt.NewGoError(err))
			}
			return h.toJS(v)
		})
	}
}

func styleMeta(v goja.Value, kind string) domain.StyleMeta {
	meta := domain.StyleMeta{Kind: kind}
	obj, ok := v.(*goja.Object)
	if !ok {
		return meta
	}
	str := func(name string) string {
		f := obj.Get(name)
		if f == nil || goja.IsUndefined(f) || goja.IsNull(f) {
			return ""
		}
		return f.String()
	}
	if k := str("kind"); k != "" {
		meta.Kind = k
	}
	meta.Name = str("name")
	meta.Filename = str("filename")
	meta.Element = str("element")
	if idx := obj.Get("index"); idx != nil {
		meta.Index = int(idx.ToInteger())
	}
	return meta
}

// lower turns shaken ES module code into a CommonJS function body.
func lower(filename, code string) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:     loader(filename),
		Format:     api.FormatCommonJS,
		Target:     api.ES2017,
		Platform:   api.PlatformNeutral,
		Sourcefile: filename,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return "", domain.Fail(domain.ErrEvaluation, "file", filename, "message", strings.Join(msgs, "; "))
	}
	return string(result.Code), nil
}

func loader(filename string) api.Loader {
	switch path.Ext(filename) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}
