package domain

import (
	"time"

	"go.trai.ch/sift/internal/core/ast"
)

const (
	// DefaultTagSource is the module the style tags are imported from.
	DefaultTagSource = "@sift/core"

	// DefaultRuntimeModule provides the runtime helpers referenced by rewritten code.
	DefaultRuntimeModule = "@sift/runtime"

	// DefaultSandboxTimeout bounds the execution of a single module.
	DefaultSandboxTimeout = 5 * time.Second
)

// TagResolver decides whether a tagged template is a style template. It returns
// nil for templates that are left untouched.
type TagResolver func(tag ast.Expr, mod *ast.Module) *ast.StyleTag

// Options control a single transform.
type Options struct {
	// Evaluate selects the JavaScript runtime. When false, interpolations are
	// constant folded and anything dynamic is an error.
	Evaluate bool
	// DisplayName prefixes class names with a slug of the file and variable name.
	DisplayName bool
	// Extension names the stylesheet emitted for a source file.
	Extension string
	// TagResolver overrides style tag recognition.
	TagResolver TagResolver
	// TagSources are the modules the css and styled tags are imported from.
	TagSources []string
	// RuntimeModule is imported by rewritten code that needs runtime helpers.
	RuntimeModule string
	// Globals are exposed to evaluated code in addition to the stubbed host globals.
	Globals map[string]any
	// PureCallees are dotted callee names known to be free of side effects.
	PureCallees []string
	// Timeout bounds the evaluation of a single module.
	Timeout time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Evaluate: true}.WithDefaults()
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
	if len(o.TagSources) == 0 {
		o.TagSources = []string{DefaultTagSource}
	}
	if o.RuntimeModule == "" {
		o.RuntimeModule = DefaultRuntimeModule
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultSandboxTimeout
	}
	return o
}

// CSSFilename names the stylesheet extracted from filename.
func (o Options) CSSFilename(filename string) string {
	ext := o.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	for i := len(filename) - 1; i >= 0 && filename[i] != '/'; i-- {
		if filename[i] == '.' {
			return filename[:i] + ext
		}
	}
	return filename + ext
}
