// Package fold implements an execution host that constant folds shaken code
// instead of running it.
package fold

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/shaker"
)

// Factory creates folding hosts.
type Factory struct {
	parser ports.Parser
}

// New creates a Factory that parses units with parser.
func New(parser ports.Parser) *Factory {
	return &Factory{parser: parser}
}

var _ ports.SandboxFactory = (*Factory)(nil)

// NewHost implements ports.SandboxFactory.
func (f *Factory) NewHost(globals map[string]any) ports.ExecutionHost {
	values := make(map[string]domain.Value, len(globals))
	for name, v := range globals {
		values[name] = domain.ValueOf(v)
	}
	return &Host{parser: f.parser, globals: values}
}

// Host folds units. Anything that needs the JavaScript runtime evaluates to
// an unresolved value.
type Host struct {
	parser  ports.Parser
	globals map[string]domain.Value
}

// Run implements ports.ExecutionHost.
func (h *Host) Run(ctx context.Context, unit *domain.ExecUnit) (map[string]domain.Value, error) {
	mod, err := h.parser.Parse(ctx, unit.Filename, unit.Code)
	if err != nil {
		return nil, err
	}

	e := &evaluator{
		host:    h,
		unit:    unit,
		mod:     mod,
		env:     make(map[string]domain.Value),
		exports: make(map[string]domain.Value),
	}
	for _, stmt := range mod.Body {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.stmt(stmt); err != nil {
			return nil, err
		}
	}

	out := make(map[string]domain.Value, len(unit.Exports))
	for _, name := range unit.Exports {
		v, ok := e.exports[name]
		if !ok {
			return nil, domain.Fail(domain.ErrExportNotFound, "file", unit.Filename, "export", name)
		}
		out[name] = v
	}
	return out, nil
}

// Close implements ports.ExecutionHost.
func (h *Host) Close() error {
	return nil
}

type evaluator struct {
	host    *Host
	unit    *domain.ExecUnit
	mod     *ast.Module
	env     map[string]domain.Value
	exports map[string]domain.Value
}

func (e *evaluator) dependency(source string) (map[string]domain.Value, error) {
	dep, ok := e.unit.Dependencies[source]
	if !ok {
		return nil, domain.Fail(domain.ErrModuleResolution, "file", e.unit.Filename, "specifier", source)
	}
	return dep.Values, nil
}

func namespace(values map[string]domain.Value) domain.Value {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return domain.ObjectValue(keys, values)
}

func lookup(values map[string]domain.Value, name string) domain.Value {
	if v, ok := values[name]; ok {
		return v
	}
	return domain.UndefinedValue()
}

func (e *evaluator) stmt(stmt ast.Stmt) error {
	switch x := stmt.(type) {
	case *ast.ImportDecl:
		if x.TypeOnly {
			return nil
		}
		values, err := e.dependency(x.Source)
		if err != nil {
			return err
		}
		if x.Default != "" {
			e.env[x.Default] = lookup(values, "default")
		}
		if x.Namespace != "" {
			e.env[x.Namespace] = namespace(values)
		}
		for _, spec := range x.Named {
			e.env[spec.Local] = lookup(values, spec.Imported)
		}
	case *ast.VarDecl:
		for _, d := range x.Decls {
			if err := e.declarator(d); err != nil {
				return err
			}
		}
	case *ast.FuncDecl:
		e.env[x.Name] = domain.FunctionValue(x.Name)
	case *ast.ClassDecl:
		e.env[x.Name] = domain.FunctionValue(x.Name)
	case *ast.ExportDecl:
		if err := e.stmt(x.Decl); err != nil {
			return err
		}
		for _, name := range ast.Declared(x.Decl) {
			e.exports[name] = e.env[name]
		}
	case *ast.ExportDefault:
		if x.Decl != nil {
			if err := e.stmt(x.Decl); err != nil {
				return err
			}
			names := ast.Declared(x.Decl)
			if len(names) > 0 {
				e.exports["default"] = e.env[names[0]]
			} else {
				e.exports["default"] = domain.FunctionValue("default")
			}
			return nil
		}
		v, err := e.eval(x.Expr)
		if err != nil {
			return err
		}
		e.exports["default"] = v
	case *ast.ExportNamed:
		if x.Source == "" {
			for _, spec := range x.Specs {
				e.exports[spec.Exported] = e.ident(spec.Local)
			}
			return nil
		}
		values, err := e.dependency(x.Source)
		if err != nil {
			return err
		}
		for _, spec := range x.Specs {
			e.exports[spec.Exported] = lookup(values, spec.Local)
		}
	case *ast.ExportAll:
		values, err := e.dependency(x.Source)
		if err != nil {
			return err
		}
		if x.As != "" {
			e.exports[x.As] = namespace(values)
			return nil
		}
		for name, v := range values {
			if name != "default" {
				e.exports[name] = v
			}
		}
	}
	// Expression statements and control flow have no foldable result.
	return nil
}

func (e *evaluator) declarator(d *ast.Declarator) error {
	init := domain.UndefinedValue()
	if d.Init != nil {
		v, err := e.eval(d.Init)
		if err != nil {
			return err
		}
		init = v
	}
	if !d.Pattern {
		for _, name := range d.Names {
			e.env[name] = init
		}
		return nil
	}
	e.destructure(d, init)
	return nil
}

// destructure binds flat object and array patterns. Renames, defaults and
// nested patterns are left unresolved.
func (e *evaluator) destructure(d *ast.Declarator, init domain.Value) {
	end := d.End
	if d.Init != nil {
		end = d.Init.Pos().Start
	}
	pattern := strings.TrimSpace(e.mod.Source[d.Start:end])
	pattern = strings.TrimSpace(strings.TrimSuffix(pattern, "="))

	simple := len(pattern) >= 2 && !strings.ContainsAny(pattern[1:len(pattern)-1], ":=[]{}.")
	for i, name := range d.Names {
		switch {
		case !simple || init.Kind != domain.ValueObject:
			e.env[name] = domain.UnresolvedValue("destructuring of " + name)
		case strings.HasPrefix(pattern, "["):
			v, _ := init.Field(formatIndex(i))
			e.env[name] = v
		default:
			v, _ := init.Field(name)
			e.env[name] = v
		}
	}
}

func (e *evaluator) ident(name string) domain.Value {
	if v, ok := e.env[name]; ok {
		return v
	}
	if v, ok := e.host.globals[name]; ok {
		return v
	}
	switch name {
	case "undefined":
		return domain.UndefinedValue()
	case "NaN":
		return domain.NumberValue(nan)
	case "Infinity":
		return domain.NumberValue(inf)
	}
	if shaker.IsGlobal(name) {
		return domain.UnresolvedValue(name + " needs the runtime")
	}
	return domain.UnresolvedValue("unknown identifier " + name)
}
