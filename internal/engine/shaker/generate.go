package shaker

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
)

type generator struct {
	s       *state
	edits   []ast.Edit
	out     []string
	imports map[string][]string
	emitted map[string]bool
}

func (s *state) generate() *Result {
	g := &generator{
		s:       s,
		edits:   Edits(s.mod),
		imports: make(map[string][]string),
		emitted: make(map[string]bool),
	}
	for i, stmt := range s.mod.Body {
		g.stmt(i, stmt)
	}
	exports := g.exports()
	if s.in.Required.Has(ast.PrevalExport) {
		g.preval()
	}

	for src, names := range g.imports {
		slices.Sort(names)
		g.imports[src] = slices.Compact(names)
	}
	code := strings.Join(g.out, "\n")
	if code != "" {
		code += "\n"
	}
	return &Result{Code: code, Exports: exports, Imports: g.imports}
}

// Edits returns the rewrites applied to any code taken from mod: JSX is
// replaced by null and recognised style tags by calls to the runtime tag
// functions.
func Edits(mod *ast.Module) []ast.Edit {
	edits := make([]ast.Edit, 0, len(mod.JSX)+len(mod.Tagged))
	for _, span := range mod.JSX {
		edits = append(edits, ast.Edit{Start: span.Start, End: span.End, Text: "null"})
	}
	index := 0
	for _, tt := range mod.Tagged {
		if tt.Style == nil {
			continue
		}
		meta := domain.StyleMeta{
			Kind:     domain.StyleKindCSS,
			Name:     tt.Binding,
			Filename: mod.Filename,
			Element:  tt.Style.Element,
			Index:    index,
		}
		fn := CSSTagFunc
		if tt.Style.Kind == ast.StyleStyled {
			meta.Kind = domain.StyleKindStyled
			fn = StyledTagFunc
		}
		index++
		raw, _ := json.Marshal(meta)
		tag := tt.Tag.Pos()
		edits = append(edits, ast.Edit{Start: tag.Start, End: tag.End, Text: fn + "(" + string(raw) + ")"})
	}
	return edits
}

func (g *generator) render(n ast.Node) string {
	span := n.Pos()
	return ast.Splice(g.s.mod.Source, span.Start, span.End, g.edits)
}

func (g *generator) stmt(i int, stmt ast.Stmt) {
	switch x := stmt.(type) {
	case *ast.ImportDecl:
		g.importDecl(x)
	case *ast.ExportNamed:
		if x.Source != "" {
			g.reexports(x.Source)
			return
		}
		g.exportClause(x)
	case *ast.ExportAll:
		g.reexports(x.Source)
	case *ast.ExportDecl:
		if v, ok := x.Decl.(*ast.VarDecl); ok {
			if code := g.varDecl(i, v); code != "" {
				g.out = append(g.out, "export "+code)
			}
			return
		}
		if g.s.kept[declKey{stmt: i, decl: -1}] {
			g.out = append(g.out, g.render(x))
		}
	case *ast.VarDecl:
		if code := g.varDecl(i, x); code != "" {
			g.out = append(g.out, code)
		}
	case *ast.TypeOnly:
	default:
		if g.s.kept[declKey{stmt: i, decl: -1}] {
			g.out = append(g.out, g.render(x))
		}
	}
}

func (g *generator) importDecl(x *ast.ImportDecl) {
	if x.TypeOnly {
		return
	}
	used := g.s.usedImports
	var head []string
	if x.Default != "" && used[x.Default] {
		head = append(head, x.Default)
		g.imports[x.Source] = append(g.imports[x.Source], "default")
	}
	if x.Namespace != "" && used[x.Namespace] {
		head = append(head, "* as "+x.Namespace)
		g.imports[x.Source] = append(g.imports[x.Source], "*")
	}
	var named []string
	for _, spec := range x.Named {
		if !used[spec.Local] {
			continue
		}
		named = append(named, aliased(spec.Imported, spec.Local))
		g.imports[x.Source] = append(g.imports[x.Source], spec.Imported)
	}
	if len(named) > 0 {
		head = append(head, "{ "+strings.Join(named, ", ")+" }")
	}
	if len(head) == 0 {
		return
	}
	g.out = append(g.out, "import "+strings.Join(head, ", ")+" from "+strconv.Quote(x.Source)+";")
}

func (g *generator) exportClause(x *ast.ExportNamed) {
	var specs []string
	for _, spec := range x.Specs {
		if !g.wanted(spec.Exported) {
			continue
		}
		specs = append(specs, aliased(spec.Local, spec.Exported))
	}
	if len(specs) > 0 {
		g.out = append(g.out, "export { "+strings.Join(specs, ", ")+" };")
	}
}

// reexports emits every re-export needed from source at the first statement
// naming it.
func (g *generator) reexports(source string) {
	if g.emitted[source] {
		return
	}
	g.emitted[source] = true

	var specs []string
	for _, r := range g.s.reexports[source] {
		g.imports[source] = append(g.imports[source], r.name)
		switch {
		case r.name == "*" && r.exported == "":
			g.out = append(g.out, "export * from "+strconv.Quote(source)+";")
		case r.name == "*":
			g.out = append(g.out, "export * as "+r.exported+" from "+strconv.Quote(source)+";")
		default:
			specs = append(specs, aliased(r.name, r.exported))
		}
	}
	if len(specs) > 0 {
		g.out = append(g.out, "export { "+strings.Join(specs, ", ")+" } from "+strconv.Quote(source)+";")
	}
}

func (g *generator) varDecl(i int, v *ast.VarDecl) string {
	var decls []string
	for j, d := range v.Decls {
		if g.s.kept[declKey{stmt: i, decl: j}] {
			decls = append(decls, g.render(d))
		}
	}
	if len(decls) == 0 {
		return ""
	}
	return v.Kind + " " + strings.Join(decls, ", ") + ";"
}

func (g *generator) preval() {
	parts := make([]string, 0, len(g.s.mod.Preval))
	for _, e := range g.s.mod.Preval {
		parts = append(parts, g.expr(e))
	}
	g.out = append(g.out, "export const "+ast.PrevalExport+" = ["+strings.Join(parts, ", ")+"];")
}

// expr renders e. Synthetic arrays built by the pipeline have no source
// span and are rendered element by element.
func (g *generator) expr(e ast.Expr) string {
	if arr, ok := e.(*ast.Array); ok && arr.End == 0 {
		parts := make([]string, 0, len(arr.Elems))
		for _, el := range arr.Elems {
			parts = append(parts, g.expr(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return g.render(e)
}

func (g *generator) wanted(name string) bool {
	return g.s.in.Required.All() || g.s.in.Required.Has(name)
}

func (g *generator) exports() []string {
	var names []string
	if g.s.in.Required.All() {
		for name := range g.s.exports {
			names = append(names, name)
		}
	}
	for _, name := range g.s.in.Required.Names() {
		if name != domain.AllExports {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func aliased(name, as string) string {
	if as == "" || as == name {
		return name
	}
	return name + " as " + as
}
