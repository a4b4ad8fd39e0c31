package shaker

import (
	"slices"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
)

// declKey addresses a declarator (decl >= 0) or a whole statement (decl == -1).
type declKey struct {
	stmt int
	decl int
}

type importBinding struct {
	source   string
	imported string
}

// exportTarget is what an export name resolves to.
type exportTarget struct {
	local  string
	stmt   int // anonymous default export, -1 otherwise
	source string
	name   string // name imported from source
	star   bool   // provided by an `export * from` statement
}

type state struct {
	in  Input
	mod *ast.Module

	bindings map[string]declKey
	imports  map[string]importBinding
	exports  map[string]exportTarget
	globals  map[string]bool

	kept        map[declKey]bool
	usedImports map[string]bool
	// reexports holds, per source, the names re-exported from it.
	reexports map[string][]reexport
	work      []string
	visited   map[string]bool
}

type reexport struct {
	name     string
	exported string
}

func newState(in Input) *state {
	s := &state{
		in:          in,
		mod:         in.Module,
		bindings:    make(map[string]declKey),
		imports:     make(map[string]importBinding),
		exports:     make(map[string]exportTarget),
		globals:     make(map[string]bool),
		kept:        make(map[declKey]bool),
		usedImports: make(map[string]bool),
		reexports:   make(map[string][]reexport),
		visited:     make(map[string]bool),
	}
	for _, g := range in.Globals {
		s.globals[g] = true
	}
	s.index()
	return s
}

// index builds the binding and export tables.
func (s *state) index() {
	for i, stmt := range s.mod.Body {
		switch x := stmt.(type) {
		case *ast.ImportDecl:
			if x.TypeOnly {
				continue
			}
			if x.Default != "" {
				s.imports[x.Default] = importBinding{source: x.Source, imported: "default"}
			}
			if x.Namespace != "" {
				s.imports[x.Namespace] = importBinding{source: x.Source, imported: "*"}
			}
			for _, spec := range x.Named {
				s.imports[spec.Local] = importBinding{source: x.Source, imported: spec.Imported}
			}
		case *ast.ExportDecl:
			s.bindDecl(i, x.Decl)
			for _, name := range ast.Declared(x.Decl) {
				s.exports[name] = exportTarget{local: name, stmt: -1}
			}
		case *ast.ExportDefault:
			if x.Decl != nil {
				s.bindDecl(i, x.Decl)
				if names := ast.Declared(x.Decl); len(names) > 0 {
					s.exports["default"] = exportTarget{local: names[0], stmt: -1}
					continue
				}
			}
			s.exports["default"] = exportTarget{stmt: i}
		case *ast.ExportNamed:
			for _, spec := range x.Specs {
				if x.Source != "" {
					s.exports[spec.Exported] = exportTarget{stmt: -1, source: x.Source, name: spec.Local}
				} else {
					s.exports[spec.Exported] = exportTarget{local: spec.Local, stmt: -1}
				}
			}
		case *ast.ExportAll:
			if x.As != "" {
				s.exports[x.As] = exportTarget{stmt: -1, source: x.Source, name: "*"}
			}
		default:
			s.bindDecl(i, stmt)
		}
	}
	for name, source := range s.in.StarExports {
		if _, ok := s.exports[name]; !ok {
			s.exports[name] = exportTarget{stmt: -1, source: source, name: name, star: true}
		}
	}
}

func (s *state) bindDecl(i int, stmt ast.Stmt) {
	switch d := stmt.(type) {
	case *ast.VarDecl:
		for j, decl := range d.Decls {
			for _, name := range decl.Names {
				s.bindings[name] = declKey{stmt: i, decl: j}
			}
		}
	default:
		for _, name := range ast.Declared(stmt) {
			s.bindings[name] = declKey{stmt: i, decl: -1}
		}
	}
}

// markRoots marks the required exports and every statement with a side
// effect that cannot be proven absent.
func (s *state) markRoots() error {
	required := s.in.Required.Names()
	if s.in.Required.All() {
		required = nil
		for name, target := range s.exports {
			if !target.star {
				required = append(required, name)
			}
		}
		slices.Sort(required)
		required = append(required, s.in.Required.Names()...)
		for _, stmt := range s.mod.Body {
			if all, ok := stmt.(*ast.ExportAll); ok && all.As == "" {
				s.reexports[all.Source] = append(s.reexports[all.Source], reexport{name: "*"})
			}
		}
	}

	for _, name := range required {
		if name == domain.AllExports {
			continue
		}
		if name == ast.PrevalExport {
			for _, e := range s.mod.Preval {
				s.push(exprRefs(e)...)
			}
			continue
		}
		target, ok := s.exports[name]
		if !ok {
			return domain.Fail(domain.ErrExportNotFound, "file", s.mod.Filename, "export", name)
		}
		switch {
		case target.source != "":
			s.reexports[target.source] = append(s.reexports[target.source], reexport{name: target.name, exported: name})
		case target.stmt >= 0:
			s.keep(declKey{stmt: target.stmt, decl: -1})
		default:
			s.push(target.local)
		}
	}

	for i, stmt := range s.mod.Body {
		s.markEffects(i, stmt)
	}
	return nil
}

func (s *state) markEffects(i int, stmt ast.Stmt) {
	switch x := stmt.(type) {
	case *ast.ExportDecl:
		s.markEffects(i, x.Decl)
	case *ast.ExportDefault:
		if x.Expr != nil && !ast.IsPure(x.Expr, s.in.Pure) {
			s.keep(declKey{stmt: i, decl: -1})
		}
	case *ast.VarDecl:
		for j, d := range x.Decls {
			if d.Init != nil && !ast.IsPure(d.Init, s.in.Pure) {
				s.keep(declKey{stmt: i, decl: j})
			}
		}
	case *ast.ExprStmt:
		if !ast.IsPure(x.X, s.in.Pure) {
			s.keep(declKey{stmt: i, decl: -1})
		}
	case *ast.OtherStmt:
		if len(x.Declares) == 0 {
			s.keep(declKey{stmt: i, decl: -1})
		}
	}
}

func (s *state) keep(k declKey) {
	if s.kept[k] {
		return
	}
	s.kept[k] = true
	s.push(s.refsOf(k)...)
}

func (s *state) push(names ...string) {
	s.work = append(s.work, names...)
}

// drain follows references from kept code until a fixed point.
func (s *state) drain() error {
	for len(s.work) > 0 {
		name := s.work[len(s.work)-1]
		s.work = s.work[:len(s.work)-1]
		if s.visited[name] {
			continue
		}
		s.visited[name] = true

		if s.mod.TagBindings[name] {
			continue
		}
		if k, ok := s.bindings[name]; ok {
			s.keep(k)
			continue
		}
		if _, ok := s.imports[name]; ok {
			s.usedImports[name] = true
			continue
		}
		if s.globals[name] || IsGlobal(name) {
			continue
		}
		return domain.Fail(domain.ErrUndeclaredReference, "file", s.mod.Filename, "name", name)
	}
	return nil
}

func (s *state) refsOf(k declKey) []string {
	stmt := s.mod.Body[k.stmt]
	if k.decl >= 0 {
		d := declaratorAt(stmt, k.decl)
		refs := append([]string(nil), d.PatternRefs...)
		if d.Init != nil {
			refs = append(refs, exprRefs(d.Init)...)
		}
		return refs
	}
	return stmtRefs(stmt)
}

func declaratorAt(stmt ast.Stmt, j int) *ast.Declarator {
	switch x := stmt.(type) {
	case *ast.VarDecl:
		return x.Decls[j]
	case *ast.ExportDecl:
		return declaratorAt(x.Decl, j)
	}
	return nil
}

func stmtRefs(stmt ast.Stmt) []string {
	switch x := stmt.(type) {
	case *ast.ExprStmt:
		return exprRefs(x.X)
	case *ast.ExportDefault:
		if x.Expr != nil {
			return exprRefs(x.Expr)
		}
		return stmtRefs(x.Decl)
	case *ast.ExportDecl:
		return stmtRefs(x.Decl)
	case *ast.VarDecl:
		var refs []string
		for _, d := range x.Decls {
			refs = append(refs, d.PatternRefs...)
			if d.Init != nil {
				refs = append(refs, exprRefs(d.Init)...)
			}
		}
		return refs
	}
	return ast.Refs(stmt)
}

// exprRefs is ast.FreeRefs except that the tag of a recognised style
// template is not a reference: it is replaced in the shaken code.
func exprRefs(e ast.Expr) []string {
	var refs []string
	ast.Walk(e, func(n ast.Expr) bool {
		switch x := n.(type) {
		case *ast.TaggedTemplate:
			if x.Style != nil {
				refs = append(refs, exprRefs(x.Template)...)
				return false
			}
		default:
			refs = append(refs, leafRefs(n)...)
		}
		return true
	})
	return refs
}

func leafRefs(e ast.Expr) []string {
	switch x := e.(type) {
	case *ast.Ident:
		return []string{x.Name}
	case *ast.Function:
		return x.Refs
	case *ast.Class:
		return x.Refs
	case *ast.Opaque:
		return x.Refs
	}
	return nil
}
