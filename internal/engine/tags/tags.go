// Package tags recognises style templates in a parsed module.
package tags

import (
	"slices"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
)

// Annotate marks the style templates of mod and records the local names
// bound to style tags. It returns the number of style templates found.
func Annotate(mod *ast.Module, opts domain.Options) int {
	kinds := tagImports(mod, opts.TagSources)
	mod.TagBindings = make(map[string]bool, len(kinds))
	for local := range kinds {
		mod.TagBindings[local] = true
	}

	resolve := opts.TagResolver
	if resolve == nil {
		resolve = func(tag ast.Expr, _ *ast.Module) *ast.StyleTag {
			return recognise(tag, kinds, mod)
		}
	}

	count := 0
	for _, tt := range mod.Tagged {
		tt.Style = resolve(tt.Tag, mod)
		if tt.Style != nil {
			count++
		}
	}
	return count
}

// Preval collects the interpolations of every style template of a root
// module, one group per template, so they can be evaluated in module scope.
func Preval(mod *ast.Module) {
	mod.Preval = mod.Preval[:0]
	for _, tt := range mod.Tagged {
		if tt.Style != nil {
			mod.Preval = append(mod.Preval, &ast.Array{Elems: tt.Template.Exprs})
		}
	}
}

// Styles returns the style templates of mod in source order.
func Styles(mod *ast.Module) []*ast.TaggedTemplate {
	var out []*ast.TaggedTemplate
	for _, tt := range mod.Tagged {
		if tt.Style != nil {
			out = append(out, tt)
		}
	}
	return out
}

// tagImports maps the locals imported from a tag source to the tag kind.
func tagImports(mod *ast.Module, sources []string) map[string]ast.StyleKind {
	if len(sources) == 0 {
		sources = []string{domain.DefaultTagSource}
	}
	out := make(map[string]ast.StyleKind)
	for _, stmt := range mod.Body {
		imp, ok := stmt.(*ast.ImportDecl)
		if !ok || imp.TypeOnly || !slices.Contains(sources, imp.Source) {
			continue
		}
		if imp.Default != "" {
			out[imp.Default] = ast.StyleStyled
		}
		for _, spec := range imp.Named {
			switch spec.Imported {
			case "css":
				out[spec.Local] = ast.StyleCSS
			case "styled":
				out[spec.Local] = ast.StyleStyled
			}
		}
	}
	return out
}

func recognise(tag ast.Expr, kinds map[string]ast.StyleKind, mod *ast.Module) *ast.StyleTag {
	switch x := tag.(type) {
	case *ast.Ident:
		if kinds[x.Name] == ast.StyleCSS {
			return &ast.StyleTag{Kind: ast.StyleCSS}
		}
	case *ast.Member:
		id, ok := x.Object.(*ast.Ident)
		if ok && x.Index == nil && kinds[id.Name] == ast.StyleStyled {
			return &ast.StyleTag{Kind: ast.StyleStyled, Element: x.Property}
		}
	case *ast.Call:
		id, ok := x.Callee.(*ast.Ident)
		if ok && len(x.Args) == 1 && kinds[id.Name] == ast.StyleStyled {
			return &ast.StyleTag{Kind: ast.StyleStyled, Element: mod.Text(x.Args[0].Pos())}
		}
	}
	return nil
}
