package treesitter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/treesitter"
	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
)

func parse(t *testing.T, filename, src string) *ast.Module {
	t.Helper()
	mod, err := treesitter.New().Parse(t.Context(), filename, src)
	require.NoError(t, err)
	return mod
}

func TestParse_ImportsAndExports(t *testing.T) {
	src := `import React, { useState as us } from 'react';
import * as theme from "./theme";
import './global.css';
export const red = '#ff0000', zero = "0";
export function px(n) { return n + unit; }
export default red;
export { red as primary } from './colors';
export * from './more';
export * as ns from './ns';
`
	mod := parse(t, "/src/a.js", src)
	require.Len(t, mod.Body, 9)

	imp := mod.Body[0].(*ast.ImportDecl)
	assert.Equal(t, "react", imp.Source)
	assert.Equal(t, "React", imp.Default)
	assert.Equal(t, []ast.ImportSpec{{Imported: "useState", Local: "us"}}, imp.Named)

	ns := mod.Body[1].(*ast.ImportDecl)
	assert.Equal(t, "theme", ns.Namespace)

	bare := mod.Body[2].(*ast.ImportDecl)
	assert.Equal(t, "./global.css", bare.Source)
	assert.Empty(t, bare.Locals())

	exported := mod.Body[3].(*ast.ExportDecl).Decl.(*ast.VarDecl)
	assert.Equal(t, "const", exported.Kind)
	require.Len(t, exported.Decls, 2)
	assert.Equal(t, &ast.String{Value: "#ff0000"}, stripSpan(exported.Decls[0].Init))
	assert.Equal(t, &ast.String{Value: "0"}, stripSpan(exported.Decls[1].Init))

	fn := mod.Body[4].(*ast.ExportDecl).Decl.(*ast.FuncDecl)
	assert.Equal(t, "px", fn.Name)
	assert.Equal(t, []string{"unit"}, fn.Refs)

	def := mod.Body[5].(*ast.ExportDefault)
	assert.Equal(t, "red", def.Expr.(*ast.Ident).Name)

	reexport := mod.Body[6].(*ast.ExportNamed)
	assert.Equal(t, "./colors", reexport.Source)
	assert.Equal(t, []ast.ExportSpec{{Local: "red", Exported: "primary"}}, reexport.Specs)

	star := mod.Body[7].(*ast.ExportAll)
	assert.Equal(t, "./more", star.Source)
	assert.Empty(t, star.As)

	assert.Equal(t, "ns", mod.Body[8].(*ast.ExportAll).As)

	assert.Equal(t, []string{"react", "./theme", "./global.css", "./colors", "./more", "./ns"}, mod.Sources())
}

func TestParse_TaggedTemplates(t *testing.T) {
	src := "import { css, styled } from '@sift/core';\n" +
		"const title = css`color: ${red}; margin: ${px(2)};`;\n" +
		"export const Button = styled.button`\n  ${title} { padding: 0; }\n`;\n"

	mod := parse(t, "/src/button.js", src)
	require.Len(t, mod.Tagged, 2)

	title := mod.Tagged[0]
	assert.Equal(t, "title", title.Binding)
	require.Len(t, title.Template.Quasis, 3)
	assert.Equal(t, "color: ", title.Template.Quasis[0].Raw)
	assert.Equal(t, "; margin: ", title.Template.Quasis[1].Raw)
	assert.Equal(t, ";", title.Template.Quasis[2].Raw)
	assert.Equal(t, 2, title.Template.Quasis[0].Line)
	assert.Equal(t, "red", title.Template.Exprs[0].(*ast.Ident).Name)
	assert.IsType(t, &ast.Call{}, title.Template.Exprs[1])

	decl := mod.Body[1].(*ast.VarDecl)
	assert.Same(t, title, decl.Decls[0].Init)

	button := mod.Tagged[1]
	assert.Equal(t, "Button", button.Binding)
	name, ok := ast.CalleeName(button.Tag)
	require.True(t, ok)
	assert.Equal(t, "styled.button", name)
	assert.Equal(t, "\n  ", button.Template.Quasis[0].Raw)
}

func TestParse_JSXAndPurity(t *testing.T) {
	src := `const el = <div className={x}><span/></div>;
const s = /*#__PURE__*/ create();
const t = create();
`
	mod := parse(t, "/src/view.jsx", src)

	require.Len(t, mod.JSX, 1)
	assert.Equal(t, "<div className={x}><span/></div>", mod.Text(mod.JSX[0]))
	assert.IsType(t, &ast.JSX{}, mod.Body[0].(*ast.VarDecl).Decls[0].Init)

	assert.True(t, mod.Body[1].(*ast.VarDecl).Decls[0].Init.(*ast.Call).Pure)
	assert.False(t, mod.Body[2].(*ast.VarDecl).Decls[0].Init.(*ast.Call).Pure)
}

func TestParse_Destructuring(t *testing.T) {
	mod := parse(t, "/src/d.js", "const { a, b: [c], d = fallback } = obj;\n")

	d := mod.Body[0].(*ast.VarDecl).Decls[0]
	assert.True(t, d.Pattern)
	assert.Equal(t, []string{"a", "c", "d"}, d.Names)
	assert.Equal(t, []string{"fallback"}, d.PatternRefs)
	assert.Equal(t, "obj", d.Init.(*ast.Ident).Name)
}

func TestParse_FunctionScope(t *testing.T) {
	mod := parse(t, "/src/f.js", "function f(x) { const y = x + z; return g(y); }\nconst h = (a) => a * k;\n")

	assert.Equal(t, []string{"z", "g"}, mod.Body[0].(*ast.FuncDecl).Refs)

	arrow := mod.Body[1].(*ast.VarDecl).Decls[0].Init.(*ast.Function)
	assert.True(t, arrow.Arrow)
	assert.Equal(t, []string{"k"}, arrow.Refs)
}

func TestParse_TypeScript(t *testing.T) {
	src := `import type { Theme } from './theme';
interface Props { size: number }
type Size = 'sm' | 'lg';
export const gap = 4 as number;
`
	mod := parse(t, "/src/gap.ts", src)
	require.Len(t, mod.Body, 4)

	assert.True(t, mod.Body[0].(*ast.ImportDecl).TypeOnly)
	assert.IsType(t, &ast.TypeOnly{}, mod.Body[1])
	assert.IsType(t, &ast.TypeOnly{}, mod.Body[2])
	gap := mod.Body[3].(*ast.ExportDecl).Decl.(*ast.VarDecl)
	assert.Equal(t, 4.0, gap.Decls[0].Init.(*ast.Number).Value)
	assert.Empty(t, mod.Sources())
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := treesitter.New().Parse(t.Context(), "/src/bad.js", "const = ;\n")
	require.ErrorIs(t, err, domain.ErrParse)
}

// stripSpan clears source positions so literals compare by value.
func stripSpan(e ast.Expr) ast.Expr {
	if s, ok := e.(*ast.String); ok {
		return &ast.String{Value: s.Value}
	}
	return e
}
