package shaker_test

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/treesitter"
	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/engine/shaker"
	"go.trai.ch/sift/internal/engine/tags"
)

const themeSource = `import { darken } from "./color";
import unused from "./unused";
import "./side-effect.css";

const base = "#ff0000";
export const colors = { primary: base, hover: darken(base) };
export const size = 4, spacing = size * 2;
export function Icon() {
  return <svg />;
}
console.log("loaded");
`

const buttonSource = "import { css, styled } from \"@sift/core\";\n" +
	"import { colors } from \"./theme\";\n" +
	"\n" +
	"const pad = 4;\n" +
	"const unusedLocal = 1;\n" +
	"export const title = css`\n" +
	"  color: ${colors.primary};\n" +
	"`;\n" +
	"export const Button = styled.button`\n" +
	"  padding: ${pad * 2}px;\n" +
	"  ${title};\n" +
	"`;\n" +
	"export default function App() {\n" +
	"  return <Button>hi</Button>;\n" +
	"}\n"

func parse(t *testing.T, filename, source string) *ast.Module {
	t.Helper()
	mod, err := treesitter.New().Parse(context.Background(), filename, source)
	require.NoError(t, err)
	return mod
}

func TestShake_Golden(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		source     string
		required   []string
		pure       ast.PureCallees
		root       bool
		goldenName string
	}{
		{
			name:       "named export keeps side effects",
			filename:   "/src/theme.js",
			source:     themeSource,
			required:   []string{"colors"},
			goldenName: "theme_colors",
		},
		{
			name:     "pure callee drops unused declarations",
			filename: "/src/theme.js",
			source:   themeSource,
			required: []string{"spacing"},
			pure: func(callee ast.Expr) bool {
				name, ok := ast.CalleeName(callee)
				return ok && name == "darken"
			},
			goldenName: "theme_spacing",
		},
		{
			name:       "preval of a root module",
			filename:   "/src/button.js",
			source:     buttonSource,
			required:   []string{ast.PrevalExport},
			root:       true,
			goldenName: "button_preval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := parse(t, tt.filename, tt.source)
			tags.Annotate(mod, domain.DefaultOptions())
			if tt.root {
				tags.Preval(mod)
			}

			res, err := shaker.Shake(shaker.Input{
				Module:   mod,
				Required: domain.NewExportSet(tt.required...),
				Pure:     tt.pure,
			})
			require.NoError(t, err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, []byte(res.Code))
		})
	}
}

func TestShake_Imports(t *testing.T) {
	mod := parse(t, "/src/theme.js", themeSource)

	res, err := shaker.Shake(shaker.Input{Module: mod, Required: domain.NewExportSet("colors")})
	require.NoError(t, err)

	assert.Equal(t, []string{"colors"}, res.Exports)
	assert.Equal(t, map[string][]string{"./color": {"darken"}}, res.Imports)
}

func TestShake_PrevalDropsTagImports(t *testing.T) {
	mod := parse(t, "/src/button.js", buttonSource)
	tags.Annotate(mod, domain.DefaultOptions())
	tags.Preval(mod)

	res, err := shaker.Shake(shaker.Input{Module: mod, Required: domain.NewExportSet(ast.PrevalExport)})
	require.NoError(t, err)

	assert.NotContains(t, res.Code, "@sift/core")
	assert.NotContains(t, res.Code, "unusedLocal")
	assert.NotContains(t, res.Code, "App")
	assert.Equal(t, []string{ast.PrevalExport}, res.Exports)
	assert.Equal(t, map[string][]string{"./theme": {"colors"}}, res.Imports)
}

func TestShake_JSXBecomesNull(t *testing.T) {
	mod := parse(t, "/src/theme.js", themeSource)

	res, err := shaker.Shake(shaker.Input{Module: mod, Required: domain.NewExportSet("Icon")})
	require.NoError(t, err)

	assert.Contains(t, res.Code, "return null;")
	assert.NotContains(t, res.Code, "<svg")
}

func TestShake_ReExports(t *testing.T) {
	source := `export { a, b as bee } from "./ab";
export * from "./star";
export * as ns from "./ns";
`
	mod := parse(t, "/src/index.js", source)

	t.Run("named", func(t *testing.T) {
		res, err := shaker.Shake(shaker.Input{
			Module:      mod,
			Required:    domain.NewExportSet("bee", "c"),
			StarExports: map[string]string{"c": "./star"},
		})
		require.NoError(t, err)

		assert.Equal(t, "export { b as bee } from \"./ab\";\nexport { c } from \"./star\";\n", res.Code)
		assert.Equal(t, map[string][]string{"./ab": {"b"}, "./star": {"c"}}, res.Imports)
	})

	t.Run("all", func(t *testing.T) {
		res, err := shaker.Shake(shaker.Input{Module: mod, Required: domain.NewExportSet(domain.AllExports)})
		require.NoError(t, err)

		want := "export { a, b as bee } from \"./ab\";\n" +
			"export * from \"./star\";\n" +
			"export * as ns from \"./ns\";\n"
		assert.Equal(t, want, res.Code)
		assert.Equal(t, []string{"a", "bee", "ns"}, res.Exports)
		assert.Equal(t, map[string][]string{"./ab": {"a", "b"}, "./star": {"*"}, "./ns": {"*"}}, res.Imports)
	})
}

func TestShake_DefaultExpression(t *testing.T) {
	mod := parse(t, "/src/tokens.js", "const unused = 1;\nexport default { color: \"red\" };\n")

	res, err := shaker.Shake(shaker.Input{Module: mod, Required: domain.NewExportSet("default")})
	require.NoError(t, err)

	assert.Equal(t, "export default { color: \"red\" };\n", res.Code)
}

func TestShake_Errors(t *testing.T) {
	t.Run("missing export", func(t *testing.T) {
		mod := parse(t, "/src/a.js", "export const a = 1;\n")

		_, err := shaker.Shake(shaker.Input{Module: mod, Required: domain.NewExportSet("nope")})
		require.ErrorIs(t, err, domain.ErrExportNotFound)
	})

	t.Run("undeclared reference", func(t *testing.T) {
		mod := parse(t, "/src/a.js", "export const x = y + 1;\n")

		_, err := shaker.Shake(shaker.Input{Module: mod, Required: domain.NewExportSet("x")})
		require.ErrorIs(t, err, domain.ErrUndeclaredReference)
	})

	t.Run("host globals are declared", func(t *testing.T) {
		mod := parse(t, "/src/a.js", "export const x = Math.max(theme, 2);\n")

		_, err := shaker.Shake(shaker.Input{
			Module:   mod,
			Required: domain.NewExportSet("x"),
			Globals:  []string{"theme"},
		})
		require.NoError(t, err)
	})
}

func TestExportNames(t *testing.T) {
	source := `export const a = 1, b = 2;
export function f() {}
export default 3;
export { x as y } from "./x";
export * from "./star";
export * as ns from "./ns";
`
	mod := parse(t, "/src/a.js", source)

	names, stars := shaker.ExportNames(mod)
	assert.Equal(t, []string{"a", "b", "default", "f", "ns", "y"}, names)
	assert.Equal(t, []string{"./star"}, stars)
}
