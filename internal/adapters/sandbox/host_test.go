package sandbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/sandbox"
	"go.trai.ch/sift/internal/core/domain"
)

func run(t *testing.T, code string, exports ...string) (map[string]domain.Value, error) {
	t.Helper()
	host := sandbox.New(time.Second).NewHost(nil)
	t.Cleanup(func() { _ = host.Close() })
	return host.Run(t.Context(), &domain.ExecUnit{Filename: "/src/a.js", Code: code, Exports: exports})
}

func TestHost_Constants(t *testing.T) {
	values, err := run(t, `
export const color = "red";
export const size = 4 * 3;
export const ratio = 1 / 4;
export const theme = { primary: "#fff", spacing: [1, 2], nested: { on: true, off: null } };
export function shade() { return color; }
`, "color", "size", "ratio", "theme", "shade")
	require.NoError(t, err)

	assert.Equal(t, domain.StringValue("red"), values["color"])
	assert.Equal(t, domain.NumberValue(12), values["size"])
	assert.Equal(t, domain.NumberValue(0.25), values["ratio"])
	assert.Equal(t, domain.FunctionValue("shade"), values["shade"])

	theme := values["theme"]
	assert.Equal(t, []string{"primary", "spacing", "nested"}, theme.Keys)
	assert.Equal(t, domain.ArrayValue([]domain.Value{domain.NumberValue(1), domain.NumberValue(2)}), theme.Fields["spacing"])
	assert.Equal(t, domain.BoolValue(true), theme.Fields["nested"].Fields["on"])
	assert.Equal(t, domain.NullValue(), theme.Fields["nested"].Fields["off"])
}

func TestHost_TypeScript(t *testing.T) {
	host := sandbox.New(time.Second).NewHost(nil)
	values, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/a.ts",
		Code:     "const gap: number = 8;\nexport const padding = `${gap}px` as string;\n",
		Exports:  []string{"padding"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StringValue("8px"), values["padding"])
}

func TestHost_Dependencies(t *testing.T) {
	host := sandbox.New(time.Second).NewHost(nil)
	ctx := t.Context()

	_, err := host.Run(ctx, &domain.ExecUnit{
		Key:      "/src/math.js",
		Filename: "/src/math.js",
		Code:     "export const double = (n) => n * 2;\n",
		Exports:  []string{"double"},
	})
	require.NoError(t, err)

	values, err := host.Run(ctx, &domain.ExecUnit{
		Key:      "/src/a.js",
		Filename: "/src/a.js",
		Code: "import { double } from \"./math\";\n" +
			"import { colors } from \"./colors\";\n" +
			"export const width = double(4);\n" +
			"export const primary = colors.primary;\n",
		Exports: []string{"width", "primary"},
		Dependencies: map[string]domain.ExecDependency{
			"./math": {Key: "/src/math.js", Filename: "/src/math.js"},
			"./colors": {Filename: "/src/colors.js", Values: map[string]domain.Value{
				"colors": domain.ObjectValue([]string{"primary"}, map[string]domain.Value{
					"primary": domain.StringValue("#ff0000"),
				}),
			}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NumberValue(8), values["width"])
	assert.Equal(t, domain.StringValue("#ff0000"), values["primary"])
}

func TestHost_UnknownSpecifier(t *testing.T) {
	_, err := run(t, "import { a } from \"./missing\";\nexport const b = a;\n", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEvaluation)
}

func TestHost_StyleTags(t *testing.T) {
	var gotMeta domain.StyleMeta
	var gotQuasis []string
	var gotValues []domain.Value
	styles := func(meta domain.StyleMeta, quasis []string, values []domain.Value) (domain.Value, error) {
		gotMeta, gotQuasis, gotValues = meta, quasis, values
		if meta.Kind == domain.StyleKindStyled {
			return domain.StyledValue("btn", meta.Name), nil
		}
		return domain.StringValue("cls"), nil
	}

	host := sandbox.New(time.Second).NewHost(nil)
	values, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/a.js",
		Code: "const c = \"red\";\n" +
			"export const title = __sift_css({\"kind\":\"css\",\"name\":\"title\",\"filename\":\"/src/a.js\",\"index\":0})`color: ${c};\\n`;\n" +
			"export const Button = __sift_styled({\"kind\":\"styled\",\"name\":\"Button\",\"filename\":\"/src/a.js\",\"element\":\"button\",\"index\":1})`padding: 0;`;\n" +
			"export const selector = `${Button} > a`;\n",
		Exports: []string{"title", "Button", "selector"},
		Styles:  styles,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StringValue("cls"), values["title"])
	assert.Equal(t, domain.StyledValue("btn", "Button"), values["Button"])
	assert.Equal(t, domain.StringValue(".btn > a"), values["selector"])

	assert.Equal(t, domain.StyleMeta{Kind: "styled", Name: "Button", Filename: "/src/a.js", Element: "button", Index: 1}, gotMeta)
	assert.Equal(t, []string{"padding: 0;"}, gotQuasis)
	assert.Empty(t, gotValues)
}

func TestHost_StyleFailure(t *testing.T) {
	host := sandbox.New(time.Second).NewHost(nil)
	_, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/a.js",
		Code:     "export const a = __sift_css({\"kind\":\"css\",\"index\":0})`width: ${undefined};`;\n",
		Exports:  []string{"a"},
		Styles: func(domain.StyleMeta, []string, []domain.Value) (domain.Value, error) {
			return domain.Value{}, domain.ErrUndefinedInterpolation
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUndefinedInterpolation)
}

func TestHost_Deterministic(t *testing.T) {
	values, err := run(t, `
export const now = Date.now();
export const epoch = new Date().getTime();
export const random = Math.random();
export const env = process.env.NODE_ENV;
export const hasWindow = typeof window !== "undefined" && window === globalThis;
console.log("ignored");
`, "now", "epoch", "random", "env", "hasWindow")
	require.NoError(t, err)

	assert.Equal(t, domain.NumberValue(0), values["now"])
	assert.Equal(t, domain.NumberValue(0), values["epoch"])
	assert.Equal(t, domain.NumberValue(0.5), values["random"])
	assert.Equal(t, domain.StringValue("production"), values["env"])
	assert.Equal(t, domain.BoolValue(true), values["hasWindow"])
}

func TestHost_Globals(t *testing.T) {
	host := sandbox.New(time.Second).NewHost(map[string]any{"BRAND": "#123456"})
	values, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/a.js",
		Code:     "export const brand = BRAND;\n",
		Exports:  []string{"brand"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StringValue("#123456"), values["brand"])
}

func TestHost_Throws(t *testing.T) {
	_, err := run(t, "export const a = (() => { throw new Error(\"boom\"); })();\n", "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEvaluation)
}

func TestHost_SyntaxError(t *testing.T) {
	_, err := run(t, "export const a = ;\n", "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEvaluation)
}

func TestHost_MissingExport(t *testing.T) {
	_, err := run(t, "export const a = 1;\n", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExportNotFound)
}

func TestHost_Timeout(t *testing.T) {
	host := sandbox.New(50 * time.Millisecond).NewHost(nil)
	_, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/loop.js",
		Code:     "while (true) {}\nexport const a = 1;\n",
		Exports:  []string{"a"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEvaluationTimeout)

	values, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/after.js",
		Code:     "export const a = 1;\n",
		Exports:  []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NumberValue(1), values["a"])
}

func TestHost_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	host := sandbox.New(time.Minute).NewHost(nil)
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := host.Run(ctx, &domain.ExecUnit{
		Filename: "/src/loop.js",
		Code:     "while (true) {}\n",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunGuard_NoCallbackAfterFinish(t *testing.T) {
	var g sandbox.RunGuard
	calls := 0
	g.Do(func() { calls++ })
	g.Finish()
	g.Do(func() { calls++ })
	assert.Equal(t, 1, calls)
}

func TestRunGuard_FinishWaitsForRunningCallback(t *testing.T) {
	var g sandbox.RunGuard
	entered := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})

	go g.Do(func() {
		close(entered)
		<-release
	})
	<-entered
	go func() {
		g.Finish()
		close(finished)
	}()

	select {
	case <-finished:
		t.Fatal("finish returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-finished
}

func TestHost_UnresolvedSurvivesCoercion(t *testing.T) {
	host := sandbox.New(time.Second).NewHost(nil)
	values, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/b.js",
		Code: "import { a } from \"./a\";\n" +
			"import logo from \"./logo.svg\";\n" +
			"export const suffixed = a + \"!\";\n" +
			"export const templated = `${a}px`;\n" +
			"export const url = \"url(\" + logo + \")\";\n" +
			"export const doubled = a * 2;\n" +
			"export const nested = { color: a + \"\" };\n" +
			"export const plain = \"red\";\n",
		Exports: []string{"suffixed", "templated", "url", "doubled", "nested", "plain"},
		Dependencies: map[string]domain.ExecDependency{
			"./a": {Filename: "/src/a.js", Values: map[string]domain.Value{
				"a": domain.UnresolvedValue("cyclic import of /src/a.js"),
			}},
			"./logo.svg": {Filename: "/src/logo.svg", Values: map[string]domain.Value{
				"default": domain.UnresolvedValue("asset /src/logo.svg"),
			}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.UnresolvedValue("cyclic import of /src/a.js"), values["suffixed"])
	assert.Equal(t, domain.UnresolvedValue("cyclic import of /src/a.js"), values["templated"])
	assert.Equal(t, domain.UnresolvedValue("asset /src/logo.svg"), values["url"])
	assert.Equal(t, domain.ValueUnresolved, values["doubled"].Kind)
	assert.Equal(t, domain.ValueUnresolved, values["nested"].Fields["color"].Kind)
	assert.Equal(t, domain.StringValue("red"), values["plain"])
}

func TestHost_UnresolvedReachesStyleTag(t *testing.T) {
	var got []domain.Value
	host := sandbox.New(time.Second).NewHost(nil)
	_, err := host.Run(t.Context(), &domain.ExecUnit{
		Filename: "/src/a.js",
		Code: "import { b } from \"./b\";\n" +
			"export const title = __sift_css({\"kind\":\"css\",\"index\":0})`color: ${b + \"!\"};`;\n",
		Exports: []string{"title"},
		Dependencies: map[string]domain.ExecDependency{
			"./b": {Filename: "/src/b.js", Values: map[string]domain.Value{
				"b": domain.UnresolvedValue("cyclic import of /src/b.js"),
			}},
		},
		Styles: func(_ domain.StyleMeta, _ []string, values []domain.Value) (domain.Value, error) {
			got = values
			return domain.StringValue("cls"), nil
		},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.UnresolvedValue("cyclic import of /src/b.js"), got[0])
}
