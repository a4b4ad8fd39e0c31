package transform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/adapters/sandbox"
	"go.trai.ch/sift/internal/adapters/treesitter"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.trai.ch/sift/internal/engine/scheduler"
	"go.trai.ch/sift/internal/engine/template"
	"go.trai.ch/sift/internal/engine/transform"
	"go.uber.org/mock/gomock"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
		require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
	}
}

func deps() transform.Deps {
	service := afs.New()
	return transform.Deps{Deps: scheduler.Deps{
		Parser:   treesitter.New(),
		Reader:   fs.NewReader(service),
		Resolver: fs.NewResolver(service),
		Hasher:   fs.NewHasher(),
	}}
}

// evaluating returns deps that run modules in the JavaScript sandbox.
func evaluating() transform.Deps {
	d := deps()
	d.Sandbox = sandbox.New(0)
	return d
}

func constant() domain.Options {
	opts := domain.DefaultOptions()
	opts.Evaluate = false
	return opts
}

func transformFile(t *testing.T, s *transform.Session, path string, opts domain.Options) (*transform.Result, error) {
	t.Helper()
	source, err := os.ReadFile(path)
	require.NoError(t, err)
	return s.Transform(t.Context(), path, string(source), opts)
}

const buttonSource = "import { css } from \"@sift/core\";\n" +
	"import { colors } from \"./colors\";\n" +
	"\n" +
	"export const title = css`\n" +
	"  color: ${colors.primary};\n" +
	"`;\n"

func TestSession_ColorsButton(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/colors.js": "export const colors = { primary: \"#ff0000\", secondary: \"#00ff00\" };\n",
		"src/button.js": buttonSource,
	})
	button := filepath.Join(root, "src", "button.js")

	res, err := transformFile(t, transform.NewSession(deps(), nil), button, constant())
	require.NoError(t, err)

	class := template.ClassName("color: #ff0000;", "")
	assert.Equal(t, "."+class+" {color: #ff0000;}\n", res.CSSText)
	assert.Equal(t, filepath.Join(root, "src", "button.sift.css"), res.CSSFilename)
	assert.Equal(t, []string{filepath.Join(root, "src", "colors.js")}, res.Dependencies)
	assert.Empty(t, res.Diagnostics)
	assert.Contains(t, res.Code, "export const title = \""+class+"\";")
	assert.NotContains(t, res.Code, "@sift/core")
	assert.NotEmpty(t, res.CSSSourceMap)
}

func TestSession_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/colors.js": "export const colors = { primary: \"#ff0000\" };\n",
		"src/button.js": buttonSource,
	})
	button := filepath.Join(root, "src", "button.js")
	s := transform.NewSession(deps(), nil)

	first, err := transformFile(t, s, button, constant())
	require.NoError(t, err)
	second, err := transformFile(t, s, button, constant())
	require.NoError(t, err)
	fresh, err := transformFile(t, transform.NewSession(deps(), nil), button, constant())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, fresh)
}

func TestSession_DependencyChanges(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/colors.js": "export const colors = { primary: \"#ff0000\" };\n",
		"src/button.js": buttonSource,
	})
	button := filepath.Join(root, "src", "button.js")
	s := transform.NewSession(deps(), nil)

	_, err := transformFile(t, s, button, constant())
	require.NoError(t, err)

	writeTree(t, root, map[string]string{
		"src/colors.js": "export const colors = { primary: \"#0000ff\" };\n",
	})
	res, err := transformFile(t, s, button, constant())
	require.NoError(t, err)
	assert.Contains(t, res.CSSText, "{color: #0000ff;}")
}

func TestSession_Cycle(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.js": "import { b } from \"./b\";\nexport const a = \"red\";\nexport const viaB = b;\n",
		"src/b.js": "import { a } from \"./a\";\nexport const b = a;\n",
		"src/root.js": "import { css } from \"@sift/core\";\n" +
			"import { a, viaB } from \"./a\";\n" +
			"export const box = css`color: ${a}; border-color: ${viaB};`;\n",
	})

	res, err := transformFile(t, transform.NewSession(deps(), nil), filepath.Join(root, "src", "root.js"), domain.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	require.Len(t, rule.Vars, 1)
	assert.Equal(t, "color: red; border-color: var(--"+rule.Vars[0].Name+");", rule.Body)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.CodeCyclicDependency, res.Diagnostics[0].Code)
	assert.Contains(t, res.Code, "_siftVars(")
}

func TestSession_Evaluate_CyclePlaceholder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.js": "import { b } from \"./b\";\nexport const a = \"red\";\nexport const viaB = b;\n",
		"src/b.js": "import { a } from \"./a\";\nexport const b = a + \"!\";\n",
		"src/root.js": "import { css } from \"@sift/core\";\n" +
			"import { a, viaB } from \"./a\";\n" +
			"export const box = css`color: ${a}; border-color: ${viaB};`;\n",
	})

	res, err := transformFile(t, transform.NewSession(evaluating(), nil), filepath.Join(root, "src", "root.js"), domain.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	require.Len(t, rule.Vars, 1)
	assert.Equal(t, "color: red; border-color: var(--"+rule.Vars[0].Name+");", rule.Body)
	assert.NotContains(t, res.CSSText, "[object Object]")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.CodeCyclicDependency, res.Diagnostics[0].Code)
}

func TestSession_Evaluate_AssetConcatenation(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/logo.svg": "<svg/>",
		"src/hero.js": "import { css } from \"@sift/core\";\n" +
			"import logo from \"./logo.svg\";\n" +
			"export const hero = css`background: ${\"url(\" + logo + \")\"}; color: blue;`;\n",
	})

	res, err := transformFile(t, transform.NewSession(evaluating(), nil), filepath.Join(root, "src", "hero.js"), domain.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	require.Len(t, rule.Vars, 1)
	assert.Equal(t, "background: var(--"+rule.Vars[0].Name+"); color: blue;", rule.Body)
	assert.NotContains(t, res.CSSText, "[object Object]")
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, domain.CodeUnresolvedAsset, res.Diagnostics[0].Code)
}

func TestSession_Evaluate_GrowingRequirements(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/shared.js": "export const a = \"red\";\nexport const b = 1;\n",
		"src/mid.js":    "import { b } from \"./shared\";\nexport const c = b + 1;\n",
		"src/root.js": "import { css } from \"@sift/core\";\n" +
			"import { a } from \"./shared\";\n" +
			"import { c } from \"./mid\";\n" +
			"export const box = css`color: ${a}; gap: ${c}px;`;\n",
	})
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().ActionProcessed(gomock.Any()).AnyTimes()
	metrics.EXPECT().CacheMiss().AnyTimes()
	metrics.EXPECT().CacheHit().AnyTimes()
	metrics.EXPECT().Superseded().MinTimes(1)
	metrics.EXPECT().TransformDone(gomock.Any(), gomock.Nil()).Times(1)

	d := evaluating()
	d.Metrics = metrics
	res, err := transformFile(t, transform.NewSession(d, nil), filepath.Join(root, "src", "root.js"), domain.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Rules, 1)
	assert.Equal(t, "color: red; gap: 2px;", res.Rules[0].Body)
	assert.Empty(t, res.Rules[0].Vars)
	assert.Empty(t, res.Diagnostics)
}

func TestSession_DisplayName(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.js": "import { css } from \"@sift/core\";\nexport const row = css`flex: 1;`;\n",
		"src/b.js": "import { css } from \"@sift/core\";\nexport const row = css`flex: 1;`;\n",
	})
	s := transform.NewSession(deps(), nil)
	class := func(file string, displayName bool) string {
		opts := constant()
		opts.DisplayName = displayName
		res, err := transformFile(t, s, filepath.Join(root, "src", file), opts)
		require.NoError(t, err)
		require.Len(t, res.Rules, 1)
		return res.Rules[0].ClassName
	}

	assert.Equal(t, class("a.js", false), class("b.js", false))
	assert.NotEqual(t, class("a.js", true), class("b.js", true))
	assert.True(t, strings.HasPrefix(class("a.js", true), "a-row_"))
}

func TestSession_ConstantModeRejectsDynamicValues(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.js": "import { css } from \"@sift/core\";\nexport const a = css`width: ${Math.max(1, 2)}px;`;\n",
	})

	_, err := transformFile(t, transform.NewSession(deps(), nil), filepath.Join(root, "src", "a.js"), constant())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedExpression)
}

func TestSession_NoStyles(t *testing.T) {
	root := t.TempDir()
	source := "import { helper } from \"./missing\";\nexport const a = helper();\n"
	writeTree(t, root, map[string]string{"src/a.js": source})

	res, err := transformFile(t, transform.NewSession(deps(), nil), filepath.Join(root, "src", "a.js"), constant())
	require.NoError(t, err)
	assert.Equal(t, source, res.Code)
	assert.Empty(t, res.CSSText)
}

func TestSession_Metrics(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/colors.js": "export const colors = { primary: \"#ff0000\" };\n",
		"src/button.js": buttonSource,
	})
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().ActionProcessed(gomock.Any()).AnyTimes()
	metrics.EXPECT().CacheMiss().AnyTimes()
	metrics.EXPECT().CacheHit().AnyTimes()
	metrics.EXPECT().TransformDone(gomock.Any(), gomock.Nil()).Times(1)

	d := deps()
	d.Metrics = metrics
	s := transform.NewSession(d, nil)
	assert.NotEmpty(t, s.ID())

	_, err := transformFile(t, s, filepath.Join(root, "src", "button.js"), constant())
	require.NoError(t, err)
}

func TestSession_Tracing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.js": "import { css } from \"@sift/core\";\nexport const a = css`width: ${Math.max(1, 2)}px;`;\n",
	})
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	tracer.EXPECT().Start(gomock.Any(), "transform", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		})
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()
	span.EXPECT().End().MinTimes(1)
	span.EXPECT().MarkCached().AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().RecordError(isError(domain.ErrUnresolvedExpression)).MinTimes(1)
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()

	d := deps()
	d.Tracer = tracer
	_, err := transformFile(t, transform.NewSession(d, nil), filepath.Join(root, "src", "a.js"), constant())
	require.ErrorIs(t, err, domain.ErrUnresolvedExpression)
}

type errorIs struct{ target error }

// isError matches errors wrapping target.
func isError(target error) gomock.Matcher { return errorIs{target: target} }

func (m errorIs) Matches(x any) bool {
	err, ok := x.(error)
	return ok && errors.Is(err, m.target)
}

func (m errorIs) String() string { return "is " + m.target.Error() }
