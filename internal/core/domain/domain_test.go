package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestFail(t *testing.T) {
	err := domain.Fail(domain.ErrExportNotFound, "file", "/src/a.js", "export", "b")

	require.ErrorIs(t, err, domain.ErrExportNotFound)
	assert.Equal(t, "required export not found", err.Error())

	var z *zerr.Error
	require.ErrorAs(t, err, &z)
	assert.Equal(t, map[string]any{"file": "/src/a.js", "export": "b"}, z.Metadata())
}

func TestBecause(t *testing.T) {
	cause := domain.Fail(domain.ErrEvaluation, "file", "/src/colors.js")
	err := domain.Because(domain.ErrDependencyFailed, cause)

	require.ErrorIs(t, err, domain.ErrDependencyFailed)
	require.ErrorIs(t, err, domain.ErrEvaluation)
	assert.Equal(t, "dependency failed: evaluation failed", err.Error())

	assert.Same(t, domain.ErrParse, domain.Because(domain.ErrParse, nil))
	assert.False(t, errors.Is(err, domain.ErrParse))
}

func TestExportSet(t *testing.T) {
	a := domain.NewExportSet("b", "a", "a", "")
	assert.Equal(t, []string{"a", "b"}, a.Names())
	assert.Equal(t, "a,b", a.Key())
	assert.True(t, a.Has("a"))
	assert.False(t, a.Has("c"))

	grown := a.Union(domain.NewExportSet("c"))
	assert.Equal(t, "a,b,c", grown.Key())
	assert.True(t, a.Subset(grown))
	assert.False(t, grown.Subset(a))
	assert.True(t, grown.Subset(domain.NewExportSet(domain.AllExports)))
	assert.True(t, domain.NewExportSet(domain.AllExports).All())
}

func TestEntrypoint_Ancestors(t *testing.T) {
	root := &domain.Entrypoint{Filename: "/src/button.js"}
	mid := &domain.Entrypoint{Filename: "/src/theme.js"}
	leaf := &domain.Entrypoint{Filename: "/src/colors.js"}
	mid.AddConsumer(root)
	mid.AddConsumer(root)
	leaf.AddConsumer(mid)

	assert.Len(t, mid.Consumers, 1)
	assert.Equal(t, map[string]bool{"/src/theme.js": true, "/src/button.js": true}, leaf.Ancestors())
	assert.Empty(t, root.Ancestors())
}

func TestEntrypoint_Latest(t *testing.T) {
	g1 := &domain.Entrypoint{Filename: "/src/a.js", Generation: 1}
	g2 := &domain.Entrypoint{Filename: "/src/a.js", Generation: 2}
	g3 := &domain.Entrypoint{Filename: "/src/a.js", Generation: 3}
	g1.SupersededBy = g2
	g2.SupersededBy = g3

	assert.Same(t, g3, g1.Latest())
	assert.Equal(t, "/src/a.js#3", g1.Latest().ID())
}

func TestValue_CSSText(t *testing.T) {
	tests := []struct {
		name    string
		value   domain.Value
		want    string
		wantErr error
	}{
		{name: "string", value: domain.StringValue("#ff0000"), want: "#ff0000"},
		{name: "integer", value: domain.NumberValue(12), want: "12"},
		{name: "fraction", value: domain.NumberValue(0.5), want: "0.5"},
		{name: "null", value: domain.NullValue(), want: ""},
		{name: "false", value: domain.BoolValue(false), want: ""},
		{name: "styled", value: domain.StyledValue("s1abc", "Button"), want: ".s1abc"},
		{name: "array", value: domain.ArrayValue([]domain.Value{
			domain.StringValue("1px"), domain.StringValue("solid"), domain.NullValue(),
		}), want: "1px solid"},
		{name: "object", value: domain.ObjectValue([]string{"fontSize", "WebkitTransition", "--gap"}, map[string]domain.Value{
			"fontSize":         domain.NumberValue(12),
			"WebkitTransition": domain.StringValue("none"),
			"--gap":            domain.StringValue("4px"),
		}), want: "font-size: 12; -webkit-transition: none; --gap: 4px;"},
		{name: "nested object", value: domain.ObjectValue([]string{"&:hover"}, map[string]domain.Value{
			"&:hover": domain.ObjectValue([]string{"color"}, map[string]domain.Value{"color": domain.StringValue("red")}),
		}), want: "&:hover { color: red; }"},
		{name: "undefined", value: domain.UndefinedValue(), wantErr: domain.ErrUndefinedInterpolation},
		{name: "function", value: domain.FunctionValue("px"), wantErr: domain.ErrUnresolvedExpression},
		{name: "unresolved", value: domain.UnresolvedValue("call"), wantErr: domain.ErrUnresolvedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.value.CSSText()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_Static(t *testing.T) {
	assert.True(t, domain.ObjectValue([]string{"a"}, map[string]domain.Value{"a": domain.NumberValue(1)}).Static())
	assert.False(t, domain.ArrayValue([]domain.Value{domain.FunctionValue("f")}).Static())
	assert.False(t, domain.UnresolvedValue("x").Static())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1e+21", domain.FormatNumber(1e21))
	assert.Equal(t, "-3.25", domain.FormatNumber(-3.25))
	assert.Equal(t, "0", domain.FormatNumber(0))
	assert.Equal(t, "Infinity", domain.FormatNumber(1/zero()))
}

func zero() float64 { return 0 }

func TestOptions(t *testing.T) {
	opts := domain.Options{}.WithDefaults()

	assert.Equal(t, domain.DefaultExtension, opts.Extension)
	assert.Equal(t, []string{domain.DefaultTagSource}, opts.TagSources)
	assert.Equal(t, domain.DefaultSandboxTimeout, opts.Timeout)
	assert.Equal(t, "/src/button.sift.css", opts.CSSFilename("/src/button.js"))
	assert.Equal(t, "/src.d/Makefile.sift.css", opts.CSSFilename("/src.d/Makefile"))
	assert.True(t, domain.DefaultOptions().Evaluate)
}

func TestDiagnostic_String(t *testing.T) {
	d := domain.Diagnostic{
		Severity: domain.SeverityWarning,
		Code:     domain.CodeCyclicDependency,
		Message:  "a.js imports itself",
		Filename: "/src/a.js",
		Line:     3,
		Col:      1,
	}
	assert.Equal(t, "/src/a.js:3:1: warning cyclic-dependency: a.js imports itself", d.String())
}

func TestWithin(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/p/dist", "/p/dist", true},
		{"/p/dist/src/a.js", "/p/dist", true},
		{"/p/distant/a.js", "/p/dist", false},
		{"/p/src/a.js", "/p/dist", false},
		{"/p/..dist/a.js", "/p", true},
		{"/other/a.js", "/p", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.Within(tt.path, tt.dir), "%s in %s", tt.path, tt.dir)
	}
}
