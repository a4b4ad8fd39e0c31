package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"go.trai.ch/sift/internal/adapters/logger"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{"info level", slog.LevelInfo, "information message", "handler_info"},
		{"warn level", slog.LevelWarn, "warning message", "handler_warn"},
		{"error level", slog.LevelError, "error message", "handler_error"},
		{"debug level filtered", slog.LevelDebug, "debug message", "handler_debug_filtered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name       string
		handler    func(slog.Handler) slog.Handler
		attrs      []any
		goldenName string
	}{
		{
			name:       "record attributes",
			handler:    func(h slog.Handler) slog.Handler { return h },
			attrs:      []any{"file", "/src/a.js", "rules", 2},
			goldenName: "handler_attrs_record",
		},
		{
			name: "handler attributes and group",
			handler: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("session", "s1")}).WithGroup("cache")
			},
			attrs:      []any{"hits", 3},
			goldenName: "handler_attrs_group",
		},
		{
			name:       "nested group attribute",
			handler:    func(h slog.Handler) slog.Handler { return h },
			attrs:      []any{slog.Group("outer", slog.Group("inner", slog.String("k", "v")))},
			goldenName: "handler_attrs_nested_group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			h := tt.handler(logger.NewPrettyHandler(buf, nil))
			slog.New(h).Info("message", tt.attrs...)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}
