package telemetry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/core/ports"
)

func newRecordedTracer(t *testing.T) (*telemetry.OTelTracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
	return telemetry.NewOTelTracerFrom(tp, "sift-test"), rec
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestOTelTracer_Attributes(t *testing.T) {
	tracer, rec := newRecordedTracer(t)

	_, span := tracer.Start(t.Context(), "evaluate",
		ports.WithAttribute("file", "/src/a.js"),
		ports.WithAttribute("index", 3),
	)
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("names", []string{"a", "b"})
	span.SetAttribute("other", struct{ N int }{N: 1})
	span.MarkCached()
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "evaluate", ended[0].Name())

	got := attrs(ended[0])
	assert.Equal(t, "/src/a.js", got["file"].AsString())
	assert.Equal(t, int64(3), got["index"].AsInt64())
	assert.InDelta(t, 0.5, got["ratio"].AsFloat64(), 0)
	assert.Equal(t, []string{"a", "b"}, got["names"].AsStringSlice())
	assert.Equal(t, "{1}", got["other"].AsString())
	assert.True(t, got["cached"].AsBool())
}

func TestOTelTracer_RecordError(t *testing.T) {
	tracer, rec := newRecordedTracer(t)

	_, span := tracer.Start(t.Context(), "shake")
	span.RecordError(errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
}

func TestOTelTracer_WriteBecomesLogEvent(t *testing.T) {
	tracer, rec := newRecordedTracer(t)

	_, span := tracer.Start(t.Context(), "evaluate")
	_, err := span.Write([]byte("first\nsecond"))
	require.NoError(t, err)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	events := ended[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "log", events[0].Name)
	require.Len(t, events[0].Attributes, 1)
	assert.Equal(t, "first\nsecond", events[0].Attributes[0].Value.AsString())
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	tracer, rec := newRecordedTracer(t)

	ctx, span := tracer.Start(t.Context(), "build")
	tracer.EmitPlan(ctx, []string{"/src/a.js"})
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	events := ended[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
	assert.Equal(t, []string{"/src/a.js"}, events[0].Attributes[0].Value.AsStringSlice())
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx, span := tracer.Start(t.Context(), "noop")
	assert.Equal(t, t.Context(), ctx)

	n, err := span.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.MarkCached()
	span.End()
	tracer.EmitPlan(ctx, nil)
}
