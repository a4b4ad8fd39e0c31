package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/sift/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor and reports finished spans to a
// Logger at debug level.
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// OnStart does nothing.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, file, duration and status.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	var file string
	var cached bool
	for _, attr := range s.Attributes() {
		switch attr.Key {
		case "file":
			file = attr.Value.AsString()
		case "cached":
			cached = attr.Value.AsBool()
		}
	}

	msg := fmt.Sprintf("%s %s (%s)", s.Name(), file, s.EndTime().Sub(s.StartTime()).Round(time.Microsecond))
	if cached {
		msg += " cached"
	}
	if s.Status().Code == codes.Error {
		msg += ": " + s.Status().Description
	}
	b.logger.Debug(msg)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

// Setup installs a global tracer provider that reports spans through bridge
// and returns it so the caller can shut it down.
func Setup(bridge *Bridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
	return tp
}
