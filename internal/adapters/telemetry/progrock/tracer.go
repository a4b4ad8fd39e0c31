// Package progrock provides a ports.Tracer that records spans as progrock
// vertices.
package progrock

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/sift/internal/core/ports"
)

var (
	_ ports.Tracer = (*Tracer)(nil)
	_ ports.Span   = (*Span)(nil)
)

// Tracer records every span as a vertex on a progrock tape.
type Tracer struct {
	w   progrock.Writer
	rec *progrock.Recorder
	seq atomic.Uint64
}

// New creates a Tracer that reports to w.
func New(w progrock.Writer) *Tracer {
	return &Tracer{w: w, rec: progrock.NewRecorder(w)}
}

// Start records a new vertex. Spans with equal names stay distinct.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := ports.NewSpanConfig(opts...)

	label := name
	if file, ok := cfg.Attributes["file"].(string); ok && file != "" {
		label = name + " " + file
	}
	d := digest.FromString(label + "\x00" + strconv.FormatUint(t.seq.Add(1), 10))
	return ctx, &Span{vertex: t.rec.Vertex(d, label)}
}

// EmitPlan records the plan as a completed vertex.
func (t *Tracer) EmitPlan(_ context.Context, files []string) {
	v := t.rec.Vertex(digest.FromString("plan\x00"+strconv.FormatUint(t.seq.Add(1), 10)), fmt.Sprintf("plan %d files", len(files)))
	for _, f := range files {
		_, _ = fmt.Fprintln(v.Stdout(), f)
	}
	v.Done(nil)
}

// Close closes the underlying writer.
func (t *Tracer) Close() error {
	return t.w.Close()
}

// Span wraps a progrock vertex.
type Span struct {
	vertex *progrock.VertexRecorder

	mu  sync.Mutex
	err error
}

// Write sends p to the vertex's stdout stream.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}

// End completes the vertex with the recorded error, if any.
func (s *Span) End() {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	s.vertex.Done(err)
}

// RecordError stores err so that End fails the vertex.
func (s *Span) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetAttribute writes the attribute to the vertex's stdout stream.
func (s *Span) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(s.vertex.Stdout(), "%s=%v\n", key, value)
}

// MarkCached flags the vertex as a cache hit.
func (s *Span) MarkCached() {
	s.vertex.Cached()
}
