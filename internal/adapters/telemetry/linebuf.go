// Package telemetry provides the tracing adapters.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the buffered size at which output is flushed.
	DefaultSizeLimit = 4096
	// DefaultInterval is the longest output is held before it is flushed.
	DefaultInterval = 50 * time.Millisecond
)

// ErrBufferClosed is returned when writing to a closed LineBuffer.
var ErrBufferClosed = errors.New("line buffer is closed")

// LineBuffer collects span output and hands it on in batches of whole lines.
// A trailing partial line is held until it completes, the size limit is
// reached, the interval elapses, or the buffer is closed.
type LineBuffer struct {
	sizeLimit int
	interval  time.Duration
	emit      func([]byte)

	mu     sync.Mutex
	buf    bytes.Buffer
	timer  *time.Timer
	closed bool
}

// NewLineBuffer returns a LineBuffer. Non-positive limits select the defaults.
func NewLineBuffer(sizeLimit int, interval time.Duration, emit func([]byte)) *LineBuffer {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &LineBuffer{sizeLimit: sizeLimit, interval: interval, emit: emit}
}

// Write buffers p and flushes complete lines once the size limit is reached.
func (b *LineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBufferClosed
	}
	n, _ := b.buf.Write(p)

	if b.buf.Len() >= b.sizeLimit {
		b.flushLocked(false)
	}
	if b.buf.Len() > 0 && b.timer == nil {
		b.timer = time.AfterFunc(b.interval, b.Flush)
	}
	return n, nil
}

// Flush hands on everything buffered, partial lines included.
func (b *LineBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.flushLocked(true)
}

// Close flushes the remaining output. Later writes fail.
func (b *LineBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.flushLocked(true)
	b.closed = true
	return nil
}

func (b *LineBuffer) flushLocked(all bool) {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	data := b.buf.Bytes()
	end := len(data)
	if !all {
		if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
			end = i + 1
		}
	}
	if end == 0 {
		return
	}
	out := bytes.Clone(data[:end])
	b.buf.Next(end)
	if b.emit != nil {
		b.emit(out)
	}
}
