// Package watcher implements source watching for watch mode.
package watcher

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/sift/internal/core/ports"
)

// DefaultQuietPeriod is how long the tree must stay quiet before a batch is
// delivered.
const DefaultQuietPeriod = 50 * time.Millisecond

// Coalescer merges bursts of change events into one batch per quiet period.
// Each path appears once per batch with its strongest operation.
type Coalescer struct {
	quiet   time.Duration
	deliver func([]ports.WatchEvent)

	mu      sync.Mutex
	pending map[string]ports.WatchOp
	timer   *time.Timer
	closed  bool

	// sending serializes deliveries so batches arrive in order.
	sending sync.Mutex
}

// NewCoalescer returns a Coalescer calling deliver with each batch.
func NewCoalescer(quiet time.Duration, deliver func([]ports.WatchEvent)) *Coalescer {
	return &Coalescer{
		quiet:   quiet,
		deliver: deliver,
		pending: make(map[string]ports.WatchOp),
	}
}

// Add records a change to path and restarts the quiet period.
func (c *Coalescer) Add(ev ports.WatchEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if prev, ok := c.pending[ev.Path]; !ok || strength(ev.Operation) >= strength(prev) {
		c.pending[ev.Path] = ev.Operation
	}
	if c.timer == nil {
		c.timer = time.AfterFunc(c.quiet, c.expire)
		return
	}
	c.timer.Reset(c.quiet)
}

// Flush delivers the pending batch immediately and waits for the callback.
func (c *Coalescer) Flush() {
	c.drain(false)
}

// Close delivers the pending batch and drops every later change. No
// delivery is in progress once Close returns.
func (c *Coalescer) Close() {
	c.drain(true)
}

func (c *Coalescer) drain(closing bool) {
	c.sending.Lock()
	defer c.sending.Unlock()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	wasClosed := c.closed
	c.closed = c.closed || closing
	batch := c.takeLocked()
	c.mu.Unlock()

	if !wasClosed && len(batch) > 0 && c.deliver != nil {
		c.deliver(batch)
	}
}

func (c *Coalescer) expire() {
	c.sending.Lock()
	defer c.sending.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	batch := c.takeLocked()
	c.mu.Unlock()

	if len(batch) > 0 && c.deliver != nil {
		c.deliver(batch)
	}
}

func (c *Coalescer) takeLocked() []ports.WatchEvent {
	if len(c.pending) == 0 {
		return nil
	}
	batch := make([]ports.WatchEvent, 0, len(c.pending))
	for path, op := range c.pending {
		batch = append(batch, ports.WatchEvent{Path: path, Operation: op})
	}
	clear(c.pending)
	slices.SortFunc(batch, func(a, b ports.WatchEvent) int {
		return strings.Compare(a.Path, b.Path)
	})
	return batch
}

// strength orders operations so a removal is never hidden by an earlier write.
func strength(op ports.WatchOp) int {
	switch op {
	case ports.OpRemove, ports.OpRename:
		return 2
	case ports.OpCreate:
		return 1
	default:
		return 0
	}
}
