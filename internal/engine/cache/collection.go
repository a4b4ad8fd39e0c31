// Package cache implements the session-wide collection of shaking and
// evaluation results.
package cache

import (
	"context"
	"sync"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

// Collection maps cache keys to entries. Entries for a file whose content
// hash changed are dropped as soon as an entry with the new hash is written.
// It is safe for concurrent use.
type Collection struct {
	mu      sync.RWMutex
	entries map[domain.CacheKey]*domain.CacheEntry
	byFile  map[domain.Filename]map[domain.CacheKey]bool
	hashes  map[domain.Filename]string

	store   ports.CacheStore
	logger  ports.Logger
	metrics ports.Metrics
}

// Option configures a Collection.
type Option func(*Collection)

// WithStore backs the collection with a persistent store.
func WithStore(store ports.CacheStore) Option {
	return func(c *Collection) {
		c.store = store
	}
}

// WithLogger reports store failures, which never fail a lookup.
func WithLogger(logger ports.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// WithMetrics counts hits and misses.
func WithMetrics(metrics ports.Metrics) Option {
	return func(c *Collection) {
		c.metrics = metrics
	}
}

// New creates an empty Collection.
func New(opts ...Option) *Collection {
	c := &Collection{
		entries: make(map[domain.CacheKey]*domain.CacheEntry),
		byFile:  make(map[domain.Filename]map[domain.CacheKey]bool),
		hashes:  make(map[domain.Filename]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for key, consulting the store on a memory miss.
func (c *Collection) Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hit()
		return entry, true
	}

	if c.store != nil {
		stored, err := c.store.Get(ctx, key)
		if err != nil {
			c.warn(err)
		}
		if stored != nil && stored.Key == key {
			c.remember(stored)
			c.hit()
			return stored, true
		}
	}

	c.miss()
	return nil, false
}

// Put records entry, replacing any entry of the same file with a different
// content hash.
func (c *Collection) Put(ctx context.Context, entry *domain.CacheEntry) {
	c.remember(entry)
	if c.store != nil {
		if err := c.store.Put(ctx, entry); err != nil {
			c.warn(err)
		}
	}
}

// Invalidate drops every entry of filename.
func (c *Collection) Invalidate(ctx context.Context, filename string) {
	file := domain.NewFilename(filename)
	c.mu.Lock()
	c.dropLocked(file)
	delete(c.hashes, file)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(ctx, filename); err != nil {
			c.warn(err)
		}
	}
}

// Len returns the number of entries held in memory.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Collection) remember(entry *domain.CacheEntry) {
	file := domain.NewFilename(entry.Key.Filename)

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.hashes[file]; ok && prev != entry.Key.Hash {
		c.dropLocked(file)
	}
	c.hashes[file] = entry.Key.Hash

	keys := c.byFile[file]
	if keys == nil {
		keys = make(map[domain.CacheKey]bool)
		c.byFile[file] = keys
	}
	keys[entry.Key] = true
	c.entries[entry.Key] = entry
}

func (c *Collection) dropLocked(file domain.Filename) {
	for key := range c.byFile[file] {
		delete(c.entries, key)
	}
	delete(c.byFile, file)
}

func (c *Collection) hit() {
	if c.metrics != nil {
		c.metrics.CacheHit()
	}
}

func (c *Collection) miss() {
	if c.metrics != nil {
		c.metrics.CacheMiss()
	}
}

func (c *Collection) warn(err error) {
	if c.logger != nil {
		c.logger.Warn("cache store: " + err.Error())
	}
}
