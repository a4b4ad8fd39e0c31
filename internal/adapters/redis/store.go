// Package redis implements a shared persistent cache store on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

const (
	keyPrefix = "sift:cache:"

	// DefaultTTL bounds how long entries of an untouched file are kept.
	DefaultTTL = 7 * 24 * time.Hour

	pingTimeout = 5 * time.Second
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore on Redis or a compatible server. The
// entries of one source file live in one hash keyed by CacheKey.String.
type Store struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// Open connects to the server at url, e.g. redis://:password@host:6379/1.
func Open(ctx context.Context, url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, domain.Fail(domain.Because(domain.ErrCacheBackend, err), "url", url)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, domain.Fail(domain.Because(domain.ErrCacheBackend, err), "addr", opts.Addr)
	}

	return New(client, DefaultTTL), nil
}

// New creates a Store over an existing client.
func New(client goredis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get retrieves the entry stored for key.
func (s *Store) Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	data, err := s.client.HGet(ctx, hashKey(key.Filename), key.String()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Fail(domain.Because(domain.ErrCacheRead, err), "file", key.Filename)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, domain.Fail(domain.Because(domain.ErrCacheDecode, err), "file", key.Filename)
	}
	return &entry, nil
}

// Put stores entry under its key and refreshes the expiry of its file.
func (s *Store) Put(ctx context.Context, entry *domain.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return domain.Because(domain.ErrCacheWrite, err)
	}

	key := hashKey(entry.Key.Filename)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, entry.Key.String(), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Fail(domain.Because(domain.ErrCacheWrite, err), "file", entry.Key.Filename)
	}
	return nil
}

// Delete removes every entry stored for filename.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := s.client.Del(ctx, hashKey(filename)).Err(); err != nil {
		return domain.Fail(domain.Because(domain.ErrCacheWrite, err), "file", filename)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func hashKey(filename string) string {
	return keyPrefix + filename
}
