package ports

import (
	"context"

	"go.trai.ch/sift/internal/core/domain"
)

// CacheStore persists cache entries across sessions.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Get retrieves the entry stored for key.
	// Returns nil, nil if not found.
	Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error)

	// Put stores entry under its key.
	Put(ctx context.Context, entry *domain.CacheEntry) error

	// Delete removes every entry stored for filename.
	Delete(ctx context.Context, filename string) error
}
