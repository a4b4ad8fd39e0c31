//go:build integration

package redis_test

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/redis"
	"go.trai.ch/sift/internal/core/domain"
)

func TestStore_Integration(t *testing.T) {
	url := os.Getenv("SIFT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SIFT_TEST_REDIS_URL is not set, skipping integration test")
	}

	store, err := redis.Open(t.Context(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	filename := "/src/" + uuid.NewString() + ".js"
	entry := &domain.CacheEntry{
		Key:        domain.NewCacheKey(filename, domain.NewExportSet("a"), "h1"),
		ShakenCode: "export const a = 1;\n",
		Exports:    []string{"a"},
		Values:     map[string]domain.Value{"a": domain.NumberValue(1)},
		Reusable:   true,
	}

	got, err := store.Get(t.Context(), entry.Key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Put(t.Context(), entry))
	got, err = store.Get(t.Context(), entry.Key)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	require.NoError(t, store.Delete(t.Context(), filename))
	got, err = store.Get(t.Context(), entry.Key)
	require.NoError(t, err)
	assert.Nil(t, got)
}
