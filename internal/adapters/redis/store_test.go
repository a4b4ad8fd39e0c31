package redis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/redis"
	"go.trai.ch/sift/internal/core/domain"
)

func TestOpen_InvalidURL(t *testing.T) {
	_, err := redis.Open(t.Context(), "http://not-redis")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCacheBackend)
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := redis.Open(t.Context(), "redis://127.0.0.1:1/0")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCacheBackend)
}
