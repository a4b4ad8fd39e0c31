package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/metrics"
)

func TestCollector_Counts(t *testing.T) {
	c := metrics.New()
	c.ActionProcessed("resolve")
	c.ActionProcessed("resolve")
	c.ActionProcessed("evaluate")
	c.CacheHit()
	c.CacheMiss()
	c.CacheMiss()
	c.Superseded()
	c.TransformDone(20*time.Millisecond, nil)
	c.TransformDone(time.Second, errors.New("boom"))

	expected := `
# HELP sift_actions_total Total number of scheduler actions processed
# TYPE sift_actions_total counter
sift_actions_total{kind="evaluate"} 1
sift_actions_total{kind="resolve"} 2
# HELP sift_cache_lookups_total Total number of cache lookups
# TYPE sift_cache_lookups_total counter
sift_cache_lookups_total{result="hit"} 1
sift_cache_lookups_total{result="miss"} 2
# HELP sift_entrypoints_superseded_total Total number of entrypoints replaced by a newer generation
# TYPE sift_entrypoints_superseded_total counter
sift_entrypoints_superseded_total 1
# HELP sift_transforms_total Total number of file transforms
# TYPE sift_transforms_total counter
sift_transforms_total{status="error"} 1
sift_transforms_total{status="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Gatherer(), strings.NewReader(expected),
		"sift_actions_total", "sift_cache_lookups_total", "sift_entrypoints_superseded_total", "sift_transforms_total"))

	count, err := testutil.GatherAndCount(c.Gatherer(), "sift_transform_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollector_Independent(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.CacheHit()

	count, err := testutil.GatherAndCount(b.Gatherer(), "sift_cache_lookups_total")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.New()
	c.ActionProcessed("resolve")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sift_actions_total{kind="resolve"} 1`)
}
