package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.trai.ch/sift/internal/engine/registry"
	"go.uber.org/mock/gomock"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := registry.New(nil)

	first, outcome := r.GetOrCreate("/src/f.js", domain.NewExportSet("a"))
	assert.True(t, outcome.Created)
	assert.Nil(t, outcome.Superseded)
	assert.Equal(t, 1, first.Generation)
	assert.Equal(t, domain.StatusQueued, first.Status)

	same, outcome := r.GetOrCreate("/src/f.js", domain.NewExportSet("a"))
	assert.False(t, outcome.Created)
	assert.Same(t, first, same)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GrowingRequirementSupersedesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().Superseded().Times(1)

	r := registry.New(metrics)
	consumer := &domain.Entrypoint{Filename: "/src/button.js"}

	first, _ := r.GetOrCreate("/src/f.js", domain.NewExportSet("a"))
	first.Source = &domain.Source{Text: "export const a = 1, b = 2;", Hash: "h"}
	first.AddConsumer(consumer)

	second, outcome := r.GetOrCreate("/src/f.js", domain.NewExportSet("b"))
	require.True(t, outcome.Created)
	assert.Same(t, first, outcome.Superseded)

	assert.Equal(t, "a,b", second.Required.Key())
	assert.Equal(t, 2, second.Generation)
	assert.Same(t, first.Source, second.Source)
	assert.Equal(t, []*domain.Entrypoint{consumer}, second.Consumers)

	assert.Equal(t, domain.StatusSuperseded, first.Status)
	assert.Same(t, second, first.Latest())

	// a narrower request attaches to the newest generation
	again, outcome := r.GetOrCreate("/src/f.js", domain.NewExportSet("a"))
	assert.False(t, outcome.Created)
	assert.Same(t, second, again)

	assert.False(t, r.Supersede(first, second))

	current, ok := r.Current("/src/f.js")
	require.True(t, ok)
	assert.Same(t, second, current)
}
