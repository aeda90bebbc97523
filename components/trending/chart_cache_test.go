package trending

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheMemoizesUntilExpiry(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Minute)
	cache.now = func() time.Time { return now }

	renders := 0
	render := func() (string, error) {
		renders++
		return "<div>chart</div>", nil
	}

	html, err := cache.GetOrRender("p1:LineChart:abc", render)
	require.NoError(t, err)
	assert.Equal(t, "<div>chart</div>", html)
	_, _ = cache.GetOrRender("p1:LineChart:abc", render)
	assert.Equal(t, 1, renders)

	now = now.Add(2 * time.Minute)
	_, _ = cache.GetOrRender("p1:LineChart:abc", render)
	assert.Equal(t, 2, renders)
}

func TestChartCacheInvalidatePrefix(t *testing.T) {
	cache := NewChartCache(time.Minute)
	ok := func() (string, error) { return "x", nil }
	_, _ = cache.GetOrRender("p1:a", ok)
	_, _ = cache.GetOrRender("p1:b", ok)
	_, _ = cache.GetOrRender("p2:a", ok)

	cache.InvalidatePrefix("p1:")
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheSkipsFailuresAndDisabledTTL(t *testing.T) {
	cache := NewChartCache(time.Minute)
	_, err := cache.GetOrRender("k", func() (string, error) { return "", errors.New("render failed") })
	require.Error(t, err)
	assert.Zero(t, cache.Len())

	disabled := NewChartCache(0)
	_, _ = disabled.GetOrRender("k", func() (string, error) { return "x", nil })
	assert.Zero(t, disabled.Len())
}

func TestContentHashIsDeterministic(t *testing.T) {
	a := contentHash(map[string]any{"b": 1, "a": 2})
	b := contentHash(map[string]any{"a": 2, "b": 1})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, contentHash(map[string]any{"a": 3}))
}
