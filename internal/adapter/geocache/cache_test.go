package geocache

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls int
	point domain.GeoPoint
	err   error
}

func (m *countingGeocoder) Geocode(_ context.Context, _ string) (domain.GeoPoint, error) {
	m.calls++
	return m.point, m.err
}

var cambridge = domain.GeoPoint{Lat: 42.3736, Lon: -71.1097}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{point: cambridge}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	p1, err := cached.Geocode(context.Background(), "Cambridge, Massachusetts,USA")
	require.NoError(t, err)
	assert.Equal(t, cambridge, p1)

	p2, err := cached.Geocode(context.Background(), "  cambridge, massachusetts,usa ")
	require.NoError(t, err)
	assert.Equal(t, cambridge, p2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{point: cambridge}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.Geocode(context.Background(), "Cambridge, Massachusetts,USA")
	_, _ = cached.Geocode(context.Background(), "Stanford, California,USA")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: domain.ErrNoMatch}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Geocode(context.Background(), "Atlantis,USA")
	require.True(t, errors.Is(err, domain.ErrNoMatch))
	_, err = cached.Geocode(context.Background(), "Atlantis,USA")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.GeoPoint{Lat: 1})
	c.put("b", domain.GeoPoint{Lat: 2})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, result.Lat)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeoPoint{Lat: 1})
	c.put("b", domain.GeoPoint{Lat: 2})
	c.put("c", domain.GeoPoint{Lat: 3}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2.0, result.Lat)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3.0, result.Lat)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeoPoint{Lat: 1})
	c.put("b", domain.GeoPoint{Lat: 2})

	c.get("a")

	// Insert "c": should evict "b" (LRU), not "a"
	c.put("c", domain.GeoPoint{Lat: 3})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.GeoPoint{Lat: 1})
	c.put("a", domain.GeoPoint{Lat: 2})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 2.0, result.Lat)
}
