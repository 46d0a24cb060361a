// Package geocache memoizes geocoding lookups in front of any provider.
package geocache

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Geocode returns the cached point for query, resolving it through the
// wrapped geocoder on a miss. Errors, including ErrNoMatch, are never cached.
func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if point, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return point, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	point, err := c.inner.Geocode(ctx, query)
	if err != nil {
		return point, err
	}
	c.cache.put(key, point)
	return point, nil
}

// lruCache is a bounded, mutex-guarded map of query keys to points. The
// front of order is the most recently used key.
type lruCache struct {
	maxEntries int

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

type cached struct {
	key   string
	point domain.GeoPoint
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeoPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return domain.GeoPoint{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).point, true
}

func (c *lruCache) put(key string, point domain.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cached).point = point
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&cached{key: key, point: point})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cached).key)
	}
}
