package mapbox

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/quake-compass/internal/domain"
	"github.com/couchcryptid/quake-compass/internal/observability"
)

// CachedResolver wraps a RegionResolver with an in-memory LRU cache keyed by
// coordinate rounded to four decimals.
type CachedResolver struct {
	inner   domain.RegionResolver
	metrics *observability.Metrics
	mu      sync.Mutex
	max     int
	order   *list.List // front is most recently used
	entries map[string]*list.Element
}

type cacheEntry struct {
	key    string
	region string
}

// NewCachedResolver creates a cache decorator holding up to maxEntries names.
func NewCachedResolver(inner domain.RegionResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		metrics: metrics,
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// ResolveRegion serves from the cache, falling back to the wrapped resolver
// on a miss. Only non-empty answers are stored.
func (c *CachedResolver) ResolveRegion(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if region, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return region, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	region, err := c.inner.ResolveRegion(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	// Empty answers are not cached and get retried on the next refresh.
	if region != "" {
		c.put(key, region)
	}
	return region, nil
}

// Len reports the number of cached entries.
func (c *CachedResolver) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedResolver) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).region, true
}

func (c *CachedResolver) put(key, region string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).region = region
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, region: region})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
