package mapbox

import (
	"context"
	"math"
	"sync"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/observability"
	"github.com/golang/groupcache/lru"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Risk feeds
// resend the same coordinates on every snapshot, so most lookups are hits.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics

	mu    sync.Mutex
	cache *lru.Cache
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		cache:   lru.New(maxEntries),
	}
}

// coordKey rounds to ~0.1 m, the precision sent to the API.
type coordKey struct {
	lat, lon int64
}

func newCoordKey(lat, lon float64) coordKey {
	return coordKey{lat: int64(math.Round(lat * 1e6)), lon: int64(math.Round(lon * 1e6))}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := newCoordKey(lat, lon)
	if result, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.put(key, result)
	}
	return result, nil
}

func (c *CachedGeocoder) get(key coordKey) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(key)
	if !ok {
		return domain.GeocodingResult{}, false
	}
	return v.(domain.GeocodingResult), true
}

func (c *CachedGeocoder) put(key coordKey, result domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Add(key, result)
}
