package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Toulouse", FormattedAddress: "Toulouse, France"},
	}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	r1, err := cached.ReverseGeocode(context.Background(), 43.6, 1.44)
	require.NoError(t, err)
	assert.Equal(t, "Toulouse", r1.PlaceName)

	r2, err := cached.ReverseGeocode(context.Background(), 43.6, 1.44)
	require.NoError(t, err)
	assert.Equal(t, "Toulouse", r2.PlaceName)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(cached.metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentCoordinatesMiss(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Place", FormattedAddress: "Place, France"},
	}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 43.6, 1.44)
	_, _ = cached.ReverseGeocode(context.Background(), 43.3, 3.2)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 43.6, 1.44)
	_, _ = cached.ReverseGeocode(context.Background(), 43.6, 1.44)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("API down")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 43.6, 1.44)
	require.Error(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 43.6, 1.44)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{FormattedAddress: "Somewhere"},
	}
	cached := NewCachedGeocoder(inner, 2, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)
	_, _ = cached.ReverseGeocode(context.Background(), 2, 2)
	_, _ = cached.ReverseGeocode(context.Background(), 3, 3) // evicts (1,1)
	_, _ = cached.ReverseGeocode(context.Background(), 1, 1)

	assert.Equal(t, 4, inner.calls)
}

func TestNewCoordKey_Rounding(t *testing.T) {
	assert.Equal(t, newCoordKey(43.6, 1.44), newCoordKey(43.60000001, 1.44000004))
	assert.NotEqual(t, newCoordKey(43.6, 1.44), newCoordKey(43.600002, 1.44))
}
