package domain

import (
	"context"
	"log/slog"
)

// LabelRiskPoints returns a copy of points with Place filled from reverse
// geocoding. Points that already have a label are left alone. If geocoder is
// nil or a lookup fails, the point keeps an empty label (graceful degradation).
func LabelRiskPoints(ctx context.Context, points []RiskPoint, geocoder Geocoder, logger *slog.Logger) []RiskPoint {
	out := make([]RiskPoint, len(points))
	copy(out, points)
	if geocoder == nil {
		return out
	}

	for i := range out {
		if out[i].Place != "" {
			continue
		}
		result, err := geocoder.ReverseGeocode(ctx, out[i].Latitude, out[i].Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"lat", out[i].Latitude,
				"lon", out[i].Longitude,
				"error", err,
			)
			if ctx.Err() != nil {
				return out
			}
			continue
		}
		if result.PlaceName != "" {
			out[i].Place = result.PlaceName
		} else {
			out[i].Place = result.FormattedAddress
		}
	}
	return out
}
