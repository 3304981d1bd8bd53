package console

import (
	"strconv"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
)

const markerRadius = 10

// Marker is one circle on the map.
type Marker struct {
	Latitude     float64          `json:"latitude"`
	Longitude    float64          `json:"longitude"`
	Level        domain.RiskLevel `json:"level"`
	Color        string           `json:"color"`
	Radius       int              `json:"radius"`
	Severity     float64          `json:"severity"`
	ObservedDate string           `json:"observedDate"`
}

// PanelEntry is one line of the side panel.
type PanelEntry struct {
	Level       domain.RiskLevel `json:"level"`
	Icon        string           `json:"icon"`
	Label       string           `json:"label"`
	Coordinates string           `json:"coordinates"`
	Place       string           `json:"place,omitempty"`
}

// MapView is the rendered form of one risk point set. Markers and Panel are
// parallel: index i of each describes the same point.
type MapView struct {
	Markers     []Marker     `json:"markers"`
	Panel       []PanelEntry `json:"panel"`
	HighCount   int          `json:"highCount"`
	MediumCount int          `json:"mediumCount"`
}

// BuildMapView renders points from scratch. Each point is classified once and
// that level styles both its marker and its panel entry.
func BuildMapView(points []domain.RiskPoint) MapView {
	v := MapView{
		Markers: make([]Marker, 0, len(points)),
		Panel:   make([]PanelEntry, 0, len(points)),
	}

	for _, p := range points {
		level := p.Level()
		if level == domain.RiskHigh {
			v.HighCount++
		} else {
			v.MediumCount++
		}

		v.Markers = append(v.Markers, Marker{
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
			Level:        level,
			Color:        level.Color(),
			Radius:       markerRadius,
			Severity:     p.Severity,
			ObservedDate: p.ObservedDate.String(),
		})
		v.Panel = append(v.Panel, PanelEntry{
			Level:       level,
			Icon:        level.Icon(),
			Label:       level.Label(),
			Coordinates: formatCoord(p.Latitude) + ", " + formatCoord(p.Longitude),
			Place:       p.Place,
		})
	}
	return v
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
