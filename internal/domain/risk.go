package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// HighRiskThreshold is the severity above which a point is high risk.
const HighRiskThreshold = 0.8

// RiskLevel is the severity class of a risk point.
type RiskLevel int

const (
	RiskMedium RiskLevel = iota
	RiskHigh
)

// Classify maps a severity score to its risk level. The comparison is strict:
// 0.8 itself is medium.
func Classify(severity float64) RiskLevel {
	if severity > HighRiskThreshold {
		return RiskHigh
	}
	return RiskMedium
}

func (l RiskLevel) String() string {
	if l == RiskHigh {
		return "high"
	}
	return "medium"
}

// Label is the human-readable name of the level.
func (l RiskLevel) Label() string {
	if l == RiskHigh {
		return "High risk"
	}
	return "Medium risk"
}

// Color is the marker stroke/fill colour for the level.
func (l RiskLevel) Color() string {
	if l == RiskHigh {
		return "red"
	}
	return "orange"
}

// Icon is the side-panel badge for the level.
func (l RiskLevel) Icon() string {
	if l == RiskHigh {
		return "🔴"
	}
	return "🟡"
}

// MarshalText encodes the level as its String form.
func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = time.DateOnly

// NewDate returns the UTC calendar day year-month-day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RiskPoint is one geolocated flood-risk observation.
type RiskPoint struct {
	Latitude     float64 `json:"latitude" yaml:"latitude"`
	Longitude    float64 `json:"longitude" yaml:"longitude"`
	Severity     float64 `json:"severity" yaml:"severity"`
	ObservedDate Date    `json:"observedDate" yaml:"observedDate"`

	// Place is an optional reverse-geocoded label, e.g. "Toulouse".
	Place string `json:"place,omitempty" yaml:"place,omitempty"`
}

// Level classifies the point.
func (p RiskPoint) Level() RiskLevel {
	return Classify(p.Severity)
}

// Validate rejects points with out-of-range coordinates or severity.
func (p RiskPoint) Validate() error {
	var errs []error
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		errs = append(errs, fmt.Errorf("latitude %v out of range", p.Latitude))
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		errs = append(errs, fmt.Errorf("longitude %v out of range", p.Longitude))
	}
	if math.IsNaN(p.Severity) || p.Severity < 0 || p.Severity > 1 {
		errs = append(errs, fmt.Errorf("severity %v out of range [0,1]", p.Severity))
	}
	if p.ObservedDate.IsZero() {
		errs = append(errs, errors.New("observedDate is required"))
	}
	return errors.Join(errs...)
}

// ValidateRiskPoints validates every point, prefixing errors with the index.
func ValidateRiskPoints(points []RiskPoint) error {
	var errs []error
	for i, p := range points {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("point %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
