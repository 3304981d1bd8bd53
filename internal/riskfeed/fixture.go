package riskfeed

import (
	"bytes"
	"fmt"
	"os"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk form of a static risk point set.
type Fixture struct {
	Points []domain.RiskPoint `yaml:"points" json:"points"`
}

// DefaultPoints is the built-in risk set used when no fixture path or feed
// is configured.
func DefaultPoints() []domain.RiskPoint {
	return []domain.RiskPoint{
		{Latitude: 43.6, Longitude: 1.44, Severity: 0.9, ObservedDate: domain.NewDate(2026, 1, 12)},
		{Latitude: 43.3, Longitude: 3.2, Severity: 0.6, ObservedDate: domain.NewDate(2026, 1, 12)},
	}
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) ([]domain.RiskPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture. Unknown fields are rejected.
func ParseFixture(data []byte) ([]domain.RiskPoint, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := domain.ValidateRiskPoints(f.Points); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return f.Points, nil
}

// MarshalFixture encodes points as a YAML fixture.
func MarshalFixture(points []domain.RiskPoint) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Fixture{Points: points}); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	return buf.Bytes(), nil
}
