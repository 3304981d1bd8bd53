package riskfeed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/riskfeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `points:
  - latitude: 43.6
    longitude: 1.44
    severity: 0.9
    observedDate: 2026-01-12
    place: Toulouse
  - latitude: 43.3
    longitude: 3.2
    severity: 0.8
    observedDate: "2026-01-12"
`

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	points, err := riskfeed.LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Toulouse", points[0].Place)
	assert.Equal(t, "2026-01-12", points[0].ObservedDate.String())
	assert.Equal(t, domain.RiskMedium, points[1].Level(), "0.8 is not above the threshold")
}

func TestLoadFixture_MissingFile(t *testing.T) {
	_, err := riskfeed.LoadFixture(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fixture")
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "points:\n  - latitude: 1\n    longitude: 1\n    severity: 0.5\n    colour: red\n", "decode fixture"},
		{"severity out of range", "points:\n  - latitude: 1\n    longitude: 1\n    severity: 1.5\n", "point 0"},
		{"bad date", "points:\n  - latitude: 1\n    longitude: 1\n    severity: 0.5\n    observedDate: yesterday\n", "decode fixture"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := riskfeed.ParseFixture([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalFixture_RoundTrip(t *testing.T) {
	data, err := riskfeed.MarshalFixture(riskfeed.DefaultPoints())
	require.NoError(t, err)

	points, err := riskfeed.ParseFixture(data)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-01-12", points[1].ObservedDate.String())
}

func TestDecodeSnapshot(t *testing.T) {
	s, err := riskfeed.DecodeSnapshot(domain.RawMessage{Value: []byte(snapshotB)})
	require.NoError(t, err)
	assert.Len(t, s.Points, 2)

	_, err = riskfeed.DecodeSnapshot(domain.RawMessage{Value: []byte("  ")})
	require.Error(t, err)

	_, err = riskfeed.DecodeSnapshot(domain.RawMessage{Value: []byte(`{}`)})
	require.Error(t, err)

	s, err = riskfeed.DecodeSnapshot(domain.RawMessage{Value: []byte(`{"points":[]}`)})
	require.NoError(t, err)
	assert.Empty(t, s.Points)
}
