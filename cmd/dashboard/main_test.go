package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/flood-alert-dashboard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "flood-alert-dashboard dev")
	assert.Contains(t, out.String(), "commit: unknown")
}

func TestInitialPoints_DefaultFixture(t *testing.T) {
	points, err := initialPoints(&config.Config{})
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestInitialPoints_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.yaml")
	doc := "points:\n  - latitude: 43.1\n    longitude: 2.1\n    severity: 0.95\n    observedDate: 2026-02-01\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	points, err := initialPoints(&config.Config{RiskFixturePath: path})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 0.95, points[0].Severity, 0)
}

func TestInitialPoints_BadFile(t *testing.T) {
	_, err := initialPoints(&config.Config{RiskFixturePath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RISK_FIXTURE_PATH")
}
