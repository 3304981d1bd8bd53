package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestRun_ValidFixture(t *testing.T) {
	path := writeFixture(t, `points:
  - {latitude: 43.6, longitude: 1.44, severity: 0.9, observedDate: 2026-01-12}
  - {latitude: 43.3, longitude: 3.2, severity: 0.8, observedDate: 2026-01-12}
`)
	var out bytes.Buffer

	code := run(&out, path)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "[PASS] consistency")
	assert.Contains(t, out.String(), "classified medium")
	assert.Contains(t, out.String(), "2 points: 1 high risk, 1 medium risk")
}

func TestRun_DuplicateCoordinates(t *testing.T) {
	path := writeFixture(t, `points:
  - {latitude: 43.6, longitude: 1.44, severity: 0.9, observedDate: 2026-01-12}
  - {latitude: 43.6, longitude: 1.44, severity: 0.2, observedDate: 2026-01-13}
`)
	var out bytes.Buffer

	assert.Equal(t, 1, run(&out, path))
	assert.Contains(t, out.String(), "point 1 duplicates the coordinates of point 0")
}

func TestRun_InvalidFixture(t *testing.T) {
	path := writeFixture(t, "points:\n  - {latitude: 120, longitude: 1, severity: 0.5, observedDate: 2026-01-12}\n")
	var out bytes.Buffer

	assert.Equal(t, 1, run(&out, path))
	assert.Contains(t, out.String(), "[FAIL] load")
	assert.Contains(t, out.String(), "latitude 120 out of range")
}
