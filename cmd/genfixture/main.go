// Command genfixture writes a reproducible risk point fixture, either as the
// YAML file read through RISK_FIXTURE_PATH or as a JSON snapshot that can be
// published to the risk feed topic.
//
// Usage:
//
//	go run ./cmd/genfixture -count 25 -seed 7 -out data/fixtures/occitanie.yaml
//	go run ./cmd/genfixture -format snapshot -out snapshot.json
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/riskfeed"
)

// Occitanie bounding box.
const (
	minLat, maxLat = 42.33, 45.05
	minLon, maxLon = -0.33, 4.85
)

var baseDate = time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path (stdout when empty)")
	count := flag.Int("count", 20, "number of risk points")
	seed := flag.Uint64("seed", 1, "random seed")
	format := flag.String("format", "yaml", "output format: yaml or snapshot")
	flag.Parse()

	if *count < 0 {
		flag.Usage()
		return fmt.Errorf("-count must not be negative")
	}

	points := generate(*count, *seed)
	if err := domain.ValidateRiskPoints(points); err != nil {
		return fmt.Errorf("generated invalid points: %w", err)
	}

	var data []byte
	var err error
	switch *format {
	case "yaml":
		data, err = riskfeed.MarshalFixture(points)
	case "snapshot":
		data, err = riskfeed.EncodeSnapshot(riskfeed.Snapshot{Points: points, GeneratedAt: baseDate})
	default:
		return fmt.Errorf("unknown -format %q", *format)
	}
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil { //nolint:gosec // fixture is not secret
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %d points to %s", len(points), *out)
	return nil
}

// generate returns count points inside the region. The same seed always
// yields the same points.
func generate(count int, seed uint64) []domain.RiskPoint {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	points := make([]domain.RiskPoint, count)
	for i := range points {
		day := baseDate.AddDate(0, 0, -rng.IntN(7))
		points[i] = domain.RiskPoint{
			Latitude:     round(minLat+rng.Float64()*(maxLat-minLat), 4),
			Longitude:    round(minLon+rng.Float64()*(maxLon-minLon), 4),
			Severity:     round(rng.Float64(), 2),
			ObservedDate: domain.NewDate(day.Year(), day.Month(), day.Day()),
		}
	}
	return points
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
