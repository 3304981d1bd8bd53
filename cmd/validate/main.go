// Command validate checks a risk point fixture before it is deployed: every
// point must be in range and dated, and the classification summary is printed
// so the high/medium split can be reviewed.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/fixtures/occitanie.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/riskfeed"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixture := flag.String("fixture", "", "path to a YAML risk fixture")
	flag.Parse()

	if *fixture == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *fixture))
}

func run(w io.Writer, path string) int {
	load := &phase{name: "load"}
	points, err := riskfeed.LoadFixture(path)
	if err != nil {
		load.errorf("%v", err)
		report(w, load)
		return 1
	}
	report(w, load)

	checks := checkPoints(points)
	report(w, checks)

	high, medium := summarize(points)
	fmt.Fprintf(w, "\n%d points: %d high risk, %d medium risk\n", len(points), high, medium)

	if !checks.passed() {
		return 1
	}
	return 0
}

// checkPoints looks for problems that are valid data but probably mistakes.
func checkPoints(points []domain.RiskPoint) *phase {
	p := &phase{name: "consistency"}
	if len(points) == 0 {
		p.warnf("fixture has no points; the map will be empty")
	}

	seen := make(map[[2]float64]int, len(points))
	for i, pt := range points {
		key := [2]float64{pt.Latitude, pt.Longitude}
		if j, ok := seen[key]; ok {
			p.errorf("point %d duplicates the coordinates of point %d", i, j)
		}
		seen[key] = i

		if pt.Severity == domain.HighRiskThreshold {
			p.warnf("point %d has severity exactly %.1f and is classified medium", i, domain.HighRiskThreshold)
		}
	}
	return p
}

func summarize(points []domain.RiskPoint) (high, medium int) {
	for _, p := range points {
		if p.Level() == domain.RiskHigh {
			high++
		} else {
			medium++
		}
	}
	return high, medium
}

func report(w io.Writer, p *phase) {
	status := "PASS"
	if !p.passed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "[%s] %s\n", status, p.name)
	for _, e := range p.errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	for _, warn := range p.warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
