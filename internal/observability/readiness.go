package observability

import (
	"context"
	"fmt"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NamedCheck is a readiness checker reported under a component name.
type NamedCheck struct {
	Name    string
	Checker sharedobs.ReadinessChecker
}

// Readiness reports ready only when every named check passes. The first
// failing check is returned.
type Readiness []NamedCheck

func (r Readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if c.Checker == nil {
			continue
		}
		if err := c.Checker.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	return nil
}
