package console

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Factory builds a console for a subscriber.
type Factory func(identity *domain.Identity) (*Console, error)

// SessionChecker reports whether a session is still live.
type SessionChecker interface {
	Alive(ctx context.Context, id string) (bool, error)
}

// Registry owns one console per session ID.
type Registry struct {
	factory Factory
	metrics *observability.Metrics
	logger  *slog.Logger

	mu       sync.Mutex
	consoles map[string]*Console
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, metrics *observability.Metrics, logger *slog.Logger) *Registry {
	return &Registry{
		factory:  factory,
		metrics:  metrics,
		logger:   logger,
		consoles: make(map[string]*Console),
	}
}

// Acquire returns the console for sessionID, creating it on first use.
func (r *Registry) Acquire(sessionID string, identity domain.Identity) (*Console, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.consoles[sessionID]; ok {
		return c, nil
	}
	c, err := r.factory(&identity)
	if err != nil {
		return nil, err
	}
	r.consoles[sessionID] = c
	r.metrics.ActiveConsoles.Set(float64(len(r.consoles)))
	return c, nil
}

// Release closes and forgets the console for sessionID, if any.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	c, ok := r.consoles[sessionID]
	delete(r.consoles, sessionID)
	r.metrics.ActiveConsoles.Set(float64(len(r.consoles)))
	r.mu.Unlock()

	if ok {
		c.Close()
	}
}

// Len returns the number of live consoles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consoles)
}

// Reap releases consoles whose session is no longer alive and returns how
// many were released. Sessions whose check fails are kept.
func (r *Registry) Reap(ctx context.Context, sessions SessionChecker) int {
	r.mu.Lock()
	ids := make([]string, 0, len(r.consoles))
	for id := range r.consoles {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	reaped := 0
	for _, id := range ids {
		alive, err := sessions.Alive(ctx, id)
		if err != nil {
			r.logger.Warn("session liveness check failed", "error", err)
			continue
		}
		if !alive {
			r.Release(id)
			reaped++
		}
	}
	return reaped
}

// RunReaper calls Reap every interval until ctx is cancelled.
func (r *Registry) RunReaper(ctx context.Context, sessions SessionChecker, interval time.Duration, clock clockwork.Clock) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := r.Reap(ctx, sessions); n > 0 {
				r.logger.Info("released expired consoles", "count", n)
			}
		}
	}
}

// CloseAll closes every console. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	consoles := r.consoles
	r.consoles = make(map[string]*Console)
	r.metrics.ActiveConsoles.Set(0)
	r.mu.Unlock()

	for _, c := range consoles {
		c.Close()
	}
	for _, c := range consoles {
		c.Wait()
	}
}
