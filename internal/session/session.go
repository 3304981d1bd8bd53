// Package session issues and resolves the opaque tokens that gate console
// access after a successful subscription.
//
// The browser holds the raw token; stores only ever see its SHA-256 digest
// (the session ID), so a leaked store does not leak usable credentials.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/jonboulle/clockwork"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrMissingToken = errors.New("missing session token")
	ErrBadToken     = errors.New("malformed session token")
)

const tokenBytes = 32

// Session is the server-side record behind a token.
type Session struct {
	ID        string          `json:"-"`
	Identity  domain.Identity `json:"identity"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Store persists sessions by ID. Implementations must treat expired sessions
// as absent.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager issues and validates tokens on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
	clock clockwork.Clock
}

// NewManager creates a Manager. Sessions live for ttl after issue.
func NewManager(store Store, ttl time.Duration, clock clockwork.Clock) *Manager {
	return &Manager{store: store, ttl: ttl, clock: clock}
}

// TTL is the lifetime of newly issued sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue stores a session for identity and returns the raw token.
func (m *Manager) Issue(ctx context.Context, identity domain.Identity) (string, Session, error) {
	if err := identity.Validate(); err != nil {
		return "", Session{}, err
	}

	token, err := newToken()
	if err != nil {
		return "", Session{}, fmt.Errorf("generate session token: %w", err)
	}

	now := m.clock.Now().UTC()
	s := Session{
		ID:        ID(token),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, s); err != nil {
		return "", Session{}, fmt.Errorf("store session: %w", err)
	}
	return token, s, nil
}

// Resolve validates a raw token and returns its live session.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrMissingToken
	}
	if !wellFormed(token) {
		return Session{}, ErrBadToken
	}

	s, err := m.store.Get(ctx, ID(token))
	if err != nil {
		return Session{}, err
	}
	if !m.clock.Now().Before(s.ExpiresAt) {
		_ = m.store.Delete(ctx, s.ID)
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Revoke deletes the session behind a raw token. Unknown tokens are not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if !wellFormed(token) {
		return nil
	}
	return m.store.Delete(ctx, ID(token))
}

// Alive reports whether a session ID still resolves. Used to reap consoles.
func (m *Manager) Alive(ctx context.Context, id string) (bool, error) {
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.clock.Now().Before(s.ExpiresAt), nil
}

// ID derives the storage key of a raw token.
func ID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func wellFormed(token string) bool {
	if len(token) != tokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
