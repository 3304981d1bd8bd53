//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/session"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	store, err := session.NewRedisStore(startRedis(ctx, t), clockwork.NewRealClock())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.CheckReadiness(ctx))

	m := session.NewManager(store, 2*time.Second, clockwork.NewRealClock())
	identity := domain.Identity{Name: "A", Mail: "a@x.com", IP: "1.2.3.4"}

	token, _, err := m.Issue(ctx, identity)
	require.NoError(t, err)

	s, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", s.Identity.Mail)

	require.Eventually(t, func() bool {
		_, err := m.Resolve(ctx, token)
		return err != nil
	}, 10*time.Second, 200*time.Millisecond, "session should expire with its TTL")

	token, _, err = m.Issue(ctx, identity)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, token))
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
