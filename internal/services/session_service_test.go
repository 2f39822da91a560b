package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CreateAndResolve(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	alice := mustRegister(t, newTestUserService(db, nil), "alice")
	sessions := NewSessionService(db, time.Hour, 24*time.Hour)

	session, err := sessions.Create(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, session.ExpiresAt.Sub(session.CreatedAt))

	user, err := sessions.CurrentUser(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)
}

func TestSession_RememberExtendsLifetime(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	alice := mustRegister(t, newTestUserService(db, nil), "alice")
	sessions := NewSessionService(db, time.Hour, 24*time.Hour)

	session, err := sessions.Create(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.True(t, session.Remember)
	assert.Equal(t, 24*time.Hour, session.ExpiresAt.Sub(session.CreatedAt))

	stored, err := sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.Remember)
	assert.True(t, stored.ExpiresAt.Equal(session.ExpiresAt))
}

func TestSession_AnonymousCases(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionService(newTestDB(t), time.Hour, time.Hour)

	user, err := sessions.CurrentUser(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, user)

	user, err = sessions.CurrentUser(ctx, "does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestSession_DestroyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	alice := mustRegister(t, newTestUserService(db, nil), "alice")
	sessions := NewSessionService(db, time.Hour, time.Hour)

	session, err := sessions.Create(ctx, alice.ID, false)
	require.NoError(t, err)

	require.NoError(t, sessions.Destroy(ctx, session.ID))
	require.NoError(t, sessions.Destroy(ctx, session.ID))

	user, err := sessions.CurrentUser(ctx, session.ID)
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestSession_ExpiryAndPurge(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	alice := mustRegister(t, newTestUserService(db, nil), "alice")
	sessions := NewSessionService(db, time.Hour, 2*time.Hour)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return start }

	short, err := sessions.Create(ctx, alice.ID, false)
	require.NoError(t, err)
	long, err := sessions.Create(ctx, alice.ID, true)
	require.NoError(t, err)

	sessions.now = func() time.Time { return start.Add(90 * time.Minute) }

	user, err := sessions.CurrentUser(ctx, short.ID)
	require.NoError(t, err)
	assert.Nil(t, user, "expired session must be anonymous")

	user, err = sessions.CurrentUser(ctx, long.ID)
	require.NoError(t, err)
	assert.NotNil(t, user)

	n, err := sessions.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = sessions.Get(ctx, short.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = sessions.Get(ctx, long.ID)
	assert.NoError(t, err)
}
