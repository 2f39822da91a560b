package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriends_Add(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice")
	bob := env.register("bob")
	aliceCookie := env.login(alice)

	tests := []struct {
		name   string
		friend string
		notice string
	}{
		{"new friend", "bob", "Friend successfully added!"},
		{"already friends", "bob", "You are already friends with this user!"},
		{"self", "alice", "You cannot be friends with yourself!"},
		{"unknown user", "carol", "User does not exist!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.postForm("/friends/alice", url.Values{"username": {tt.friend}}, aliceCookie)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/friends/alice", rec.Header().Get("Location"))

			flash := cookieNamed(rec, "flash")
			require.NotNil(t, flash)
			rec = env.get("/friends/alice", aliceCookie, flash)
			assert.Contains(t, rec.Body.String(), tt.notice)
		})
	}

	// Friendship is symmetric.
	rec := env.get("/friends/bob", env.login(bob))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "(alice)")

	friends, err := env.friends.ListFriends(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)
}

func TestFriends_EmptyUsername(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice")

	rec := env.postForm("/friends/alice", url.Values{"username": {"  "}}, env.login(alice))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "is required")
}

func TestFriends_RedirectsToOwnList(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice")
	env.register("bob")
	cookie := env.login(alice)

	rec := env.get("/friends/bob", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/friends/alice", rec.Header().Get("Location"))

	// Adding a friend on someone else's page does nothing.
	rec = env.postForm("/friends/bob", url.Values{"username": {"alice"}}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	friends, err := env.friends.ListFriends(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}
