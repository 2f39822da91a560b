package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/isdelr/socialnet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice")
	env.register("bob")
	aliceCookie := env.login(alice)

	rec := env.postForm("/profile/alice", url.Values{
		"education": {"Wonderland University"},
		"music":     {"Jabberwocky"},
		"birthday":  {"1990-05-04"},
	}, aliceCookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile/alice", rec.Header().Get("Location"))

	rec = env.get("/profile/alice", aliceCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Wonderland University")
	assert.Contains(t, body, "1990-05-04")
	assert.Contains(t, body, "Update Profile")
	assert.Contains(t, body, "Recent activity")

	// Others can read the profile but not edit it.
	rec = env.get("/profile/alice", env.login(mustGet(t, env, "bob")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wonderland University")
	assert.NotContains(t, rec.Body.String(), "Update Profile")
}

func TestProfile_Rejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice")
	env.register("bob")
	cookie := env.login(alice)

	rec := env.postForm("/profile/alice", url.Values{
		"education": {"Looking-Glass College"},
		"birthday":  {"05/04/1990"},
	}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error">birthday:`)
	// The form keeps what was typed while the stored profile stays untouched.
	assert.Contains(t, rec.Body.String(), `value="Looking-Glass College"`)
	assert.Contains(t, rec.Body.String(), `value="05/04/1990"`)
	assert.Empty(t, mustGet(t, env, "alice").Education)

	rec = env.postForm("/profile/bob", url.Values{"education": {"hacked"}}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile/alice", rec.Header().Get("Location"))
	bob, err := env.users.GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, bob.Education)

	rec = env.get("/profile/nobody", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile/alice", rec.Header().Get("Location"))
}

func mustGet(t *testing.T, env *testEnv, username string) models.User {
	t.Helper()
	user, err := env.users.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	return user
}
