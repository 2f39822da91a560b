package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/config"
	"github.com/isdelr/socialnet/internal/database"
	"github.com/isdelr/socialnet/internal/monitoring"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/uploads"
	"github.com/isdelr/socialnet/internal/web"
	"github.com/isdelr/socialnet/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csrfField = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.UploadsPath = filepath.Join(dir, "uploads")

	db, err := database.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	store, err := uploads.New(cfg.UploadsPath)
	require.NoError(t, err)
	pages, err := web.NewRenderer(web.NewSessionStore([]byte(cfg.SessionKey), false))
	require.NoError(t, err)

	events := services.NewEventService(db)
	sessions := services.NewSessionService(db, cfg.SessionTTL, cfg.RememberTTL)
	return NewRouter(Dependencies{
		Config:   cfg,
		Users:    services.NewUserService(db, events),
		Sessions: sessions,
		Friends:  services.NewFriendService(db, events),
		Posts:    services.NewPostService(db, events),
		Stream:   services.NewStreamService(db),
		Events:   events,
		Tokens:   auth.NewTokenManager(cfg.JWTSecret),
		Pages:    pages,
		Uploads:  store,
		Hub:      websocket.NewHub(),
		Health:   monitoring.NewHealth(db, cfg.UploadsPath),
	})
}

func registerValues() url.Values {
	return url.Values{
		"action":           {"register"},
		"first_name":       {"Alice"},
		"last_name":        {"Liddell"},
		"username":         {"alice"},
		"password":         {"correct-horse"},
		"confirm_password": {"correct-horse"},
	}
}

func postForm(router http.Handler, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RejectsPostWithoutCSRFToken(t *testing.T) {
	router := newTestRouter(t)

	rec := postForm(router, registerValues(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AcceptsPostWithCSRFToken(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	match := csrfField.FindStringSubmatch(rec.Body.String())
	require.Len(t, match, 2, "login page carries a CSRF field")

	form := registerValues()
	form.Set("gorilla.csrf.Token", match[1])
	rec = postForm(router, form, rec.Result().Cookies())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRouter_ProtectedRoutesRedirectAnonymous(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/stream/alice", "/friends/alice", "/profile/alice", "/comments/alice/1", "/uploads/x.png", "/ws"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "socialnet_http_requests_total")
}
