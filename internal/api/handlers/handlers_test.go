package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/database"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/uploads"
	"github.com/isdelr/socialnet/internal/web"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse"

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]int64
}

func (n *recordingNotifier) BroadcastTo(userIDs []int64, _ []byte) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, userIDs)
	return true
}

type testEnv struct {
	t        *testing.T
	db       *sql.DB
	users    *services.UserService
	sessions *services.SessionService
	friends  *services.FriendService
	posts    *services.PostService
	stream   *services.StreamService
	tokens   *auth.TokenManager
	images   *uploads.Store
	imageDir string
	notifier *recordingNotifier
	router   http.Handler
}

// newTestEnv wires the handlers onto a chi router backed by a fresh SQLite
// database. CSRF protection is left out; the router tests cover it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	imageDir := filepath.Join(dir, "uploads")
	images, err := uploads.New(imageDir)
	require.NoError(t, err)

	pages, err := web.NewRenderer(web.NewSessionStore([]byte("0123456789abcdef0123456789abcdef"), false))
	require.NoError(t, err)

	events := services.NewEventService(db)
	env := &testEnv{
		t:        t,
		db:       db,
		users:    services.NewUserService(db, events),
		sessions: services.NewSessionService(db, time.Hour, 24*time.Hour),
		friends:  services.NewFriendService(db, events),
		posts:    services.NewPostService(db, events),
		stream:   services.NewStreamService(db),
		tokens:   auth.NewTokenManager("test-secret"),
		images:   images,
		imageDir: imageDir,
		notifier: &recordingNotifier{},
	}

	authH := NewAuthHandler(env.users, env.sessions, env.tokens, pages, false)
	streamH := NewStreamHandler(env.posts, env.stream, images, env.notifier, pages)
	commentH := NewCommentHandler(env.posts, pages)
	friendH := NewFriendHandler(env.friends, pages)
	profileH := NewProfileHandler(env.users, events, pages)
	uploadH := NewUploadHandler(images)

	r := chi.NewRouter()
	r.Use(auth.SessionMiddleware(env.tokens, env.sessions))
	r.Get("/", authH.Index)
	r.Post("/", authH.Submit)
	r.Get("/logout", authH.Logout)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/stream/{username}", streamH.Show)
		r.Post("/stream/{username}", streamH.Create)
		r.Get("/comments/{username}/{postID}", commentH.Show)
		r.Post("/comments/{username}/{postID}", commentH.Create)
		r.Get("/friends/{username}", friendH.Show)
		r.Post("/friends/{username}", friendH.Add)
		r.Get("/profile/{username}", profileH.Show)
		r.Post("/profile/{username}", profileH.Update)
		r.Get("/uploads/{filename}", uploadH.Serve)
	})
	env.router = r
	return env
}

func (e *testEnv) register(username string) models.User {
	e.t.Helper()
	user, err := e.users.Register(context.Background(), services.RegisterInput{
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  testPassword,
	})
	require.NoError(e.t, err)
	return user
}

// login returns a session cookie for user.
func (e *testEnv) login(user models.User) *http.Cookie {
	e.t.Helper()
	session, err := e.sessions.Create(context.Background(), user.ID, false)
	require.NoError(e.t, err)
	token, err := e.tokens.Issue(session, user)
	require.NoError(e.t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, cookies...)
}

func multipartPost(t *testing.T, path, content, filename string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("content", content))
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
