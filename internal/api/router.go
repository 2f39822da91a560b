package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"
	"github.com/isdelr/socialnet/internal/api/handlers"
	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/config"
	"github.com/isdelr/socialnet/internal/metrics"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/uploads"
	"github.com/isdelr/socialnet/internal/web"
	"github.com/isdelr/socialnet/internal/websocket"
)

// maxRequestBody bounds every request body: one image plus form fields.
const maxRequestBody = uploads.MaxSize + 1<<20

// Dependencies are the collaborators the router hands to its handlers.
type Dependencies struct {
	Config   *config.Config
	Users    services.UserServiceProvider
	Sessions services.SessionServiceProvider
	Friends  services.FriendServiceProvider
	Posts    services.PostServiceProvider
	Stream   services.StreamServiceProvider
	Events   services.EventServiceProvider
	Tokens   *auth.TokenManager
	Pages    *web.Renderer
	Uploads  *uploads.Store
	Hub      *websocket.Hub
	Health   http.Handler
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Dependencies) *chi.Mux {
	secure := d.Config.IsProduction()

	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if d.Health != nil {
		r.Method(http.MethodGet, "/healthz", d.Health)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.Sessions, d.Tokens, d.Pages, secure)
	streamHandler := handlers.NewStreamHandler(d.Posts, d.Stream, d.Uploads, d.Hub, d.Pages)
	commentHandler := handlers.NewCommentHandler(d.Posts, d.Pages)
	friendHandler := handlers.NewFriendHandler(d.Friends, d.Pages)
	profileHandler := handlers.NewProfileHandler(d.Users, d.Events, d.Pages)
	uploadHandler := handlers.NewUploadHandler(d.Uploads)
	wsHandler := handlers.NewWebSocketHandler(d.Hub)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.Config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(middleware.RequestSize(maxRequestBody))
		if !secure {
			r.Use(plaintextRequests)
		}
		r.Use(csrf.Protect([]byte(d.Config.SessionKey),
			csrf.Secure(secure),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
		))
		r.Use(auth.SessionMiddleware(d.Tokens, d.Sessions))

		for _, path := range []string{"/", "/index"} {
			r.Get(path, authHandler.Index)
			r.Post(path, authHandler.Submit)
		}
		r.Get("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Get("/stream/{username}", streamHandler.Show)
			r.Post("/stream/{username}", streamHandler.Create)
			r.Get("/comments/{username}/{postID}", commentHandler.Show)
			r.Post("/comments/{username}/{postID}", commentHandler.Create)
			r.Get("/friends/{username}", friendHandler.Show)
			r.Post("/friends/{username}", friendHandler.Add)
			r.Get("/profile/{username}", profileHandler.Show)
			r.Post("/profile/{username}", profileHandler.Update)
			r.Get("/uploads/{filename}", uploadHandler.Serve)
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
