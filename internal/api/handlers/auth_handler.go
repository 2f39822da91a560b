package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/metrics"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/web"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles login, registration and logout.
type AuthHandler struct {
	users    services.UserServiceProvider
	sessions services.SessionServiceProvider
	tokens   *auth.TokenManager
	pages    *web.Renderer
	secure   bool
}

// NewAuthHandler creates a new AuthHandler. secure marks the session cookie
// HTTPS-only.
func NewAuthHandler(users services.UserServiceProvider, sessions services.SessionServiceProvider, tokens *auth.TokenManager, pages *web.Renderer, secure bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, tokens: tokens, pages: pages, secure: secure}
}

// Index shows the login and registration forms.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if user := auth.CurrentUser(r.Context()); user != nil {
		redirect(w, r, streamPath(user.Username))
		return
	}
	h.pages.Render(w, r, http.StatusOK, "index", web.Page{Title: "Welcome", Data: web.IndexData{}})
}

// Submit dispatches the login or registration form.
func (h *AuthHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if user := auth.CurrentUser(r.Context()); user != nil {
		redirect(w, r, streamPath(user.Username))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	switch r.PostFormValue("action") {
	case "login":
		h.login(w, r)
	case "register":
		h.register(w, r)
	default:
		http.Error(w, "Unknown form action", http.StatusBadRequest)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := strings.TrimSpace(r.PostFormValue("username"))

	user, err := h.users.Authenticate(ctx, username, r.PostFormValue("password"))
	if err != nil {
		metrics.RecordAction(metrics.ActionLogin, false)
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.pages.Render(w, r, http.StatusUnauthorized, "index", web.Page{
				Title:   "Welcome",
				Flashes: []web.Flash{{Category: web.FlashWarning, Message: "Either the username or password is wrong"}},
				Data:    web.IndexData{LoginUsername: username},
			})
			return
		}
		respondServerError(w, r, err, "Failed to authenticate user")
		return
	}

	session, err := h.sessions.Create(ctx, user.ID, r.PostFormValue("remember_me") != "")
	if err != nil {
		respondServerError(w, r, err, "Failed to create session")
		return
	}
	token, err := h.tokens.Issue(session, user)
	if err != nil {
		respondServerError(w, r, err, "Failed to sign session token")
		return
	}

	auth.SetCookie(w, token, session, h.secure)
	metrics.RecordAction(metrics.ActionLogin, true)
	log.Info().Str("username", user.Username).Bool("remember", session.Remember).Msg("User logged in")
	redirect(w, r, streamPath(user.Username))
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	in := services.RegisterInput{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Password:  r.PostFormValue("password"),
	}
	values := web.RegisterValues{Username: in.Username, FirstName: in.FirstName, LastName: in.LastName}

	fields := map[string]string{}
	if err := services.Validate(in); err != nil {
		invalid, ok := fieldErrors(err)
		if !ok {
			respondServerError(w, r, err, "Failed to validate registration")
			return
		}
		for k, v := range invalid {
			fields[k] = v
		}
	}
	if in.Password != r.PostFormValue("confirm_password") {
		fields["confirm_password"] = "Passwords must match"
	}
	if len(fields) > 0 {
		metrics.RecordAction(metrics.ActionRegister, false)
		h.renderRegister(w, r, http.StatusUnprocessableEntity, values, fields, nil)
		return
	}

	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		metrics.RecordAction(metrics.ActionRegister, false)
		if errors.Is(err, services.ErrConflict) {
			h.renderRegister(w, r, http.StatusConflict, values,
				map[string]string{"username": "Username already taken"},
				[]web.Flash{{Category: web.FlashWarning, Message: "Username already exists"}})
			return
		}
		if invalid, ok := fieldErrors(err); ok {
			h.renderRegister(w, r, http.StatusUnprocessableEntity, values, invalid, nil)
			return
		}
		respondServerError(w, r, err, "Failed to register user")
		return
	}

	metrics.RecordAction(metrics.ActionRegister, true)
	log.Info().Str("username", user.Username).Msg("User registered")
	h.pages.AddFlash(w, r, web.FlashSuccess, "User successfully created! Sign in to continue.")
	redirect(w, r, "/")
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, values web.RegisterValues, fields map[string]string, flashes []web.Flash) {
	h.pages.Render(w, r, status, "index", web.Page{
		Title:   "Welcome",
		Flashes: flashes,
		Errors:  fields,
		Data:    web.IndexData{Register: values},
	})
}

// Logout destroys the current session and clears its cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := auth.SessionID(r.Context()); sid != "" {
		if err := h.sessions.Destroy(r.Context(), sid); err != nil {
			respondServerError(w, r, err, "Failed to destroy session")
			return
		}
	}
	auth.ClearCookie(w, h.secure)
	redirect(w, r, "/")
}
