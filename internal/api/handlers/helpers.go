package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/rs/zerolog/log"
)

// respondServerError logs err and answers with a generic 500.
func respondServerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func streamPath(username string) string  { return "/stream/" + url.PathEscape(username) }
func friendsPath(username string) string { return "/friends/" + url.PathEscape(username) }
func profilePath(username string) string { return "/profile/" + url.PathEscape(username) }

// ownPage returns the acting user when the {username} URL parameter names
// them. Otherwise it redirects to the path built for the acting user and
// reports false.
func ownPage(w http.ResponseWriter, r *http.Request, path func(username string) string) (*models.User, bool) {
	user := auth.CurrentUser(r.Context())
	if user == nil {
		redirect(w, r, "/")
		return nil, false
	}
	if chi.URLParam(r, "username") != user.Username {
		redirect(w, r, path(user.Username))
		return nil, false
	}
	return user, true
}

// fieldErrors extracts per-field messages from a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
