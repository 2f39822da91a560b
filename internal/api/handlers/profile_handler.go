package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/metrics"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/web"
)

const recentEvents = 10

// ProfileHandler shows profiles and lets users edit their own.
type ProfileHandler struct {
	users  services.UserServiceProvider
	events services.EventServiceProvider
	pages  *web.Renderer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(users services.UserServiceProvider, events services.EventServiceProvider, pages *web.Renderer) *ProfileHandler {
	return &ProfileHandler{users: users, events: events, pages: pages}
}

// Show renders any user's profile. The owner also sees the edit form and
// their recent activity.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	profile, err := h.users.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			h.pages.AddFlash(w, r, web.FlashWarning, "User does not exist!")
			redirect(w, r, profilePath(viewer.Username))
			return
		}
		respondServerError(w, r, err, "Failed to load profile")
		return
	}
	h.render(w, r, viewer, profile, web.ProfileValuesOf(profile), http.StatusOK, nil)
}

func (h *ProfileHandler) render(w http.ResponseWriter, r *http.Request, viewer *models.User, profile models.User, form web.ProfileValues, status int, fields map[string]string) {
	data := web.ProfileData{
		Username: viewer.Username,
		Profile:  profile,
		Editable: profile.ID == viewer.ID,
		Form:     form,
	}
	if data.Editable {
		events, err := h.events.GetEventsForUser(r.Context(), viewer.ID, recentEvents)
		if err != nil {
			respondServerError(w, r, err, "Failed to load activity")
			return
		}
		data.Events = events
	}
	h.pages.Render(w, r, status, "profile", web.Page{Title: "Profile", Errors: fields, Data: data})
}

// Update replaces the acting user's profile attributes.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := ownPage(w, r, profilePath)
	if !ok {
		return
	}

	in := services.ProfileInput{
		Education:   r.PostFormValue("education"),
		Employment:  r.PostFormValue("employment"),
		Music:       r.PostFormValue("music"),
		Movie:       r.PostFormValue("movie"),
		Nationality: r.PostFormValue("nationality"),
		Birthday:    r.PostFormValue("birthday"),
	}
	if _, err := h.users.UpdateProfile(r.Context(), user.ID, in); err != nil {
		metrics.RecordAction(metrics.ActionProfile, false)
		if fields, ok := fieldErrors(err); ok {
			// Keep what was typed; the stored profile is unchanged.
			h.render(w, r, user, *user, web.ProfileValues(in), http.StatusUnprocessableEntity, fields)
			return
		}
		respondServerError(w, r, err, "Failed to update profile")
		return
	}

	metrics.RecordAction(metrics.ActionProfile, true)
	h.pages.AddFlash(w, r, web.FlashSuccess, "Profile updated.")
	redirect(w, r, profilePath(user.Username))
}
