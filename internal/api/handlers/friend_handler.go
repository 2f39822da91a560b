package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/socialnet/internal/metrics"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/web"
	"github.com/rs/zerolog/log"
)

var friendNotices = []struct {
	err error
	msg string
}{
	{services.ErrNotFound, "User does not exist!"},
	{services.ErrSelfFriend, "You cannot be friends with yourself!"},
	{services.ErrAlreadyFriends, "You are already friends with this user!"},
}

// FriendHandler lists and adds friends.
type FriendHandler struct {
	friends services.FriendServiceProvider
	pages   *web.Renderer
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(friends services.FriendServiceProvider, pages *web.Renderer) *FriendHandler {
	return &FriendHandler{friends: friends, pages: pages}
}

// Show renders the acting user's friends.
func (h *FriendHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := ownPage(w, r, friendsPath)
	if !ok {
		return
	}
	h.render(w, r, user, http.StatusOK, nil)
}

func (h *FriendHandler) render(w http.ResponseWriter, r *http.Request, user *models.User, status int, fields map[string]string) {
	friends, err := h.friends.ListFriends(r.Context(), user.ID)
	if err != nil {
		respondServerError(w, r, err, "Failed to list friends")
		return
	}
	h.pages.Render(w, r, status, "friends", web.Page{
		Title:  "Friends",
		Errors: fields,
		Data:   web.FriendsData{Username: user.Username, Friends: friends},
	})
}

// Add befriends the user named in the form.
func (h *FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := ownPage(w, r, friendsPath)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.PostFormValue("username"))
	if name == "" {
		metrics.RecordAction(metrics.ActionFriend, false)
		h.render(w, r, user, http.StatusUnprocessableEntity, map[string]string{"username": "This field is required"})
		return
	}

	friend, err := h.friends.AddFriend(r.Context(), user.ID, name)
	if err != nil {
		metrics.RecordAction(metrics.ActionFriend, false)
		for _, n := range friendNotices {
			if errors.Is(err, n.err) {
				h.pages.AddFlash(w, r, web.FlashWarning, n.msg)
				redirect(w, r, friendsPath(user.Username))
				return
			}
		}
		respondServerError(w, r, err, "Failed to add friend")
		return
	}

	metrics.RecordAction(metrics.ActionFriend, true)
	log.Info().Str("username", user.Username).Str("friend", friend.Username).Msg("Friendship created")
	h.pages.AddFlash(w, r, web.FlashSuccess, "Friend successfully added!")
	redirect(w, r, friendsPath(user.Username))
}
