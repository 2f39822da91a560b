package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/socialnet/internal/metrics"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/web"
)

// CommentHandler shows a post with its comments and accepts new comments.
type CommentHandler struct {
	posts services.PostServiceProvider
	pages *web.Renderer
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(posts services.PostServiceProvider, pages *web.Renderer) *CommentHandler {
	return &CommentHandler{posts: posts, pages: pages}
}

// commentsPage resolves the acting user and the {postID} parameter. An
// unparseable ID answers 404.
func commentsPage(w http.ResponseWriter, r *http.Request) (*models.User, int64, bool) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || postID <= 0 {
		http.NotFound(w, r)
		return nil, 0, false
	}
	user, ok := ownPage(w, r, func(username string) string {
		return commentsPath(username, postID)
	})
	return user, postID, ok
}

func commentsPath(username string, postID int64) string {
	return fmt.Sprintf("/comments/%s/%d", url.PathEscape(username), postID)
}

// Show renders a post and its comments.
func (h *CommentHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, postID, ok := commentsPage(w, r)
	if !ok {
		return
	}
	h.render(w, r, user, postID, http.StatusOK, nil)
}

func (h *CommentHandler) render(w http.ResponseWriter, r *http.Request, user *models.User, postID int64, status int, fields map[string]string) {
	post, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		h.postError(w, r, user, err)
		return
	}
	comments, err := h.posts.ListComments(r.Context(), postID)
	if err != nil {
		respondServerError(w, r, err, "Failed to list comments")
		return
	}
	h.pages.Render(w, r, status, "comments", web.Page{
		Title:  "Comments",
		Errors: fields,
		Data:   web.CommentsData{Username: user.Username, Post: post, Comments: comments},
	})
}

func (h *CommentHandler) postError(w http.ResponseWriter, r *http.Request, user *models.User, err error) {
	if errors.Is(err, services.ErrNotFound) {
		h.pages.AddFlash(w, r, web.FlashWarning, "This post does not exist.")
		redirect(w, r, streamPath(user.Username))
		return
	}
	respondServerError(w, r, err, "Failed to load post")
}

// Create adds a comment to the post.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, postID, ok := commentsPage(w, r)
	if !ok {
		return
	}

	_, err := h.posts.CreateComment(r.Context(), postID, user.ID, r.PostFormValue("comment"))
	if err != nil {
		metrics.RecordAction(metrics.ActionComment, false)
		if fields, ok := fieldErrors(err); ok {
			h.render(w, r, user, postID, http.StatusUnprocessableEntity, fields)
			return
		}
		h.postError(w, r, user, err)
		return
	}

	metrics.RecordAction(metrics.ActionComment, true)
	redirect(w, r, commentsPath(user.Username, postID))
}
