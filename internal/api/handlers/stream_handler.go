package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/socialnet/internal/metrics"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/isdelr/socialnet/internal/services"
	"github.com/isdelr/socialnet/internal/uploads"
	"github.com/isdelr/socialnet/internal/web"
	ws "github.com/isdelr/socialnet/internal/websocket"
	"github.com/rs/zerolog/log"
)

// ImageStore persists images attached to posts.
type ImageStore interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(ref string) error
}

// Notifier pushes a message to the live connections of some users.
type Notifier interface {
	BroadcastTo(userIDs []int64, message []byte) bool
}

// StreamHandler serves a user's stream and accepts new posts.
type StreamHandler struct {
	posts  services.PostServiceProvider
	stream services.StreamServiceProvider
	images ImageStore
	notify Notifier
	pages  *web.Renderer
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(posts services.PostServiceProvider, stream services.StreamServiceProvider, images ImageStore, notify Notifier, pages *web.Renderer) *StreamHandler {
	return &StreamHandler{posts: posts, stream: stream, images: images, notify: notify, pages: pages}
}

// Show renders the acting user's stream.
func (h *StreamHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := ownPage(w, r, streamPath)
	if !ok {
		return
	}
	h.render(w, r, user, http.StatusOK, "", nil)
}

func (h *StreamHandler) render(w http.ResponseWriter, r *http.Request, user *models.User, status int, content string, fields map[string]string) {
	entries, err := h.stream.GetStream(r.Context(), user.ID)
	if err != nil {
		respondServerError(w, r, err, "Failed to load stream")
		return
	}
	h.pages.Render(w, r, status, "stream", web.Page{
		Title:  "Stream",
		Errors: fields,
		Data:   web.StreamData{Username: user.Username, Entries: entries, Content: content},
	})
}

// Create publishes a post with an optional image.
func (h *StreamHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := ownPage(w, r, streamPath)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.render(w, r, user, http.StatusRequestEntityTooLarge, "", map[string]string{"image": uploads.ErrTooLarge.Error()})
			return
		}
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	content := r.FormValue("content")
	if err := services.ValidateContent(content); err != nil {
		metrics.RecordAction(metrics.ActionPost, false)
		if fields, ok := fieldErrors(err); ok {
			h.render(w, r, user, http.StatusUnprocessableEntity, content, fields)
			return
		}
		respondServerError(w, r, err, "Failed to validate post")
		return
	}

	image, status, msg := h.saveImage(r)
	if msg != "" {
		metrics.RecordAction(metrics.ActionPost, false)
		h.render(w, r, user, status, content, map[string]string{"image": msg})
		return
	}
	if status == http.StatusInternalServerError {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), user.ID, content, image)
	if err != nil {
		metrics.RecordAction(metrics.ActionPost, false)
		if image != "" {
			if rmErr := h.images.Remove(image); rmErr != nil {
				log.Warn().Err(rmErr).Str("image", image).Msg("Failed to remove orphaned upload")
			}
		}
		if fields, ok := fieldErrors(err); ok {
			h.render(w, r, user, http.StatusUnprocessableEntity, content, fields)
			return
		}
		respondServerError(w, r, err, "Failed to create post")
		return
	}

	metrics.RecordAction(metrics.ActionPost, true)
	h.announce(r.Context(), user, post)
	redirect(w, r, streamPath(user.Username))
}

// saveImage stores the optional "image" file. A non-empty msg is a
// user-facing problem reported with status; a 500 status with no msg has
// already been logged.
func (h *StreamHandler) saveImage(r *http.Request) (ref string, status int, msg string) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", http.StatusOK, ""
	}
	if err != nil {
		return "", http.StatusBadRequest, "Could not read the uploaded image"
	}
	defer file.Close()

	if header.Filename == "" {
		return "", http.StatusOK, ""
	}

	ref, err = h.images.Save(header.Filename, file)
	switch {
	case err == nil:
		return ref, http.StatusOK, ""
	case errors.Is(err, uploads.ErrUnsupportedType), errors.Is(err, uploads.ErrTooLarge):
		return "", http.StatusUnprocessableEntity, err.Error()
	default:
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to store upload")
		return "", http.StatusInternalServerError, ""
	}
}

// announce pushes the new post to the author's and friends' live
// connections. Failures only cost the live update.
func (h *StreamHandler) announce(ctx context.Context, author *models.User, post models.Post) {
	if h.notify == nil {
		return
	}
	audience, err := h.stream.Audience(ctx, author.ID)
	if err != nil {
		log.Warn().Err(err).Int64("post_id", post.ID).Msg("Failed to resolve post audience")
		return
	}

	entry := models.StreamEntry{
		Post: post,
		Author: models.Author{
			ID:        author.ID,
			Username:  author.Username,
			FirstName: author.FirstName,
			LastName:  author.LastName,
		},
	}
	if !h.notify.BroadcastTo(audience, ws.Encode(ws.ActionStreamPost, entry)) {
		log.Warn().Int64("post_id", post.ID).Msg("Notification queue full, dropping live update")
	}
}
