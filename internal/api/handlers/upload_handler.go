package handlers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ImageLocator opens stored uploads by reference.
type ImageLocator interface {
	Open(ref string) (*os.File, error)
}

// UploadHandler serves stored images.
type UploadHandler struct {
	images ImageLocator
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(images ImageLocator) *UploadHandler {
	return &UploadHandler{images: images}
}

// Serve writes the image named by {filename}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "filename")
	f, err := h.images.Open(ref)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Error().Err(err).Str("ref", ref).Msg("Failed to stat upload")
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, ref, info.ModTime(), f)
}
