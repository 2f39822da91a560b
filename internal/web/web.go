// Package web renders HTML pages and carries flash notices between requests.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/isdelr/socialnet/internal/auth"
	"github.com/isdelr/socialnet/internal/models"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

const flashSession = "flash"

// Flash categories.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
)

var flashCategories = []string{FlashSuccess, FlashWarning}

// Flash is a one-time notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// Page is the context passed to every template.
type Page struct {
	Title     string
	User      *models.User
	Flashes   []Flash
	CSRFField template.HTML
	Errors    map[string]string
	Data      interface{}
}

// Renderer executes the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
	store sessions.Store
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006 at 3:04PM") },
	"day": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(store sessions.Store) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template), store: store}
	for _, name := range []string{"index", "stream", "comments", "friends", "profile"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// NewSessionStore creates the cookie store used for flash notices.
func NewSessionStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// AddFlash queues a notice for the next page the browser renders.
func (r *Renderer) AddFlash(w http.ResponseWriter, req *http.Request, category, message string) {
	session, err := r.store.Get(req, flashSession)
	if err != nil {
		// A stale or tampered cookie yields a fresh session.
		log.Debug().Err(err).Msg("Discarding unreadable flash session")
	}
	session.AddFlash(message, category)
	if err := session.Save(req, w); err != nil {
		log.Error().Err(err).Msg("Failed to save flash session")
	}
}

func (r *Renderer) popFlashes(w http.ResponseWriter, req *http.Request) []Flash {
	session, err := r.store.Get(req, flashSession)
	if err != nil {
		log.Debug().Err(err).Msg("Discarding unreadable flash session")
	}

	var flashes []Flash
	for _, category := range flashCategories {
		for _, msg := range session.Flashes(category) {
			if s, ok := msg.(string); ok {
				flashes = append(flashes, Flash{Category: category, Message: s})
			}
		}
	}
	if len(flashes) > 0 {
		if err := session.Save(req, w); err != nil {
			log.Error().Err(err).Msg("Failed to save flash session")
		}
	}
	return flashes
}

// Render writes the named page with status. The acting user, pending
// flashes and the CSRF field are filled in from the request.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	page.User = auth.CurrentUser(req.Context())
	page.CSRFField = csrf.TemplateField(req)
	page.Flashes = append(r.popFlashes(w, req), page.Flashes...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
