package web

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages are the content templates, each rendered inside the shared layout.
var pages = []string{
	"login.html",
	"dashboard.html",
	"admin_users.html",
	"dossiers_list.html",
	"dossier_create.html",
	"admin_dossiers.html",
}

// Page is the data envelope every template receives.
type Page struct {
	Title string
	User  *model.User
	Flash *Flash
	Data  any
}

// Renderer renders embedded HTML templates.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses the embedded templates once at startup.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = t
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// Render writes the named page. The current identity and any pending flash
// notice are resolved from the request, so handlers only supply page data.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	rn.render(w, r, status, page, title, data, PopFlash(w, r))
}

// RenderWithFlash writes the named page with an explicit notice. Used when a
// form is re-rendered in the same response that produced the notice, where
// the flash cookie would only surface one request later.
func (rn *Renderer) RenderWithFlash(w http.ResponseWriter, r *http.Request, status int, page, title string, data any, flash *Flash) {
	rn.render(w, r, status, page, title, data, flash)
}

func (rn *Renderer) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any, flash *Flash) {
	t, ok := rn.templates[page]
	if !ok {
		rn.logger.Error("unknown template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p := Page{
		Title: title,
		User:  auth.UserFromContext(r.Context()),
		Flash: flash,
		Data:  data,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", p); err != nil {
		rn.logger.Error("render failed", "page", page, "error", err)
	}
}
