package handlers

import (
	"net/http"

	"fotoforge/internal/auth"
	"fotoforge/internal/editor"
	"fotoforge/internal/projects"
	"fotoforge/pkg/logger"
)

type pageData struct {
	AppName   string
	Email     string
	ProjectID string
	Project   string
	Ratios    []editor.Ratio
	Filters   editor.Filters
	Limits    editor.Filters
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	data.AppName = h.Config.App.Name
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		logger.LogError("Failed to render %s: %v", name, err)
	}
}

// LoginPage is the only unprotected page. A logged-in user goes straight to
// the project list.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.Gate.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/projects", http.StatusSeeOther)
		return
	}
	h.render(w, "login.html", pageData{})
}

func (h *Handler) ProjectsPage(w http.ResponseWriter, r *http.Request) {
	s, _ := auth.FromContext(r.Context())
	h.render(w, "projects.html", pageData{Email: s.Email})
}

// EditorPage needs a project id the caller owns; anything else goes back to
// the list.
func (h *Handler) EditorPage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("project")
	p, err := h.Projects.Get(r.Context(), owner(r), projects.ID(id))
	if id == "" || err != nil {
		http.Redirect(w, r, "/projects", http.StatusSeeOther)
		return
	}

	s, _ := auth.FromContext(r.Context())
	h.render(w, "editor.html", pageData{
		Email:     s.Email,
		ProjectID: string(p.ID),
		Project:   p.Name,
		Ratios:    editor.PresetRatios,
		Filters:   editor.DefaultFilters(),
		Limits: editor.Filters{
			Brightness: editor.MaxBrightness,
			Contrast:   editor.MaxContrast,
			Saturate:   editor.MaxSaturate,
		},
	})
}
