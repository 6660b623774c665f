package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fotoforge/internal/appinfo"
	"fotoforge/internal/editor"
	"fotoforge/internal/projects"
	"fotoforge/pkg/logger"
	"fotoforge/pkg/utils"
)

// SessionView describes an editor session after each operation.
type SessionView struct {
	ID         string         `json:"id"`
	ProjectID  string         `json:"projectId"`
	State      string         `json:"state"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Ratio      string         `json:"ratio"`
	Filters    editor.Filters `json:"filters"`
	PreviewURL string         `json:"previewUrl"`
	Crop       *editor.Rect   `json:"crop,omitempty"`
	Warning    string         `json:"warning,omitempty"`
}

func viewOf(s *editor.Session) SessionView {
	w, h := s.Engine.Dimensions()
	return SessionView{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		State:      s.Engine.State().String(),
		Width:      w,
		Height:     h,
		Ratio:      s.Engine.Ratio().String(),
		Filters:    s.Engine.Filters(),
		PreviewURL: "/api/editor/sessions/" + s.ID + "/preview",
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	s, err := h.Sessions.Get(r.PathValue("sid"), owner(r))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return s, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid request body.")
		return false
	}
	return true
}

// OpenSession starts editing one of the caller's projects. A project image
// that fails to load leaves the session idle with a warning, so a new file
// can still be uploaded into it.
// POST /api/editor/sessions {"project": "<id>"}
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Project projects.ID `json:"project"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	p, err := h.Projects.Get(r.Context(), owner(r), body.Project)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s := h.Sessions.Open(owner(r), string(p.ID))
	warning := ""

	_, _, err = s.Engine.LoadSource(r.Context(), p.DisplaySource())
	var decodeErr *editor.DecodeError
	switch {
	case err == nil, errors.Is(err, editor.ErrNoSource):
	case errors.As(err, &decodeErr):
		appinfo.DecodeFailures.Add(1)
		logger.LogWarn("%v", decodeErr)
		warning = "Erro ao carregar imagem"
	default:
		h.Sessions.Close(s.ID, owner(r))
		writeDomainError(w, err)
		return
	}

	view := viewOf(s)
	view.Warning = warning
	utils.WriteJSON(w, http.StatusCreated, view)
}

// SessionInfo returns the session state.
// GET /api/editor/sessions/{sid}
func (h *Handler) SessionInfo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, viewOf(s))
}

// CloseSession ends the session.
// DELETE /api/editor/sessions/{sid}
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Close(r.PathValue("sid"), owner(r))
	w.WriteHeader(http.StatusNoContent)
}

// UploadSource replaces the session's source with a new file.
// POST /api/editor/sessions/{sid}/upload (multipart: image)
func (h *Handler) UploadSource(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	data, _, ok := h.readImageField(w, r)
	if !ok {
		return
	}

	if _, _, err := s.Engine.LoadBytes(data, "upload"); err != nil {
		writeDomainError(w, err)
		return
	}

	appinfo.Uploads.Add(1)
	utils.WriteJSON(w, http.StatusOK, viewOf(s))
}

// Crop applies a ratio crop to the displayed image.
// POST /api/editor/sessions/{sid}/crop {"ratio": "16:9"}
func (h *Handler) Crop(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Ratio string `json:"ratio"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	ratio, err := editor.ParseRatio(body.Ratio)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rect, err := s.Engine.ApplyCrop(r.Context(), ratio)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	appinfo.Transforms.Add(1)
	view := viewOf(s)
	view.Crop = &rect
	utils.WriteJSON(w, http.StatusOK, view)
}

// Filters applies brightness, contrast and saturation to the displayed image.
// Omitted values stay at 100.
// POST /api/editor/sessions/{sid}/filters
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	f := editor.DefaultFilters()
	if !decodeJSON(w, r, &f) {
		return
	}

	if _, err := s.Engine.ApplyFilters(r.Context(), f); err != nil {
		writeDomainError(w, err)
		return
	}

	appinfo.Transforms.Add(1)
	utils.WriteJSON(w, http.StatusOK, viewOf(s))
}

// Reset shows the original source again.
// POST /api/editor/sessions/{sid}/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, _, err := s.Engine.Reset(); err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, viewOf(s))
}

// Preview serves the displayed image.
// GET /api/editor/sessions/{sid}/preview
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	data, mime := s.Engine.Display()
	if len(data) == 0 {
		writeDomainError(w, editor.ErrNoSource)
		return
	}
	serveWithETag(w, r, data, mime)
}

// Save writes the displayed image back to the project.
// POST /api/editor/sessions/{sid}/save
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	dataURL := s.Engine.DataURL()
	if dataURL == "" {
		writeDomainError(w, editor.ErrNoSource)
		return
	}

	p, err := h.Projects.SaveImage(r.Context(), owner(r), projects.ID(s.ProjectID), dataURL)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	appinfo.Saves.Add(1)
	utils.WriteNotice(w, http.StatusOK, "Alterações salvas", map[string]any{
		"project":     toDTO(p),
		"downloadUrl": "/api/editor/sessions/" + s.ID + "/download",
	})
}

// Download sends the displayed image as a JPEG attachment named after the
// project.
// GET /api/editor/sessions/{sid}/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	data, err := s.Engine.JPEG()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	name := ""
	if p, err := h.Projects.Get(r.Context(), owner(r), projects.ID(s.ProjectID)); err == nil {
		name = p.Name
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, utils.DownloadName(name, s.ProjectID)))
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write(data)
}
