package handlers

import (
	"encoding/json"
	"net/http"

	"fotoforge/internal/auth"
	"fotoforge/internal/projects"
	"fotoforge/pkg/logger"
	"fotoforge/pkg/utils"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var creds credentials
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid request body.")
		return creds, false
	}
	return creds, true
}

// Register creates an account.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if err := h.Gate.Register(r.Context(), creds.Email, creds.Password); err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteNotice(w, http.StatusCreated, "Conta criada com sucesso", nil)
}

// Login stores the session pointer.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	s, err := h.Gate.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteNotice(w, http.StatusOK, "Logado com sucesso", map[string]string{
		"email":    s.Email,
		"redirect": "/projects",
	})
}

// Logout clears the session pointer and closes the user's editor sessions.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, err := h.Gate.Current(r.Context()); err == nil {
		if n := h.Sessions.CloseOwner(projects.Owner(s.Email)); n > 0 {
			logger.LogInfo("Closed %d editor sessions on logout", n)
		}
	}

	if err := h.Gate.Logout(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteNotice(w, http.StatusOK, "Sessão encerrada", map[string]string{"redirect": "/login"})
}

// Me returns the logged-in user.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, _ := auth.FromContext(r.Context())
	utils.WriteJSON(w, http.StatusOK, s)
}
