package handlers

import (
	"net/http"

	"fotoforge/internal/appinfo"
	"fotoforge/pkg/utils"
)

type cacheStats struct {
	Items int    `json:"items"`
	Usage string `json:"usage"`
}

type healthDTO struct {
	Status   string        `json:"status"`
	Version  string        `json:"version"`
	Projects int           `json:"projects"`
	Users    int           `json:"users"`
	Sessions int           `json:"sessions"`
	Cache    *cacheStats   `json:"cache,omitempty"`
	Stats    appinfo.Stats `json:"stats"`
}

// Health reports liveness and counters.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dto := healthDTO{
		Status:   "ok",
		Version:  h.Config.App.Version,
		Projects: h.Projects.Count(r.Context()),
		Users:    h.Gate.UserCount(r.Context()),
		Sessions: h.Sessions.Len(),
		Stats:    appinfo.Snapshot(),
	}

	if h.Cache != nil {
		items, used := h.Cache.Stats()
		dto.Cache = &cacheStats{Items: items, Usage: utils.FormatBytes(used)}
	}

	utils.WriteJSON(w, http.StatusOK, dto)
}
