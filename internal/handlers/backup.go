package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fotoforge/internal/database"
	"fotoforge/pkg/logger"
	"fotoforge/pkg/utils"
)

// Backup streams a point-in-time snapshot of the local database.
// GET /api/backup
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, utils.ErrServerInternal, "Backups need a database-backed store.")
		return
	}

	// One snapshot at a time.
	if !h.backupMu.TryLock() {
		utils.WriteError(w, http.StatusTooManyRequests, utils.ErrBackupConcurrencyLimit, "Another backup is currently in progress.")
		return
	}
	defer h.backupMu.Unlock()

	filename := fmt.Sprintf("fotoforge_%s.db", time.Now().Format("2006-01-02_15-04-05"))
	tempPath := filepath.Join(os.TempDir(), filename)

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := database.Snapshot(ctx, h.DB, tempPath); err != nil {
		logger.LogError("Backup failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Internal database snapshot failed.")
		return
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			logger.LogWarn("Failed to remove backup file %s: %v", tempPath, err)
		}
	}()

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	w.Header().Set("Content-Type", "application/x-sqlite3")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

	http.ServeFile(w, r, tempPath)
}
