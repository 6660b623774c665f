// Package handlers is the HTTP surface of the editor: the three pages and the
// JSON API behind them.
package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"gorm.io/gorm"

	"fotoforge"
	"fotoforge/internal/appinfo"
	"fotoforge/internal/auth"
	"fotoforge/internal/config"
	"fotoforge/internal/editor"
	"fotoforge/internal/middleware"
	"fotoforge/internal/projects"
	"fotoforge/pkg/cache"
	"fotoforge/pkg/logger"
	"fotoforge/pkg/utils"
)

const DefaultMaxUploadSize = 10 << 20

// Deps are the collaborators of every handler. DB may be nil when serving
// from an in-memory store; backups are unavailable then.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Gate     *auth.Gate
	Projects *projects.Repository
	Loader   *editor.Loader
	Sessions *editor.Registry
	Cache    *cache.MemoryCache
}

type Handler struct {
	Deps

	pages        *template.Template
	loginLimiter *middleware.RateLimiter
	apiLimiter   *middleware.RateLimiter
	maxUpload    int64
	backupMu     sync.Mutex
}

func New(d Deps) (*Handler, error) {
	pages, err := template.ParseFS(fotoforge.WebTemplates, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}

	sec := d.Config.Security
	return &Handler{
		Deps:         d,
		pages:        pages,
		loginLimiter: middleware.NewRateLimiter(sec.LoginRateLimit, utils.ErrAuthRateLimitExceed, "Too many login attempts. Please wait."),
		apiLimiter:   middleware.NewRateLimiter(sec.RateLimit, utils.ErrRequestRateLimitExceeded, "Too many requests. Please wait a moment."),
		maxUpload:    utils.SizeToBytes(d.Config.Image.MaxUploadSize, DefaultMaxUploadSize),
	}, nil
}

// Limiters exposes the rate limiters so the server can run their cleanup.
func (h *Handler) Limiters() []*middleware.RateLimiter {
	return []*middleware.RateLimiter{h.loginLimiter, h.apiLimiter}
}

// Routes wires every page and API endpoint.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	protect := func(fn http.HandlerFunc) http.Handler {
		return h.Gate.RequireAuthOrRedirect("/login", fn)
	}

	// Pages
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/projects", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /login", h.LoginPage)
	mux.Handle("GET /projects", protect(h.ProjectsPage))
	mux.Handle("GET /editor", protect(h.EditorPage))

	// Static project images referenced by site-relative URLs
	mux.Handle("GET /", http.FileServer(http.Dir(h.Config.Image.AssetsDir)))

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.Handle("POST /api/auth/login", h.loginLimiter.Middleware(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.Handle("GET /api/auth/me", protect(h.Me))

	// Projects
	mux.Handle("GET /api/projects", protect(h.ListProjects))
	mux.Handle("POST /api/projects", protect(h.CreateProject))
	mux.Handle("PATCH /api/projects/{id}", protect(h.RenameProject))
	mux.Handle("DELETE /api/projects/{id}", protect(h.DeleteProject))
	mux.Handle("GET /api/projects/{id}/image", protect(h.ProjectImage))
	mux.Handle("GET /api/projects/{id}/thumbnail", protect(h.ProjectThumbnail))

	// Editor sessions
	mux.Handle("POST /api/editor/sessions", protect(h.OpenSession))
	mux.Handle("GET /api/editor/sessions/{sid}", protect(h.SessionInfo))
	mux.Handle("DELETE /api/editor/sessions/{sid}", protect(h.CloseSession))
	mux.Handle("POST /api/editor/sessions/{sid}/upload", protect(h.UploadSource))
	mux.Handle("POST /api/editor/sessions/{sid}/crop", protect(h.Crop))
	mux.Handle("POST /api/editor/sessions/{sid}/filters", protect(h.Filters))
	mux.Handle("POST /api/editor/sessions/{sid}/reset", protect(h.Reset))
	mux.Handle("GET /api/editor/sessions/{sid}/preview", protect(h.Preview))
	mux.Handle("POST /api/editor/sessions/{sid}/save", protect(h.Save))
	mux.Handle("GET /api/editor/sessions/{sid}/download", protect(h.Download))

	// Unknown API paths answer JSON instead of falling through to the asset server.
	for _, method := range []string{"GET", "POST", "PATCH", "DELETE"} {
		mux.HandleFunc(method+" /api/", apiNotFound)
	}

	// Maintenance
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /api/backup", protect(h.Backup))

	return h.apiLimiter.Middleware(middleware.CORS(h.Config.Security.CorsOrigins)(middleware.LoggerMiddleware(mux)))
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, http.StatusNotFound, utils.ErrRequestNotFound, "Endpoint not found.")
}

// owner is the project scope of the request's session.
func owner(r *http.Request) *string {
	s, ok := auth.FromContext(r.Context())
	if !ok {
		return nil
	}
	return projects.Owner(s.Email)
}

// writeDomainError maps an error to its API envelope. Every failure is a
// notification; none is fatal.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *auth.ValidationError
		decodeErr     *editor.DecodeError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.WriteError(w, http.StatusBadRequest, utils.ErrValidationInvalidFormat, "Preencha email e senha: "+validationErr.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		utils.WriteError(w, http.StatusUnauthorized, utils.ErrAuthInvalid, "Erro ao entrar: credenciais inválidas")
	case errors.Is(err, auth.ErrUserExists):
		utils.WriteError(w, http.StatusConflict, utils.ErrAuthUserExists, "Usuário já cadastrado")
	case errors.Is(err, auth.ErrNotAuthenticated):
		utils.WriteError(w, http.StatusUnauthorized, utils.ErrAuthRequired, "Session expired or invalid.")
	case errors.Is(err, projects.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.ErrResourceNotFound, "Projeto não encontrado")
	case errors.Is(err, editor.ErrSessionNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.ErrResourceNotFound, "Sessão de edição não encontrada")
	case errors.As(err, &decodeErr):
		appinfo.DecodeFailures.Add(1)
		logger.LogWarn("%v", decodeErr)
		utils.WriteError(w, http.StatusUnprocessableEntity, utils.ErrImageDecodeFailed, "Erro ao carregar imagem")
	case errors.Is(err, editor.ErrNoSource):
		utils.WriteError(w, http.StatusUnprocessableEntity, utils.ErrImageNoSource, "Nenhuma imagem carregada")
	case errors.Is(err, editor.ErrProcessing):
		logger.LogError("Image processing failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrImageProcessingFailed, "Erro ao processar imagem")
	case errors.Is(err, editor.ErrInvalidRatio):
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, err.Error())
	default:
		logger.LogError("Request failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Internal server error.")
	}
}
