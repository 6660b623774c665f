package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotoforge/internal/auth"
	"fotoforge/internal/config"
	"fotoforge/internal/editor"
	"fotoforge/internal/projects"
	"fotoforge/internal/store"
	"fotoforge/pkg/cache"
	"fotoforge/pkg/logger"
	"fotoforge/pkg/utils"
)

type testServer struct {
	t       *testing.T
	h       *Handler
	routes  http.Handler
	store   *store.MemoryStore
	project *projects.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger.SetOutput(&strings.Builder{})
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	cfg := &config.Config{
		App:    config.InConfigAppConfig{Name: "FotoForge", Version: "test"},
		Server: config.ServerConfig{Port: 9990, Env: "test"},
		Image: config.ImageConfig{
			JPEGQuality:   92,
			MaxUploadSize: "1MB",
			AssetsDir:     t.TempDir(),
			ThumbnailSize: 32,
			FetchTimeout:  "1s",
		},
	}

	mem := store.NewMemoryStore()
	c := cache.New(cache.Options{Enabled: true, MaxSizeMB: 8, TTL: time.Minute})
	t.Cleanup(c.Close)

	loader := editor.NewLoader(editor.LoaderOptions{AssetsDir: cfg.Image.AssetsDir, Cache: c})
	repo := projects.NewRepository(mem)

	h, err := New(Deps{
		Config:   cfg,
		Gate:     auth.NewGate(mem),
		Projects: repo,
		Loader:   loader,
		Sessions: editor.NewRegistry(time.Hour, func() *editor.Engine { return editor.NewEngine(loader, 92) }),
		Cache:    c,
	})
	require.NoError(t, err)

	return &testServer{t: t, h: h, routes: h.Routes(), store: mem, project: repo}
}

func (s *testServer) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:40000"
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.routes.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) json(method, path string, v any) *httptest.ResponseRecorder {
	s.t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(method, path, body, "application/json")
}

func (s *testServer) upload(path, name string, data []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		require.NoError(s.t, mw.WriteField("name", name))
	}
	part, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(s.t, err)
	_, err = part.Write(data)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())
	return s.do(http.MethodPost, path, &buf, mw.FormDataContentType())
}

func (s *testServer) login(email string) {
	s.t.Helper()
	creds := map[string]string{"email": email, "password": "segredo123"}
	s.json(http.MethodPost, "/api/auth/register", creds)
	rec := s.json(http.MethodPost, "/api/auth/login", creds)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type notice[T any] struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Data     T      `json:"data"`
}

func TestAPI_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/projects", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.ErrAuthRequired, decode[utils.APIError](t, rec).Code)

	rec = s.do(http.MethodGet, "/projects", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAPI_LoginErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.json(http.MethodPost, "/api/auth/login", map[string]string{"email": "", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrValidationInvalidFormat, decode[utils.APIError](t, rec).Code)

	rec = s.json(http.MethodPost, "/api/auth/login", map[string]string{"email": "ana@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, utils.ErrAuthInvalid, decode[utils.APIError](t, rec).Code)

	s.login("ana@example.com")
	rec = s.json(http.MethodPost, "/api/auth/register", map[string]string{"email": "ANA@example.com", "password": "y"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPages(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/login", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FotoForge")

	s.login("ana@example.com")

	rec = s.do(http.MethodGet, "/login", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/projects", rec.Header().Get("Location"))

	rec = s.do(http.MethodGet, "/projects", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@example.com")
	assert.Contains(t, rec.Body.String(), `{method: "DELETE"}`)

	rec = s.do(http.MethodGet, "/editor?project=missing", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = s.upload("/api/projects", "Praia", pngOf(t, 40, 20))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodGet, "/editor?project="+string(decode[notice[ProjectDTO]](t, rec).Data.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "out.data.downloadUrl")
}

func TestProjects_CreateListRenameDelete(t *testing.T) {
	s := newTestServer(t)
	s.login("ana@example.com")

	rec := s.upload("/api/projects", "Praia", pngOf(t, 40, 20))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[notice[ProjectDTO]](t, rec).Data
	assert.Equal(t, "Praia", created.Name)
	assert.Equal(t, projects.LabelNow, created.LastEdited)
	assert.True(t, created.Edited)

	rec = s.do(http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ProjectDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = s.json(http.MethodPatch, "/api/projects/"+string(created.ID), map[string]string{"name": "Praia 2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Praia 2", decode[notice[ProjectDTO]](t, rec).Data.Name)

	rec = s.do(http.MethodGet, created.ImageURL, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, created.ImageURL, nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	s.routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = s.do(http.MethodDelete, "/api/projects/"+string(created.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.project.ListForOwner(t.Context(), projects.Owner("ana@example.com")))
}

func TestProjects_RejectsBadUploads(t *testing.T) {
	s := newTestServer(t)
	s.login("ana@example.com")

	rec := s.upload("/api/projects", "", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = s.upload("/api/projects", "", bytes.Repeat([]byte{0xFF}, 3<<19))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Empty(t, s.project.ListForOwner(t.Context(), projects.Owner("ana@example.com")))
}

func TestProjects_ThumbnailFallsBackToPlaceholder(t *testing.T) {
	s := newTestServer(t)
	s.login("ana@example.com")

	owner := projects.Owner("ana@example.com")
	require.NoError(t, s.project.UpsertAll(t.Context(), owner, []projects.Project{
		{ID: "7", Name: "Sem arquivo", ImageURL: "/randomImages/missing.jpg", LastEdited: "2 dias atrás", Owner: owner},
	}))

	rec := s.do(http.MethodGet, "/api/projects/7/thumbnail?size=48", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	img, err := jpeg.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 48, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	items, _ := s.h.Cache.Stats()
	assert.Equal(t, 1, items)
}

func TestProjects_OtherOwnersAreInvisible(t *testing.T) {
	s := newTestServer(t)
	bob := projects.Owner("bob@example.com")
	require.NoError(t, s.project.UpsertAll(t.Context(), bob, []projects.Project{
		{ID: "1", Name: "Do Bob", ImageURL: "/x.jpg", Owner: bob},
	}))

	s.login("ana@example.com")

	rec := s.do(http.MethodGet, "/api/projects/1/image", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, utils.ErrResourceNotFound, decode[utils.APIError](t, rec).Code)

	rec = s.json(http.MethodPost, "/api/editor/sessions", map[string]string{"project": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditor_CropFilterSaveDownload(t *testing.T) {
	s := newTestServer(t)
	s.login("ana@example.com")

	rec := s.upload("/api/projects", "Retrato", pngOf(t, 160, 90))
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[notice[ProjectDTO]](t, rec).Data

	rec = s.json(http.MethodPost, "/api/editor/sessions", map[string]any{"project": project.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[SessionView](t, rec)
	assert.Equal(t, "loaded", view.State)
	assert.Equal(t, 160, view.Width)
	assert.Empty(t, view.Warning)

	base := "/api/editor/sessions/" + view.ID

	rec = s.json(http.MethodPost, base+"/crop", map[string]string{"ratio": "1:1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[SessionView](t, rec)
	assert.Equal(t, "cropped", view.State)
	assert.Equal(t, &editor.Rect{X: 35, Y: 0, W: 90, H: 90}, view.Crop)
	assert.Equal(t, 90, view.Width)
	assert.Equal(t, 90, view.Height)

	rec = s.json(http.MethodPost, base+"/filters", map[string]int{"brightness": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[SessionView](t, rec)
	assert.Equal(t, "filtered", view.State)
	assert.Equal(t, editor.Filters{Brightness: 150, Contrast: 100, Saturate: 100}, view.Filters)

	rec = s.do(http.MethodGet, base+"/preview", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	rec = s.json(http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := s.project.Get(t.Context(), projects.Owner("ana@example.com"), project.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.ImageData, "data:image/jpeg;base64,"))

	rec = s.do(http.MethodGet, base+"/download", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Retrato.jpg"`, rec.Header().Get("Content-Disposition"))
	cfg, err := jpeg.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Width)

	rec = s.json(http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[SessionView](t, rec)
	assert.Equal(t, "loaded", view.State)
	assert.Equal(t, 160, view.Width)
}

func TestEditor_InvalidRatioAndIdleSession(t *testing.T) {
	s := newTestServer(t)
	s.login("ana@example.com")

	owner := projects.Owner("ana@example.com")
	require.NoError(t, s.project.UpsertAll(t.Context(), owner, []projects.Project{
		{ID: "3", Name: "Vazio", Owner: owner},
		{ID: "4", Name: "Quebrado", ImageData: "data:image/png;base64,AAAA", Owner: owner},
	}))

	rec := s.json(http.MethodPost, "/api/editor/sessions", map[string]string{"project": "3"})
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode[SessionView](t, rec)
	assert.Equal(t, "idle", view.State)

	base := "/api/editor/sessions/" + view.ID
	rec = s.json(http.MethodPost, base+"/crop", map[string]string{"ratio": "0:3"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.json(http.MethodPost, base+"/crop", map[string]string{"ratio": "1:1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, utils.ErrImageNoSource, decode[utils.APIError](t, rec).Code)

	rec = s.do(http.MethodPost, base+"/upload", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.upload(base+"/upload", "", pngOf(t, 20, 10))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "loaded", decode[SessionView](t, rec).State)

	rec = s.json(http.MethodPost, "/api/editor/sessions", map[string]string{"project": "4"})
	require.Equal(t, http.StatusCreated, rec.Code)
	broken := decode[SessionView](t, rec)
	assert.Equal(t, "idle", broken.State)
	assert.Equal(t, "Erro ao carregar imagem", broken.Warning)
}

func TestEditor_LogoutClosesSessions(t *testing.T) {
	s := newTestServer(t)
	s.login("ana@example.com")

	rec := s.upload("/api/projects", "", pngOf(t, 10, 10))
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[notice[ProjectDTO]](t, rec).Data

	rec = s.json(http.MethodPost, "/api/editor/sessions", map[string]any{"project": project.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, s.h.Sessions.Len())

	rec = s.json(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.h.Sessions.Len())

	rec = s.do(http.MethodGet, "/api/projects", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndBackup(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[healthDTO](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)
	require.NotNil(t, health.Cache)

	s.login("ana@example.com")
	rec = s.do(http.MethodGet, "/api/backup", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_UnknownEndpointIsJSON(t *testing.T) {
	s := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := s.do(method, "/api/does-not-exist", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, utils.ErrRequestNotFound, decode[utils.APIError](t, rec).Code)
	}
}

func TestWriteDomainError_ProcessingFailure(t *testing.T) {
	logger.SetOutput(&strings.Builder{})
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	rec := httptest.NewRecorder()
	writeDomainError(rec, fmt.Errorf("crop output: %w", editor.ErrProcessing))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, utils.ErrImageProcessingFailed, decode[utils.APIError](t, rec).Code)
}

func TestEditor_OversizedRatioIsRejected(t *testing.T) {
	s := newTestServer(t)
	s.login("ana@example.com")

	owner := projects.Owner("ana@example.com")
	require.NoError(t, s.project.UpsertAll(t.Context(), owner, []projects.Project{{ID: "7", Name: "Largo", Owner: owner}}))

	rec := s.json(http.MethodPost, "/api/editor/sessions", map[string]string{"project": "7"})
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/api/editor/sessions/" + decode[SessionView](t, rec).ID

	rec = s.upload(base+"/upload", "", pngOf(t, 100, 100))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, ratio := range []string{"9223372036854775807:1", "1:10001"} {
		rec = s.json(http.MethodPost, base+"/crop", map[string]string{"ratio": ratio})
		assert.Equal(t, http.StatusBadRequest, rec.Code, ratio)
		assert.Equal(t, utils.ErrRequestInvalid, decode[utils.APIError](t, rec).Code)
	}

	rec = s.json(http.MethodPost, base+"/crop", map[string]string{"ratio": "10000:1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[SessionView](t, rec)
	require.NotNil(t, view.Crop)
	assert.Equal(t, editor.Rect{X: 0, Y: 50, W: 100, H: 1}, *view.Crop)
}
