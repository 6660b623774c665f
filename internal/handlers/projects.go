package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fotoforge/internal/appinfo"
	"fotoforge/internal/editor"
	"fotoforge/internal/projects"
	"fotoforge/pkg/utils"
)

// ProjectDTO is the card shown on the project list. Image payloads are
// served by their own endpoints.
type ProjectDTO struct {
	ID           projects.ID `json:"id"`
	Name         string      `json:"name"`
	LastEdited   string      `json:"lastEdited"`
	Edited       bool        `json:"edited"`
	ImageURL     string      `json:"imageUrl"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	EditorURL    string      `json:"editorUrl"`
}

func toDTO(p projects.Project) ProjectDTO {
	base := "/api/projects/" + string(p.ID)
	return ProjectDTO{
		ID:           p.ID,
		Name:         p.Name,
		LastEdited:   p.LastEdited,
		Edited:       p.ImageData != "",
		ImageURL:     base + "/image",
		ThumbnailURL: base + "/thumbnail",
		EditorURL:    "/editor?project=" + string(p.ID),
	}
}

// ListProjects returns the caller's projects, newest first.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	list := h.Projects.ListForOwner(r.Context(), owner(r))

	out := make([]ProjectDTO, 0, len(list))
	for _, p := range list {
		out = append(out, toDTO(p))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// CreateProject stores an uploaded image as a new project.
// POST /api/projects (multipart: image, optional name)
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	data, mime, ok := h.readImageField(w, r)
	if !ok {
		return
	}

	if _, err := editor.DecodeBytes(data, "upload"); err != nil {
		writeDomainError(w, err)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	p, err := h.Projects.Create(r.Context(), owner(r), name, editor.EncodeDataURL(mime, data))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	appinfo.Uploads.Add(1)
	utils.WriteNotice(w, http.StatusCreated, "Projeto criado", toDTO(p))
}

// RenameProject changes a project's display name.
// PATCH /api/projects/{id}
func (h *Handler) RenameProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "A non-empty 'name' is required.")
		return
	}

	p, err := h.Projects.Rename(r.Context(), owner(r), projects.ID(r.PathValue("id")), strings.TrimSpace(body.Name))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteNotice(w, http.StatusOK, "Projeto renomeado", toDTO(p))
}

// DeleteProject removes one of the caller's projects. Unknown ids are a no-op.
// DELETE /api/projects/{id}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Projects.DeleteOne(r.Context(), owner(r), projects.ID(r.PathValue("id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	utils.WriteNotice(w, http.StatusOK, "Projeto removido", nil)
}

// ProjectImage serves the project's full image.
// GET /api/projects/{id}/image
func (h *Handler) ProjectImage(w http.ResponseWriter, r *http.Request) {
	p, err := h.Projects.Get(r.Context(), owner(r), projects.ID(r.PathValue("id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	decoded, err := h.Loader.Load(r.Context(), p.DisplaySource())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	serveWithETag(w, r, decoded.Data, decoded.MIME)
}

// ProjectThumbnail serves a square preview, or a placeholder when the image
// cannot be loaded.
// GET /api/projects/{id}/thumbnail
func (h *Handler) ProjectThumbnail(w http.ResponseWriter, r *http.Request) {
	p, err := h.Projects.Get(r.Context(), owner(r), projects.ID(r.PathValue("id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	src := p.DisplaySource()
	size := utils.ParseInt(r.URL.Query().Get("size"), h.Config.Image.ThumbnailSize, 16, 1024)
	key := thumbnailKey(src, p.Name, size)

	if h.Cache != nil {
		if data, ok := h.Cache.Get(key); ok {
			serveWithETag(w, r, data, "image/jpeg")
			return
		}
	}

	data, err := h.Loader.Thumbnail(r.Context(), src, p.Name, size, h.Config.Image.JPEGQuality)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if h.Cache != nil {
		h.Cache.Set(key, data)
	}
	serveWithETag(w, r, data, "image/jpeg")
}

// thumbnailKey changes whenever the source or the placeholder inputs change.
func thumbnailKey(src, name string, size int) string {
	sum := sha256.Sum256([]byte(src + "\x00" + name))
	return "thumb:" + hex.EncodeToString(sum[:12]) + ":" + strconv.Itoa(size)
}

// readImageField reads the "image" multipart field within the upload limit
// and checks that it is an accepted image type.
func (h *Handler) readImageField(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, utils.ErrRequestBodyTooLarge,
				fmt.Sprintf("File exceeds %s limit.", utils.FormatBytes(h.maxUpload)))
			return nil, "", false
		}
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Expected a multipart form.")
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Missing 'image' file field.")
		return nil, "", false
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		utils.WriteError(w, http.StatusRequestEntityTooLarge, utils.ErrRequestBodyTooLarge,
			fmt.Sprintf("File exceeds %s limit.", utils.FormatBytes(h.maxUpload)))
		return nil, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Failed to read file.")
		return nil, "", false
	}
	if len(data) == 0 {
		utils.WriteError(w, http.StatusUnprocessableEntity, utils.ErrImageNoSource, "Arquivo vazio")
		return nil, "", false
	}

	mime, ok := utils.DetectImageType(data)
	if !ok {
		utils.WriteError(w, http.StatusUnsupportedMediaType, utils.ErrRequestUnSupportedMedia, "Unsupported file type.")
		return nil, "", false
	}
	return data, mime, true
}
