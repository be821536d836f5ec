package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/services"
)

type DocumentHandler struct {
	db      *gorm.DB
	service *services.DocumentService
}

func NewDocumentHandler(db *gorm.DB, service *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{db: db, service: service}
}

// Upload: POST /api/documents, multipart/form-data with a "file" part plus
// document_type, description and exactly one of dossier_id/contentieux_id.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	// The multipart parser gets a little headroom over the document ceiling;
	// the service enforces the exact limit on the file itself.
	if err := r.ParseMultipartForm(services.MaxUploadSize + 1<<20); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_multipart", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"file": "required"})
		return
	}
	defer file.Close()

	in := services.UploadInput{
		Type:        r.FormValue("document_type"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		Content:     file,
	}
	if v := r.FormValue("dossier_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"dossier_id": "invalid"})
			return
		}
		did := uint(id)
		in.DossierID = &did
	}
	if v := r.FormValue("contentieux_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"contentieux_id": "invalid"})
			return
		}
		cid := uint(id)
		in.ContentieuxID = &cid
	}

	doc, err := h.service.Upload(r.Context(), user, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

// List: GET /api/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	docs, err := h.service.List(r.Context(), user)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

// Download: GET /api/documents/{id}/download streams the blob with its stored
// MIME type and original name.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	doc, rc, err := h.service.Download(r.Context(), user, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	io.Copy(w, rc)
}

// Delete: DELETE /api/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.service.Delete(r.Context(), user, id); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
