package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/services"
)

type AuditHandler struct {
	db      *gorm.DB
	service *services.AuditService
}

func NewAuditHandler(db *gorm.DB, service *services.AuditService) *AuditHandler {
	return &AuditHandler{db: db, service: service}
}

// ByDossier: GET /api/dossiers/{id}/audit
func (h *AuditHandler) ByDossier(w http.ResponseWriter, r *http.Request) {
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
	audit, err := h.service.ByDossier(r.Context(), user, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, audit)
}

// Start: POST /api/audits/{id}/start
func (h *AuditHandler) Start(w http.ResponseWriter, r *http.Request) {
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
	audit, err := h.service.Start(r.Context(), user, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, audit)
}

// Finalize: POST /api/audits/{id}/finalize
func (h *AuditHandler) Finalize(w http.ResponseWriter, r *http.Request) {
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
	var in services.FinalizeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	result, err := h.service.Finalize(r.Context(), user, id, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
