package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/services"
)

type DossierHandler struct {
	db      *gorm.DB
	service *services.DossierService
}

func NewDossierHandler(db *gorm.DB, service *services.DossierService) *DossierHandler {
	return &DossierHandler{db: db, service: service}
}

// Create: POST /api/dossiers
func (h *DossierHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	var in services.DeclarationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	dossier, err := h.service.Create(r.Context(), user, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dossier)
}

// List: GET /api/dossiers
func (h *DossierHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	dossiers, err := h.service.List(r.Context(), user)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dossiers)
}

// Get: GET /api/dossiers/{id}
func (h *DossierHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	dossier, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dossier)
}

// Update: PATCH /api/dossiers/{id}
func (h *DossierHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in services.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	dossier, err := h.service.Update(r.Context(), user, id, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dossier)
}

// Delete: DELETE /api/dossiers/{id}
func (h *DossierHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
