package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/services"
)

type ContentieuxHandler struct {
	db      *gorm.DB
	service *services.ContentieuxService
}

func NewContentieuxHandler(db *gorm.DB, service *services.ContentieuxService) *ContentieuxHandler {
	return &ContentieuxHandler{db: db, service: service}
}

// Create: POST /api/contentieux
func (h *ContentieuxHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	var in services.CreateContentieuxInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	contentieux, err := h.service.Create(r.Context(), user, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contentieux)
}

// List: GET /api/contentieux
func (h *ContentieuxHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	list, err := h.service.List(r.Context(), user)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Get: GET /api/contentieux/{id}
func (h *ContentieuxHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	contentieux, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contentieux)
}

// Update: PATCH /api/contentieux/{id}
func (h *ContentieuxHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in services.UpdateContentieuxInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	contentieux, err := h.service.Update(r.Context(), user, id, in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contentieux)
}

// AddAction: POST /api/contentieux/{id}/actions
func (h *ContentieuxHandler) AddAction(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	contentieux, err := h.service.AddAction(r.Context(), user, id, req.Name, req.Description)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contentieux)
}
