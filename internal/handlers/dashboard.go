package handlers

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/models"
	"github.com/praevia/atmp/internal/services"
)

type DashboardHandler struct {
	db      *gorm.DB
	service *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB, service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{db: db, service: service}
}

func (h *DashboardHandler) serve(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, *models.User) (map[string]any, error)) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	data, err := fn(r.Context(), user)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

// Juridique: GET /api/dashboard/juridique
func (h *DashboardHandler) Juridique(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.service.Juridique)
}

// RH: GET /api/dashboard/rh
func (h *DashboardHandler) RH(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.service.RH)
}

// QSE: GET /api/dashboard/qse
func (h *DashboardHandler) QSE(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.service.QSE)
}

// Direction: GET /api/dashboard/direction
func (h *DashboardHandler) Direction(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.service.Direction)
}
