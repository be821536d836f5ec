// Package handlers holds the REST adapters: decode, call the service,
// encode. Authorization decisions live in the gate and the services.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/auth"
	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/models"
)

// currentUser resolves the session user id to a full user row. Handlers need
// the role, and re-reading per request means role changes apply immediately.
func currentUser(db *gorm.DB, r *http.Request) (*models.User, error) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return nil, errUnauthorized
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUnauthorized
		}
		return nil, err
	}
	return &user, nil
}

var errUnauthorized = errors.New("unauthorized")

// respondUserError writes 401 for a missing/stale session, 500 otherwise.
func respondUserError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnauthorized) {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}

// pathID parses the {name} path value as an entity id.
func pathID(r *http.Request, name string) (uint, bool) {
	v := r.PathValue(name)
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
