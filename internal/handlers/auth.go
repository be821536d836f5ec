package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/praevia/atmp/internal/auth"
	"github.com/praevia/atmp/internal/httpx"
	"github.com/praevia/atmp/internal/models"
)

type AuthHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuthHandler(db *gorm.DB, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, log: log}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Register: POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			map[string]string{"email": "required", "password": "required"})
		return
	}
	role := models.UserRole(req.Role)
	if req.Role == "" {
		role = models.RoleEmployee
	} else if !role.Valid() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"role": "unknown role"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	user := models.User{Email: req.Email, Password: string(hash), Name: req.Name, Role: role}
	if err := h.db.Create(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "email_already_exists", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"detail": "User created", "id": user.ID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTPToken string `json:"otp_token"`
}

// Login: POST /api/auth/login. Accounts with a confirmed TOTP device must
// supply a valid otp_token alongside the credentials before a session is
// established.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_credentials", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_credentials", nil)
		return
	}

	if user.TOTPConfirmed {
		if req.OTPToken == "" {
			httpx.JSON(w, http.StatusBadRequest, map[string]any{"error": "otp_required", "2fa": true})
			return
		}
		if !auth.VerifyCode(user.TOTPSecret, req.OTPToken) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_otp", nil)
			return
		}
	}

	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "role": user.Role})
}

type logoutRequest struct {
	Password string `json:"password"`
}

// Logout: POST /api/auth/logout. Requires the current user's password, as the
// reference flow does.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_credentials", nil)
		return
	}
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "Logged out"})
}

// Profile: GET returns the caller's profile, or every profile for admins;
// POST updates the caller's name. Email and role are immutable here.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	if r.Method == http.MethodGet {
		if user.IsAdmin() {
			var users []models.User
			if err := h.db.Order("id").Find(&users).Error; err != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
				return
			}
			httpx.JSON(w, http.StatusOK, users)
			return
		}
		httpx.JSON(w, http.StatusOK, user)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Name != "" {
		if err := h.db.Model(user).Update("name", req.Name).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, user)
}

// Enroll2FA: POST /api/auth/2fa/enroll generates a TOTP secret and returns
// the provisioning URL. The device does not gate login until confirmed.
func (h *AuthHandler) Enroll2FA(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	secret, url, err := auth.GenerateEnrollment(user.Email)
	if err != nil {
		h.log.Error("totp enrolment failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	updates := map[string]any{"totp_secret": secret, "totp_confirmed": false}
	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"secret": secret, "otpauth_url": url})
}

// Confirm2FA: POST /api/auth/2fa/confirm verifies a first code and arms the
// device.
func (h *AuthHandler) Confirm2FA(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(h.db, r)
	if err != nil {
		respondUserError(w, err)
		return
	}
	var req struct {
		OTPToken string `json:"otp_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if user.TOTPSecret == "" {
		httpx.JSONError(w, http.StatusBadRequest, "not_enrolled", nil)
		return
	}
	if !auth.VerifyCode(user.TOTPSecret, req.OTPToken) {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_otp", nil)
		return
	}
	if err := h.db.Model(user).Update("totp_confirmed", true).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"detail": "2FA enabled"})
}
