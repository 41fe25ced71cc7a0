package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	applog "hostel-backend/internal/logger"
	"hostel-backend/internal/middleware"
	"hostel-backend/internal/models"
	"hostel-backend/pkg/utils"
)

// AdminAccounts is the identity service behind the auth endpoints.
type AdminAccounts interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Get(ctx context.Context, id int) (*models.Admin, error)
}

// LoginAudit keeps the sign-in history shown to admins.
type LoginAudit interface {
	Record(ctx context.Context, adminID int, ipAddress, userAgent string) error
	ListForAdmin(ctx context.Context, adminID, limit int) ([]*models.LoginLog, error)
}

type AuthHandler struct {
	Service AdminAccounts
	Logins  LoginAudit
}

func NewAuthHandler(s AdminAccounts, logins LoginAudit) *AuthHandler {
	return &AuthHandler{Service: s, Logins: logins}
}

// Signup handles admin registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	authResp, err := h.Service.Signup(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, authResp)
}

// Login handles admin authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}

	// A failed audit write does not fail the login
	if h.Logins != nil {
		if err := h.Logins.Record(r.Context(), authResp.Admin.ID, middleware.ClientIP(r), r.UserAgent()); err != nil {
			applog.FromContext(r.Context()).Warn("login not recorded",
				zap.Int("admin_id", authResp.Admin.ID), zap.Error(err))
		}
	}
	utils.JSON(w, http.StatusOK, authResp)
}

// Me returns the authenticated admin
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := adminID(w, r)
	if !ok {
		return
	}
	admin, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, admin)
}

// ListLogins lists the caller's recent sign-ins
func (h *AuthHandler) ListLogins(w http.ResponseWriter, r *http.Request) {
	id, ok := adminID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		utils.Error(w, apperr.Validation("invalid limit"))
		return
	}
	if limit == 0 || limit > 100 {
		limit = 20
	}

	logs, err := h.Logins.ListForAdmin(r.Context(), id, limit)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if logs == nil {
		logs = []*models.LoginLog{}
	}
	utils.JSON(w, http.StatusOK, logs)
}
