package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/models"
)

// TokenIssuer signs bearer tokens for admins.
type TokenIssuer interface {
	GenerateToken(admin *models.Admin) (string, error)
}

type AdminService struct {
	admins AdminStore
	tokens TokenIssuer
	logger *zap.Logger
}

func NewAdminService(admins AdminStore, tokens TokenIssuer, logger *zap.Logger) *AdminService {
	return &AdminService{admins: admins, tokens: tokens, logger: logger.Named("admins")}
}

func (s *AdminService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	s.logger.Info("admin registered", zap.Int("admin_id", admin.ID))
	return s.issue(admin)
}

func (s *AdminService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	admin, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !auth.VerifyPassword(admin.PasswordHash, req.Password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if !admin.IsActive {
		return nil, apperr.Unauthorized("account is disabled")
	}
	return s.issue(admin)
}

func (s *AdminService) Get(ctx context.Context, id int) (*models.Admin, error) {
	return s.admins.Get(ctx, id)
}

func (s *AdminService) issue(admin *models.Admin) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(admin)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, Admin: admin}, nil
}
