package middleware

import (
	"context"
	"net/http"
	"strings"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/models"
	"hostel-backend/pkg/utils"
)

type contextKey string

const AdminIDKey contextKey = "admin_id"

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AdminLookup loads the admin a token was issued to.
type AdminLookup interface {
	Get(ctx context.Context, id int) (*models.Admin, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
	admins AdminLookup
}

func NewAuthMiddleware(tokens TokenValidator, admins AdminLookup) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		admins: admins,
	}
}

// Authenticate is a middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.ErrorMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorMessage(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			utils.ErrorMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		// Check the account still exists and is active
		admin, err := m.admins.Get(r.Context(), claims.AdminID)
		if err != nil {
			utils.ErrorMessage(w, http.StatusUnauthorized, "admin not found")
			return
		}
		if !admin.IsActive {
			utils.ErrorMessage(w, http.StatusUnauthorized, "account is disabled")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAdminID(r.Context(), admin.ID)))
	})
}

// AdminIDFromContext extracts the authenticated admin id from request context
func AdminIDFromContext(ctx context.Context) (int, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(int)
	return adminID, ok
}

// WithAdminID returns ctx carrying adminID, as Authenticate would.
func WithAdminID(ctx context.Context, adminID int) context.Context {
	return context.WithValue(ctx, AdminIDKey, adminID)
}
