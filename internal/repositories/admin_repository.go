package repositories

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
)

type AdminRepository struct {
	DB *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{DB: db}
}

func (r *AdminRepository) Create(ctx context.Context, a *models.Admin) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	err := r.DB.QueryRow(ctx,
		`INSERT INTO admins(name, email, phone, password_hash, is_active)
         VALUES($1, $2, $3, $4, TRUE)
         RETURNING id, is_active, created_at, updated_at`,
		a.Name, a.Email, a.Phone, a.PasswordHash,
	).Scan(&a.ID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Validation("email %s is already registered", a.Email)
	}
	if err != nil {
		return apperr.Dependency("create admin", err)
	}
	return nil
}

func (r *AdminRepository) Get(ctx context.Context, id int) (*models.Admin, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, phone, password_hash, is_active, created_at, updated_at
         FROM admins WHERE id=$1`, id)
	return scanAdmin(row)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, email, phone, password_hash, is_active, created_at, updated_at
         FROM admins WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))
	return scanAdmin(row)
}

func scanAdmin(row rowScanner) (*models.Admin, error) {
	var a models.Admin
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if isNoRows(err) {
		return nil, apperr.NotFound("admin not found")
	}
	if err != nil {
		return nil, apperr.Dependency("load admin", err)
	}
	return &a, nil
}
