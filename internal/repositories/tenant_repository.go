package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/timeutil"
)

type TenantRepository struct {
	DB *pgxpool.Pool
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{DB: db}
}

// Tenants are always read with their room joined.
const tenantSelect = `
	SELECT t.id, t.admin_id, t.name, t.phone, t.email, t.room_id, t.joining_date, t.payment_period,
	       t.active, t.id_document_key, t.created_at, t.updated_at,
	       r.id, r.room_number, r.floor, r.type, r.capacity, r.occupied_beds, r.rent
	FROM tenants t
	LEFT JOIN rooms r ON r.id = t.room_id`

func (r *TenantRepository) Create(ctx context.Context, t *models.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO tenants(id, admin_id, name, phone, email, room_id, joining_date, payment_period, active)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING created_at, updated_at`,
		t.ID, t.AdminID, t.Name, t.Phone, t.Email, t.RoomID, t.JoiningDate, t.PaymentPeriod, t.Active,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return apperr.Dependency("create tenant", err)
	}
	return nil
}

// Get loads a tenant owned by adminID.
func (r *TenantRepository) Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Tenant, error) {
	t, err := scanTenant(r.DB.QueryRow(ctx, tenantSelect+` WHERE t.id=$1`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("tenant %s not found", id)
	}
	if err != nil {
		return nil, apperr.Dependency("load tenant", err)
	}
	if t.AdminID != adminID {
		return nil, apperr.Unauthorized("tenant %s belongs to another admin", id)
	}
	return t, nil
}

func (r *TenantRepository) List(ctx context.Context, adminID int) ([]*models.Tenant, error) {
	return r.query(ctx, "list tenants", tenantSelect+` WHERE t.admin_id=$1 ORDER BY t.name`, adminID)
}

// ListBillable returns active tenants of every admin that have a room and
// a joining date. Used by scheduled jobs only.
func (r *TenantRepository) ListBillable(ctx context.Context) ([]*models.Tenant, error) {
	return r.query(ctx, "list billable tenants", tenantSelect+`
	WHERE t.active AND t.room_id IS NOT NULL AND t.joining_date IS NOT NULL
	ORDER BY t.admin_id, t.created_at`)
}

// ListBillableByAdmin is ListBillable restricted to one admin.
func (r *TenantRepository) ListBillableByAdmin(ctx context.Context, adminID int) ([]*models.Tenant, error) {
	return r.query(ctx, "list billable tenants", tenantSelect+`
	WHERE t.admin_id=$1 AND t.active AND t.room_id IS NOT NULL AND t.joining_date IS NOT NULL
	ORDER BY t.created_at`, adminID)
}

func (r *TenantRepository) Update(ctx context.Context, adminID int, t *models.Tenant) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE tenants SET name=$3, phone=$4, email=$5, room_id=$6, joining_date=$7,
                payment_period=$8, active=$9, updated_at=NOW()
         WHERE id=$1 AND admin_id=$2`,
		t.ID, adminID, t.Name, t.Phone, t.Email, t.RoomID, t.JoiningDate, t.PaymentPeriod, t.Active)
	if err != nil {
		return apperr.Dependency("update tenant", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant %s not found", t.ID)
	}
	return nil
}

func (r *TenantRepository) Delete(ctx context.Context, adminID int, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM tenants WHERE id=$1 AND admin_id=$2`, id, adminID)
	if err != nil {
		return apperr.Dependency("delete tenant", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant %s not found", id)
	}
	return nil
}

func (r *TenantRepository) SetDocumentKey(ctx context.Context, adminID int, id uuid.UUID, key string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE tenants SET id_document_key=$3, updated_at=NOW() WHERE id=$1 AND admin_id=$2`,
		id, adminID, key)
	if err != nil {
		return apperr.Dependency("store document key", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant %s not found", id)
	}
	return nil
}

func (r *TenantRepository) query(ctx context.Context, op, sql string, args ...any) ([]*models.Tenant, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	defer rows.Close()

	tenants := []*models.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, apperr.Dependency(op, err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return tenants, nil
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		t        models.Tenant
		joining  *time.Time
		roomID   *uuid.UUID
		number   *string
		floor    *int
		roomType *string
		capacity *int
		occupied *int
		rent     decimal.NullDecimal
	)
	err := row.Scan(&t.ID, &t.AdminID, &t.Name, &t.Phone, &t.Email, &t.RoomID, &joining, &t.PaymentPeriod,
		&t.Active, &t.IDDocumentKey, &t.CreatedAt, &t.UpdatedAt,
		&roomID, &number, &floor, &roomType, &capacity, &occupied, &rent)
	if err != nil {
		return nil, err
	}
	if joining != nil {
		d := timeutil.DateOf(*joining)
		t.JoiningDate = &d
	}
	if roomID != nil {
		t.Room = &models.Room{
			ID:           *roomID,
			AdminID:      t.AdminID,
			RoomNumber:   deref(number),
			Floor:        deref(floor),
			Type:         deref(roomType),
			Capacity:     deref(capacity),
			OccupiedBeds: deref(occupied),
			Rent:         rent.Decimal,
		}
	}
	return &t, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
