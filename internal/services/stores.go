package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
)

// RentStore persists rent records. Methods taking an admin id only see
// that admin's records; the others are used by system-wide jobs and by
// lookups keyed on a tenant already resolved for an admin.
type RentStore interface {
	Create(ctx context.Context, rec *models.RentRecord) error
	Get(ctx context.Context, adminID int, id uuid.UUID) (*models.RentRecord, error)
	Update(ctx context.Context, adminID int, rec *models.RentRecord) error
	Delete(ctx context.Context, adminID int, id uuid.UUID) error
	DeleteByTenant(ctx context.Context, adminID int, tenantID uuid.UUID) (int64, error)
	List(ctx context.Context, adminID int, filter models.RentFilter) ([]*models.RentRecord, int, error)
	FindLatestForTenant(ctx context.Context, tenantID uuid.UUID) (*models.RentRecord, error)
	FindLatestPaidForTenant(ctx context.Context, tenantID uuid.UUID) (*models.RentRecord, error)
	FindByPeriod(ctx context.Context, tenantID uuid.UUID, key period.Key) (*models.RentRecord, error)
	ListUnpaidDueBefore(ctx context.Context, adminID int, before time.Time) ([]*models.RentRecord, error)
	ListUnpaidDueBetween(ctx context.Context, adminID int, from, to time.Time) ([]*models.RentRecord, error)
	MarkOverdue(ctx context.Context, before time.Time) (int64, error)
}

// TenantStore persists tenants with their room joined.
type TenantStore interface {
	Create(ctx context.Context, t *models.Tenant) error
	Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, adminID int) ([]*models.Tenant, error)
	ListBillable(ctx context.Context) ([]*models.Tenant, error)
	ListBillableByAdmin(ctx context.Context, adminID int) ([]*models.Tenant, error)
	Update(ctx context.Context, adminID int, t *models.Tenant) error
	Delete(ctx context.Context, adminID int, id uuid.UUID) error
	SetDocumentKey(ctx context.Context, adminID int, id uuid.UUID, key string) error
}

// RoomStore persists rooms and their occupancy counters.
type RoomStore interface {
	Create(ctx context.Context, room *models.Room) error
	Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Room, error)
	List(ctx context.Context, adminID int) ([]*models.Room, error)
	Update(ctx context.Context, adminID int, room *models.Room) error
	Delete(ctx context.Context, adminID int, id uuid.UUID) error
	AdjustOccupiedBeds(ctx context.Context, adminID int, roomID uuid.UUID, delta int) error
}

// AdminStore persists admin accounts.
type AdminStore interface {
	Create(ctx context.Context, a *models.Admin) error
	Get(ctx context.Context, id int) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}

// RentCache caches per-admin rent reports. Implementations must tolerate
// a cold or unavailable backend.
type RentCache interface {
	GetOverdue(ctx context.Context, adminID int) ([]models.OverdueEntry, bool)
	SetOverdue(ctx context.Context, adminID int, entries []models.OverdueEntry)
	Invalidate(ctx context.Context, adminID int)
	InvalidateAll(ctx context.Context)
}

type noopCache struct{}

func (noopCache) GetOverdue(context.Context, int) ([]models.OverdueEntry, bool) { return nil, false }
func (noopCache) SetOverdue(context.Context, int, []models.OverdueEntry)        {}
func (noopCache) Invalidate(context.Context, int)                               {}
func (noopCache) InvalidateAll(context.Context)                                 {}
