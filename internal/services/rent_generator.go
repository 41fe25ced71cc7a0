package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
)

// rentGenerator creates period records for a tenant without ever producing
// two records for the same period. The lookup is the primary check; the
// store's unique index catches concurrent writers.
type rentGenerator struct {
	rents RentStore
}

// ensure returns the tenant's record for the period containing due,
// creating it with the given status and the room's current rent when it
// does not exist. created reports whether this call inserted it.
func (g *rentGenerator) ensure(ctx context.Context, t *models.Tenant, kind period.Kind, due time.Time, status models.RentStatus, source string, now time.Time) (*models.RentRecord, bool, error) {
	key, err := period.Identify(kind, due)
	if err != nil {
		return nil, false, err
	}

	existing, err := g.rents.FindByPeriod(ctx, t.ID, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	if t.Room == nil {
		return nil, false, apperr.Validation("tenant %s has no room", t.ID)
	}

	rec := newRentRecord(t, key, due, t.Room.Rent, status, now)
	if err := g.rents.Create(ctx, rec); err != nil {
		if !errors.Is(err, apperr.ErrDuplicatePeriod) {
			return nil, false, err
		}
		// Lost a race with another writer; use their record.
		existing, ferr := g.rents.FindByPeriod(ctx, t.ID, key)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	metrics.RentRecordsCreated.WithLabelValues(source).Inc()
	return rec, true, nil
}

func newRentRecord(t *models.Tenant, key period.Key, due time.Time, amount decimal.Decimal, status models.RentStatus, now time.Time) *models.RentRecord {
	rec := &models.RentRecord{
		AdminID:        t.AdminID,
		TenantID:       t.ID,
		RoomID:         t.RoomID,
		Amount:         amount,
		AmountPaid:     decimal.Zero,
		Status:         status,
		DueDate:        due,
		PaymentHistory: []models.PaymentEntry{},
		RentSnapshot:   t.Snapshot(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	rec.SetPeriod(key)
	return rec
}

// anchorDay is the day of month monthly periods are pinned to.
func anchorDay(t *models.Tenant, fallback time.Time) int {
	if t != nil && t.JoiningDate != nil {
		return t.JoiningDate.Day()
	}
	return fallback.Day()
}
