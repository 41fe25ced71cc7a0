package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	upcomingDays    = 7
)

// RentService is the admin-facing rent API: CRUD, batch creation and the
// upcoming/overdue reports.
type RentService struct {
	rents     RentStore
	tenants   TenantStore
	engine    *ReconciliationEngine
	processor *PaymentProcessor
	gen       *rentGenerator
	cache     RentCache
	clock     timeutil.Clock
	logger    *zap.Logger
}

func NewRentService(rents RentStore, tenants TenantStore, engine *ReconciliationEngine, processor *PaymentProcessor, cache RentCache, clock timeutil.Clock, logger *zap.Logger) *RentService {
	if cache == nil {
		cache = noopCache{}
	}
	return &RentService{
		rents:     rents,
		tenants:   tenants,
		engine:    engine,
		processor: processor,
		gen:       &rentGenerator{rents: rents},
		cache:     cache,
		clock:     clock,
		logger:    logger.Named("rents"),
	}
}

// RentPage is one page of a rent listing.
type RentPage struct {
	Records []*models.RentRecord `json:"records"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
}

func (s *RentService) List(ctx context.Context, adminID int, filter models.RentFilter) (*RentPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	recs, total, err := s.rents.List(ctx, adminID, filter)
	if err != nil {
		return nil, err
	}
	return &RentPage{Records: recs, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *RentService) Get(ctx context.Context, adminID int, id uuid.UUID) (*models.RentRecord, error) {
	return s.rents.Get(ctx, adminID, id)
}

// Create adds a record by hand. Without a due date the tenant's next
// period is used; without an amount the room's current rent is charged.
func (s *RentService) Create(ctx context.Context, adminID int, req *models.CreateRentRequest) (*models.RentRecord, error) {
	if req.TenantID == uuid.Nil {
		return nil, apperr.Validation("tenant_id is required")
	}
	tenant, err := s.tenants.Get(ctx, adminID, req.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.PaymentPeriod.Valid() {
		return nil, apperr.ErrInvalidPeriodKind
	}

	due, err := s.dueDateFor(ctx, tenant, req.DueDate)
	if err != nil {
		return nil, err
	}

	amount, err := chargeFor(tenant, req.Amount)
	if err != nil {
		return nil, err
	}

	key, err := period.Identify(tenant.PaymentPeriod, due)
	if err != nil {
		return nil, err
	}
	existing, err := s.rents.FindByPeriod(ctx, tenant.ID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("tenant %s period %s: %w", tenant.ID, key, apperr.ErrDuplicatePeriod)
	}

	now := s.clock.Now()
	created := newRentRecord(tenant, key, due, amount, models.RentStatusPending, now)
	created.Notes = req.Notes
	created.DeriveStatus()
	if err := s.rents.Create(ctx, created); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, adminID)
	return created, nil
}

func chargeFor(t *models.Tenant, requested *decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case requested != nil:
		if requested.IsNegative() {
			return decimal.Zero, apperr.Validation("amount cannot be negative")
		}
		return *requested, nil
	case t.Room != nil:
		return t.Room.Rent, nil
	default:
		return decimal.Zero, apperr.Validation("amount is required for a tenant without a room")
	}
}

func (s *RentService) dueDateFor(ctx context.Context, t *models.Tenant, raw string) (time.Time, error) {
	if raw != "" {
		due, err := timeutil.ParseDate(raw)
		if err != nil {
			return time.Time{}, apperr.Validation("due_date must be YYYY-MM-DD")
		}
		return due, nil
	}
	if t.JoiningDate == nil {
		return time.Time{}, apperr.Validation("due_date is required for a tenant without a joining date")
	}

	latest, err := s.rents.FindLatestForTenant(ctx, t.ID)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return period.FirstDue(t.PaymentPeriod, *t.JoiningDate)
	}
	return period.Next(t.PaymentPeriod, latest.DueDate, anchorDay(t, latest.DueDate))
}

// Update changes amount, due date or notes. The amount cannot drop below
// what has already been paid.
func (s *RentService) Update(ctx context.Context, adminID int, id uuid.UUID, req *models.UpdateRentRequest) (*models.RentRecord, error) {
	rec, err := s.rents.Get(ctx, adminID, id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if req.Amount.LessThan(rec.AmountPaid) {
			return nil, apperr.Validation("amount cannot be less than the %s already paid", rec.AmountPaid)
		}
		rec.Amount = *req.Amount
	}
	if req.DueDate != "" {
		due, err := timeutil.ParseDate(req.DueDate)
		if err != nil {
			return nil, apperr.Validation("due_date must be YYYY-MM-DD")
		}
		key, err := period.Identify(rec.PaymentPeriod, due)
		if err != nil {
			return nil, err
		}
		rec.DueDate = due
		rec.SetPeriod(key)
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}

	now := s.clock.Now()
	wasPaid := rec.IsPaid
	if rec.AmountPaid.IsZero() && !rec.Amount.IsZero() {
		// overdue-ness follows the (possibly moved) due date
		rec.Status = models.RentStatusPending
		if rec.DueDate.Before(timeutil.Today(s.clock)) {
			rec.Status = models.RentStatusOverdue
		}
	}
	rec.DeriveStatus()
	if rec.IsPaid && !wasPaid && rec.PaymentDate == nil {
		rec.PaymentDate = &now
	}
	if !rec.IsPaid {
		rec.PaymentDate = nil
	}
	rec.UpdatedAt = now

	if err := s.rents.Update(ctx, adminID, rec); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, adminID)
	return rec, nil
}

func (s *RentService) Delete(ctx context.Context, adminID int, id uuid.UUID) error {
	if err := s.rents.Delete(ctx, adminID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, adminID)
	return nil
}

// Pay hands the request to the payment processor.
func (s *RentService) Pay(ctx context.Context, adminID int, id uuid.UUID, req *models.PayRentRequest) (*models.PaymentResult, error) {
	return s.processor.Pay(ctx, adminID, id, req)
}

// CreateAuto creates each item independently; failures are reported per
// item and never stop the batch.
func (s *RentService) CreateAuto(ctx context.Context, adminID int, req *models.AutoCreateRequest) *models.BatchResult {
	res := &models.BatchResult{Created: []*models.RentRecord{}, Errors: []models.BatchError{}}
	for i := range req.Records {
		item := req.Records[i]
		rec, err := s.Create(ctx, adminID, &item)
		if err != nil {
			var tenantID *uuid.UUID
			if item.TenantID != uuid.Nil {
				tenantID = &item.TenantID
			}
			res.Errors = append(res.Errors, models.BatchError{Index: i, TenantID: tenantID, Error: err.Error()})
			continue
		}
		res.Created = append(res.Created, rec)
	}
	return res
}

// Upcoming lists unpaid records due within the next days days.
func (s *RentService) Upcoming(ctx context.Context, adminID, days int) ([]models.UpcomingEntry, error) {
	if days <= 0 {
		days = upcomingDays
	}
	today := timeutil.Today(s.clock)
	recs, err := s.rents.ListUnpaidDueBetween(ctx, adminID, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	out := make([]models.UpcomingEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.UpcomingEntry{
			RentRecord:   rec,
			DaysUntilDue: timeutil.DaysBetween(today, rec.DueDate),
		})
	}
	return out, nil
}

// Overdue returns the reconciliation report, cached per admin. Reports
// with tenant failures are not cached.
func (s *RentService) Overdue(ctx context.Context, adminID int) (*OverdueReport, error) {
	if entries, ok := s.cache.GetOverdue(ctx, adminID); ok {
		return &OverdueReport{Entries: entries, Errors: []models.BatchError{}}, nil
	}

	report, err := s.engine.Overdue(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if len(report.Errors) == 0 {
		s.cache.SetOverdue(ctx, adminID, report.Entries)
	}
	return report, nil
}

// GenerateMonthly creates the target month's record for every active
// monthly tenant with a room. The target defaults to next month.
func (s *RentService) GenerateMonthly(ctx context.Context, adminID int, req *models.GenerateMonthlyRequest) (*models.BatchResult, error) {
	month, year := TargetMonth(timeutil.Today(s.clock), req.Month, req.Year)

	tenants, err := s.tenants.ListBillableByAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	res := &models.BatchResult{Created: []*models.RentRecord{}, Errors: []models.BatchError{}}
	now := s.clock.Now()
	for i, t := range tenants {
		if !t.Billable() || t.PaymentPeriod != period.Monthly {
			continue
		}
		due := period.DueInMonth(year, month, t.JoiningDate.Day(), timeutil.IST)
		if !due.After(*t.JoiningDate) {
			res.Skipped++
			continue
		}

		rec, created, err := s.gen.ensure(ctx, t, period.Monthly, due, models.RentStatusPending, "generate_monthly", now)
		if err != nil {
			tenantID := t.ID
			res.Errors = append(res.Errors, models.BatchError{Index: i, TenantID: &tenantID, Error: err.Error()})
			s.logger.Warn("generate monthly failed",
				zap.Int("admin_id", adminID),
				zap.String("tenant_id", t.ID.String()),
				zap.Error(err))
			continue
		}
		if created {
			res.Created = append(res.Created, rec)
		} else {
			res.Skipped++
		}
	}
	if len(res.Created) > 0 {
		s.cache.Invalidate(ctx, adminID)
	}
	s.logger.Info("generate monthly finished",
		zap.Int("admin_id", adminID),
		zap.String("target", fmt.Sprintf("%04d-%02d", year, int(month))),
		zap.Int("created", len(res.Created)),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", len(res.Errors)))
	return res, nil
}

// TargetMonth resolves the month a generate-monthly call aims at. A zero
// month means the month after today; a zero year means the year of that
// default (or of today when a month is given).
func TargetMonth(today time.Time, month, year int) (time.Month, int) {
	if month == 0 {
		next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
		if year == 0 {
			year = next.Year()
		}
		return next.Month(), year
	}
	if year == 0 {
		year = today.Year()
	}
	return time.Month(month), year
}
