package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hostel-backend/internal/metrics"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

// Job names, also used as metric labels.
const (
	JobRefreshOverdue = "refresh_overdue"
	JobGenerateDue    = "generate_due"
	JobBackfill       = "backfill_missing"
)

// maxBackfillPeriods bounds how many records one run creates for a single
// tenant. Periods that already exist do not count, so later runs pick up
// where the previous one stopped.
const maxBackfillPeriods = 400

// JobResult summarises one run of a lifecycle job.
type JobResult struct {
	Job       string              `json:"job"`
	Processed int                 `json:"processed"`
	Created   int                 `json:"created"`
	Updated   int64               `json:"updated"`
	Errors    []models.BatchError `json:"errors"`
	Duration  time.Duration       `json:"duration"`
}

// RentLifecycleService holds the daily jobs that move rent records along
// over time. All three are idempotent and safe to re-run.
type RentLifecycleService struct {
	rents   RentStore
	tenants TenantStore
	gen     *rentGenerator
	cache   RentCache
	clock   timeutil.Clock
	logger  *zap.Logger
}

func NewRentLifecycleService(rents RentStore, tenants TenantStore, cache RentCache, clock timeutil.Clock, logger *zap.Logger) *RentLifecycleService {
	if cache == nil {
		cache = noopCache{}
	}
	return &RentLifecycleService{
		rents:   rents,
		tenants: tenants,
		gen:     &rentGenerator{rents: rents},
		cache:   cache,
		clock:   clock,
		logger:  logger.Named("rent_lifecycle"),
	}
}

// RefreshOverdueStatuses marks every unpaid record due before today as
// Overdue.
func (s *RentLifecycleService) RefreshOverdueStatuses(ctx context.Context) (*JobResult, error) {
	start := time.Now()
	res := &JobResult{Job: JobRefreshOverdue, Errors: []models.BatchError{}}

	n, err := s.rents.MarkOverdue(ctx, timeutil.Today(s.clock))
	res.Updated = n
	res.Duration = time.Since(start)
	metrics.ObserveJob(res.Job, err, res.Duration)
	if err != nil {
		s.logger.Error("status refresh failed", zap.Error(err))
		return res, err
	}

	metrics.RentOverdueTransitions.Add(float64(n))
	if n > 0 {
		s.cache.InvalidateAll(ctx)
	}
	s.logger.Info("status refresh finished", zap.Int64("updated", n), zap.Duration("duration", res.Duration))
	return res, nil
}

// GenerateDueRecords opens the next period for every active tenant with a
// room once its due date has arrived. Tenants whose latest record is
// unpaid are left alone.
func (s *RentLifecycleService) GenerateDueRecords(ctx context.Context) (*JobResult, error) {
	return s.eachTenant(ctx, JobGenerateDue, func(ctx context.Context, t *models.Tenant, today time.Time) (int, error) {
		latest, err := s.rents.FindLatestForTenant(ctx, t.ID)
		if err != nil {
			return 0, err
		}

		var due time.Time
		switch {
		case latest == nil:
			due, err = period.FirstDue(t.PaymentPeriod, *t.JoiningDate)
		case !latest.IsPaid:
			return 0, nil
		default:
			due, err = period.Next(t.PaymentPeriod, latest.DueDate, anchorDay(t, latest.DueDate))
		}
		if err != nil {
			return 0, err
		}
		if due.After(today) {
			return 0, nil
		}

		_, created, err := s.gen.ensure(ctx, t, t.PaymentPeriod, due, models.RentStatusPending, JobGenerateDue, s.clock.Now())
		if err != nil || !created {
			return 0, err
		}
		return 1, nil
	})
}

// BackfillMissingRecords walks forward from each tenant's last paid period
// and creates any record that should exist by today. Records whose due
// date has passed are created as Overdue. A tenant far behind is caught up
// over several runs.
func (s *RentLifecycleService) BackfillMissingRecords(ctx context.Context) (*JobResult, error) {
	return s.eachTenant(ctx, JobBackfill, func(ctx context.Context, t *models.Tenant, today time.Time) (int, error) {
		lastPaid, err := s.rents.FindLatestPaidForTenant(ctx, t.ID)
		if err != nil || lastPaid == nil {
			return 0, err
		}

		anchor := anchorDay(t, lastPaid.DueDate)
		created := 0
		due := lastPaid.DueDate
		for created < maxBackfillPeriods {
			due, err = period.Next(t.PaymentPeriod, due, anchor)
			if err != nil {
				return created, err
			}
			if due.After(today) {
				break
			}
			status := models.RentStatusPending
			if due.Before(today) {
				status = models.RentStatusOverdue
			}
			_, ok, err := s.gen.ensure(ctx, t, t.PaymentPeriod, due, status, JobBackfill, s.clock.Now())
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
		return created, nil
	})
}

// RunAll runs the three jobs in order. A failing job does not stop the
// ones after it.
func (s *RentLifecycleService) RunAll(ctx context.Context) []*JobResult {
	jobs := []func(context.Context) (*JobResult, error){
		s.RefreshOverdueStatuses,
		s.GenerateDueRecords,
		s.BackfillMissingRecords,
	}
	results := make([]*JobResult, 0, len(jobs))
	for _, job := range jobs {
		res, _ := job(ctx)
		results = append(results, res)
	}
	return results
}

type tenantJob func(ctx context.Context, t *models.Tenant, today time.Time) (int, error)

// eachTenant runs fn for every billable tenant, isolating per-tenant
// failures into the result.
func (s *RentLifecycleService) eachTenant(ctx context.Context, job string, fn tenantJob) (*JobResult, error) {
	start := time.Now()
	res := &JobResult{Job: job, Errors: []models.BatchError{}}
	today := timeutil.Today(s.clock)

	tenants, err := s.tenants.ListBillable(ctx)
	if err != nil {
		res.Duration = time.Since(start)
		metrics.ObserveJob(job, err, res.Duration)
		s.logger.Error("list tenants failed", zap.String("job", job), zap.Error(err))
		return res, err
	}

	touched := map[int]bool{}
	for i, t := range tenants {
		if ctx.Err() != nil {
			break
		}
		if !t.Billable() {
			continue
		}
		res.Processed++

		n, err := fn(ctx, t, today)
		res.Created += n
		if n > 0 {
			touched[t.AdminID] = true
		}
		if err != nil {
			tenantID := t.ID
			res.Errors = append(res.Errors, models.BatchError{Index: i, TenantID: &tenantID, Error: err.Error()})
			metrics.RentTenantFailures.WithLabelValues(job).Inc()
			s.logger.Warn("tenant failed",
				zap.String("job", job),
				zap.Int("admin_id", t.AdminID),
				zap.String("tenant_id", t.ID.String()),
				zap.Error(err))
		}
	}
	for adminID := range touched {
		s.cache.Invalidate(ctx, adminID)
	}

	res.Duration = time.Since(start)
	metrics.ObserveJob(job, ctx.Err(), res.Duration)
	s.logger.Info("job finished",
		zap.String("job", job),
		zap.Int("processed", res.Processed),
		zap.Int("created", res.Created),
		zap.Int("failed", len(res.Errors)),
		zap.Duration("duration", res.Duration))
	return res, ctx.Err()
}
