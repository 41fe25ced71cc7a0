package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hostel-backend/internal/metrics"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

// TenantState is what reconciliation found for one tenant.
type TenantState struct {
	// Latest is the tenant's record with the latest due date, if any.
	Latest *models.RentRecord
	// CalculationStart is the first due date the walk considered.
	CalculationStart time.Time
	// MostRecentDue is the last due date on or before today. Zero when
	// nothing has fallen due yet.
	MostRecentDue time.Time
	// Missing is set when no record exists for MostRecentDue and that
	// date has passed.
	Missing *models.OverdueEntry
}

// OverdueReport is the merged overdue listing for one admin.
type OverdueReport struct {
	Entries []models.OverdueEntry `json:"entries"`
	Errors  []models.BatchError   `json:"errors"`
}

// ReconciliationEngine works out which periods should have rent records,
// which are missing and which are overdue.
type ReconciliationEngine struct {
	rents   RentStore
	tenants TenantStore
	clock   timeutil.Clock
	logger  *zap.Logger
}

func NewReconciliationEngine(rents RentStore, tenants TenantStore, clock timeutil.Clock, logger *zap.Logger) *ReconciliationEngine {
	return &ReconciliationEngine{
		rents:   rents,
		tenants: tenants,
		clock:   clock,
		logger:  logger.Named("reconciliation"),
	}
}

// ReconcileTenant walks the tenant's due dates up to today.
//
// The walk starts one period after the joining date when the tenant has no
// records, one period after the latest record when it is paid, and at the
// latest record itself when it is not. An unpaid period therefore blocks
// everything after it.
func (e *ReconciliationEngine) ReconcileTenant(ctx context.Context, t *models.Tenant, today time.Time) (*TenantState, error) {
	if !t.Billable() {
		return &TenantState{}, nil
	}
	kind := t.PaymentPeriod
	anchor := anchorDay(t, *t.JoiningDate)

	latest, err := e.rents.FindLatestForTenant(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	state := &TenantState{Latest: latest}
	switch {
	case latest == nil:
		state.CalculationStart, err = period.FirstDue(kind, *t.JoiningDate)
	case latest.IsPaid:
		state.CalculationStart, err = period.Next(kind, latest.DueDate, anchor)
	default:
		state.CalculationStart = timeutil.StartOfDay(latest.DueDate)
	}
	if err != nil {
		return nil, err
	}

	due := state.CalculationStart
	if due.After(today) {
		return state, nil
	}
	for {
		next, err := period.Next(kind, due, anchor)
		if err != nil {
			return nil, err
		}
		if next.After(today) {
			break
		}
		due = next
	}
	state.MostRecentDue = due

	if !due.Before(today) {
		return state, nil
	}
	key, err := period.Identify(kind, due)
	if err != nil {
		return nil, err
	}
	existing, err := e.rents.FindByPeriod(ctx, t.ID, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		state.Missing = missingEntry(t, key, due, today)
	}
	return state, nil
}

// Overdue merges the admin's persisted overdue records with the missing
// periods found by reconciliation, most overdue first. A failure on one
// tenant is recorded in the report and does not stop the others.
func (e *ReconciliationEngine) Overdue(ctx context.Context, adminID int) (*OverdueReport, error) {
	today := timeutil.Today(e.clock)

	records, err := e.rents.ListUnpaidDueBefore(ctx, adminID, today)
	if err != nil {
		return nil, err
	}
	tenants, err := e.tenants.ListBillableByAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	report := &OverdueReport{Entries: []models.OverdueEntry{}, Errors: []models.BatchError{}}
	seen := make(map[uuid.UUID]bool, len(records))
	for _, rec := range records {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		report.Entries = append(report.Entries, overdueEntry(rec, today))
	}

	for i, t := range tenants {
		if !t.Billable() {
			continue
		}
		state, err := e.ReconcileTenant(ctx, t, today)
		if err != nil {
			tenantID := t.ID
			e.logger.Warn("reconcile tenant failed",
				zap.Int("admin_id", adminID),
				zap.String("tenant_id", t.ID.String()),
				zap.Error(err))
			metrics.RentTenantFailures.WithLabelValues("overdue_report").Inc()
			report.Errors = append(report.Errors, models.BatchError{Index: i, TenantID: &tenantID, Error: err.Error()})
			continue
		}
		if m := state.Missing; m != nil {
			if m.RentID != nil && seen[*m.RentID] {
				continue
			}
			report.Entries = append(report.Entries, *m)
		}
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		return report.Entries[i].DaysOverdue > report.Entries[j].DaysOverdue
	})
	return report, nil
}

func overdueEntry(rec *models.RentRecord, today time.Time) models.OverdueEntry {
	id := rec.ID
	status := rec.Status
	if status == models.RentStatusPending {
		// the daily refresh may not have run yet
		status = models.RentStatusOverdue
	}
	return models.OverdueEntry{
		RentID:        &id,
		TenantID:      rec.TenantID,
		RoomID:        rec.RoomID,
		PaymentPeriod: rec.PaymentPeriod,
		Period:        rec.PeriodKey(),
		DueDate:       rec.DueDate,
		Amount:        rec.Amount,
		AmountPaid:    rec.AmountPaid,
		Status:        status,
		DaysOverdue:   timeutil.DaysBetween(rec.DueDate, today),
		RentSnapshot:  rec.RentSnapshot,
	}
}

func missingEntry(t *models.Tenant, key period.Key, due, today time.Time) *models.OverdueEntry {
	entry := &models.OverdueEntry{
		TenantID:      t.ID,
		RoomID:        t.RoomID,
		PaymentPeriod: t.PaymentPeriod,
		Period:        key,
		DueDate:       due,
		Status:        models.RentStatusOverdue,
		DaysOverdue:   timeutil.DaysBetween(due, today),
		Missing:       true,
		RentSnapshot:  t.Snapshot(),
	}
	if t.Room != nil {
		entry.Amount = t.Room.Rent
	}
	return entry
}
