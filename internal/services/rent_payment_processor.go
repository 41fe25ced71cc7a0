package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

const defaultPaymentMethod = "cash"

// PaymentProcessor applies payments to rent records and opens the next
// period once a record is settled.
type PaymentProcessor struct {
	rents   RentStore
	tenants TenantStore
	gen     *rentGenerator
	cache   RentCache
	clock   timeutil.Clock
	logger  *zap.Logger
}

func NewPaymentProcessor(rents RentStore, tenants TenantStore, cache RentCache, clock timeutil.Clock, logger *zap.Logger) *PaymentProcessor {
	if cache == nil {
		cache = noopCache{}
	}
	return &PaymentProcessor{
		rents:   rents,
		tenants: tenants,
		gen:     &rentGenerator{rents: rents},
		cache:   cache,
		clock:   clock,
		logger:  logger.Named("payments"),
	}
}

// Pay loads the admin's record and applies the request to it. A missing
// amount pays whatever is still owed.
func (p *PaymentProcessor) Pay(ctx context.Context, adminID int, rentID uuid.UUID, req *models.PayRentRequest) (*models.PaymentResult, error) {
	rec, err := p.rents.Get(ctx, adminID, rentID)
	if err != nil {
		return nil, err
	}

	amount := rec.Remaining()
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.IsNegative() {
		return nil, apperr.Validation("payment amount cannot be negative")
	}

	return p.Apply(ctx, rec, models.PaymentInput{
		Amount:    amount,
		Method:    req.PaymentMethod,
		Reference: req.PaymentReference,
		Notes:     req.Notes,
	})
}

// Apply records a payment against rec and persists it. When the payment
// settles the record, the next period's record is found or created on a
// best-effort basis: failures there are logged and the payment stands.
func (p *PaymentProcessor) Apply(ctx context.Context, rec *models.RentRecord, in models.PaymentInput) (*models.PaymentResult, error) {
	if in.Amount.IsNegative() {
		return nil, apperr.Validation("payment amount cannot be negative")
	}
	in.Method = strings.TrimSpace(in.Method)
	if in.Method == "" {
		in.Method = defaultPaymentMethod
	}

	now := p.clock.Now()
	settled := rec.ApplyPayment(in, now)
	if err := p.rents.Update(ctx, rec.AdminID, rec); err != nil {
		return nil, err
	}
	p.cache.Invalidate(ctx, rec.AdminID)

	outcome := "partial"
	if settled {
		outcome = "settled"
	} else if in.Amount.IsZero() {
		outcome = "zero"
	}
	metrics.RentPayments.WithLabelValues(in.Method, outcome).Inc()

	p.logger.Info("payment applied",
		zap.Int("admin_id", rec.AdminID),
		zap.String("rent_id", rec.ID.String()),
		zap.String("amount", in.Amount.String()),
		zap.String("amount_paid", rec.AmountPaid.String()),
		zap.String("status", string(rec.Status)))

	result := &models.PaymentResult{Rent: rec}
	if settled {
		result.NextRent = p.nextPeriod(ctx, rec)
	}
	return result, nil
}

func (p *PaymentProcessor) nextPeriod(ctx context.Context, paid *models.RentRecord) *models.RentRecord {
	log := p.logger.With(
		zap.Int("admin_id", paid.AdminID),
		zap.String("rent_id", paid.ID.String()),
		zap.String("tenant_id", paid.TenantID.String()))

	tenant, err := p.tenants.Get(ctx, paid.AdminID, paid.TenantID)
	if err != nil {
		log.Warn("next period skipped: tenant lookup failed", zap.Error(err))
		return nil
	}

	nextDue, err := period.Next(paid.PaymentPeriod, paid.DueDate, anchorDay(tenant, paid.DueDate))
	if err != nil {
		log.Warn("next period skipped", zap.Error(err))
		return nil
	}
	key, err := period.Identify(paid.PaymentPeriod, nextDue)
	if err != nil {
		log.Warn("next period skipped", zap.Error(err))
		return nil
	}

	existing, err := p.rents.FindByPeriod(ctx, tenant.ID, key)
	if err != nil {
		log.Warn("next period lookup failed", zap.Error(err))
		return nil
	}
	if existing != nil {
		return existing
	}
	if !tenant.Active || tenant.Room == nil {
		return nil
	}

	next, created, err := p.gen.ensure(ctx, tenant, paid.PaymentPeriod, nextDue, models.RentStatusPending, "payment", p.clock.Now())
	if err != nil {
		log.Warn("next period generation failed", zap.Error(err))
		return nil
	}
	if created {
		log.Info("next period opened",
			zap.String("next_rent_id", next.ID.String()),
			zap.String("due_date", timeutil.FormatDate(next.DueDate)))
	}
	return next
}
