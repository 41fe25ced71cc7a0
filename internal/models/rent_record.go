package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hostel-backend/internal/period"
)

type RentStatus string

const (
	RentStatusPending       RentStatus = "Pending"
	RentStatusPartiallyPaid RentStatus = "PartiallyPaid"
	RentStatusPaid          RentStatus = "Paid"
	RentStatusOverdue       RentStatus = "Overdue"
)

// PaymentEntry is one line of a record's append-only payment history.
// Amount is what was applied; Tendered is what the payer offered.
type PaymentEntry struct {
	Amount    decimal.Decimal `json:"amount"`
	Tendered  decimal.Decimal `json:"tendered"`
	Date      time.Time       `json:"date"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// RentSnapshot holds tenant/room details captured when the record was
// created so the invoice survives tenant or room deletion.
type RentSnapshot struct {
	TenantName  string `json:"tenant_name"`
	TenantPhone string `json:"tenant_phone"`
	RoomNumber  string `json:"room_number"`
}

// RentRecord is one billing-period invoice for a tenant.
type RentRecord struct {
	ID            uuid.UUID   `json:"id"`
	AdminID       int         `json:"admin_id"`
	TenantID      uuid.UUID   `json:"tenant_id"`
	RoomID        *uuid.UUID  `json:"room_id,omitempty"`
	PaymentPeriod period.Kind `json:"payment_period"`
	Month         int         `json:"month,omitempty"`
	Year          int         `json:"year,omitempty"`
	WeekNumber    int         `json:"week_number,omitempty"`
	PeriodDate    string      `json:"date,omitempty"`

	Amount         decimal.Decimal `json:"amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Status         RentStatus      `json:"status"`
	IsPaid         bool            `json:"is_paid"`
	DueDate        time.Time       `json:"due_date"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	PaymentHistory []PaymentEntry  `json:"payment_history"`
	Notes          string          `json:"notes,omitempty"`

	RentSnapshot

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetPeriod copies the identifying fields of key onto the record.
func (r *RentRecord) SetPeriod(key period.Key) {
	r.PaymentPeriod = key.Kind
	r.Month = key.Month
	r.Year = key.Year
	r.WeekNumber = key.WeekNumber
	r.PeriodDate = key.Date
}

// PeriodKey returns the identifying fields of the record.
func (r *RentRecord) PeriodKey() period.Key {
	return period.Key{
		Kind:       r.PaymentPeriod,
		Month:      r.Month,
		Year:       r.Year,
		WeekNumber: r.WeekNumber,
		Date:       r.PeriodDate,
	}
}

// Remaining is the unpaid part of the period charge.
func (r *RentRecord) Remaining() decimal.Decimal {
	rem := r.Amount.Sub(r.AmountPaid)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// DeriveStatus recomputes IsPaid and Status from AmountPaid. An Overdue
// record with nothing paid stays Overdue.
func (r *RentRecord) DeriveStatus() {
	r.IsPaid = r.AmountPaid.GreaterThanOrEqual(r.Amount)
	switch {
	case r.IsPaid:
		r.Status = RentStatusPaid
	case r.AmountPaid.IsPositive():
		r.Status = RentStatusPartiallyPaid
	case r.Status == RentStatusOverdue:
	default:
		r.Status = RentStatusPending
	}
}

// ApplyPayment adds a payment, clamping amountPaid at amount, and appends
// a history entry even for zero amounts. It reports whether this payment
// moved the record into Paid.
func (r *RentRecord) ApplyPayment(p PaymentInput, now time.Time) bool {
	wasPaid := r.IsPaid

	applied := p.Amount
	if applied.GreaterThan(r.Remaining()) {
		applied = r.Remaining()
	}
	r.AmountPaid = r.AmountPaid.Add(applied)
	if r.AmountPaid.GreaterThan(r.Amount) {
		r.AmountPaid = r.Amount
	}

	r.PaymentHistory = append(r.PaymentHistory, PaymentEntry{
		Amount:    applied,
		Tendered:  p.Amount,
		Date:      now,
		Method:    p.Method,
		Reference: p.Reference,
		Notes:     p.Notes,
	})

	r.DeriveStatus()
	settled := r.IsPaid && !wasPaid
	if settled {
		paidAt := now
		r.PaymentDate = &paidAt
	}
	r.UpdatedAt = now
	return settled
}

// PaymentInput is a payment to apply to a rent record.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	Notes     string
}

// OverdueEntry is one line of the overdue report. RentID is nil for a
// period whose record has never been created.
type OverdueEntry struct {
	RentID        *uuid.UUID      `json:"rent_id,omitempty"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	RoomID        *uuid.UUID      `json:"room_id,omitempty"`
	PaymentPeriod period.Kind     `json:"payment_period"`
	Period        period.Key      `json:"period"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        RentStatus      `json:"status"`
	DaysOverdue   int             `json:"days_overdue"`
	Missing       bool            `json:"missing"`
	RentSnapshot
}

// UpcomingEntry is a record due soon.
type UpcomingEntry struct {
	*RentRecord
	DaysUntilDue int `json:"days_until_due"`
}

// RentFilter narrows rent listings.
type RentFilter struct {
	Status   RentStatus
	TenantID *uuid.UUID
	Page     int
	Limit    int
}

// CreateRentRequest is the body of a manual rent creation.
type CreateRentRequest struct {
	TenantID uuid.UUID        `json:"tenant_id" validate:"required"`
	DueDate  string           `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Amount   *decimal.Decimal `json:"amount"`
	Notes    string           `json:"notes" validate:"max=500"`
}

// UpdateRentRequest changes the mutable parts of a record.
type UpdateRentRequest struct {
	Amount  *decimal.Decimal `json:"amount"`
	DueDate string           `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes   *string          `json:"notes" validate:"omitempty,max=500"`
}

// PayRentRequest is the body of PUT /rents/{id}/pay. A missing amount
// pays the remaining balance.
type PayRentRequest struct {
	Amount           *decimal.Decimal `json:"amount"`
	PaymentMethod    string           `json:"paymentMethod" validate:"omitempty,max=50"`
	PaymentReference string           `json:"paymentReference" validate:"omitempty,max=100"`
	Notes            string           `json:"notes" validate:"omitempty,max=500"`
}

// PaymentResult is what the payment processor hands back.
type PaymentResult struct {
	Rent     *RentRecord `json:"rent"`
	NextRent *RentRecord `json:"next_rent,omitempty"`
}

// AutoCreateRequest is the body of POST /rents/create-auto.
type AutoCreateRequest struct {
	Records []CreateRentRequest `json:"records" validate:"required,min=1,max=200"`
}

// BatchError is one failed item of a batch operation.
type BatchError struct {
	Index    int        `json:"index"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	Error    string     `json:"error"`
}

// BatchResult accumulates per-item outcomes of a batch operation.
type BatchResult struct {
	Created []*RentRecord `json:"created"`
	Skipped int           `json:"skipped"`
	Errors  []BatchError  `json:"errors"`
}

// GenerateMonthlyRequest targets a calendar month; zero values default to
// next month.
type GenerateMonthlyRequest struct {
	Month int `json:"month" validate:"omitempty,min=1,max=12"`
	Year  int `json:"year" validate:"omitempty,min=2000,max=2100"`
}
