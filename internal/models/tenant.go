package models

import (
	"time"

	"github.com/google/uuid"

	"hostel-backend/internal/period"
)

type Tenant struct {
	ID            uuid.UUID   `json:"id"`
	AdminID       int         `json:"admin_id"`
	Name          string      `json:"name"`
	Phone         string      `json:"phone"`
	Email         string      `json:"email,omitempty"`
	RoomID        *uuid.UUID  `json:"room_id,omitempty"`
	JoiningDate   *time.Time  `json:"joining_date,omitempty"`
	PaymentPeriod period.Kind `json:"payment_period"`
	Active        bool        `json:"active"`
	IDDocumentKey string      `json:"id_document_key,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	Room *Room `json:"room,omitempty"` // Joined from rooms table
}

// Billable reports whether rent can be computed for the tenant.
func (t *Tenant) Billable() bool {
	return t.Room != nil && t.JoiningDate != nil && t.PaymentPeriod.Valid()
}

// Snapshot captures the denormalised fields stored on rent records.
func (t *Tenant) Snapshot() RentSnapshot {
	s := RentSnapshot{TenantName: t.Name, TenantPhone: t.Phone}
	if t.Room != nil {
		s.RoomNumber = t.Room.RoomNumber
	}
	return s
}

// CreateTenantRequest represents the request body for creating a tenant
type CreateTenantRequest struct {
	Name          string     `json:"name" validate:"required,max=100"`
	Phone         string     `json:"phone" validate:"required,numeric,len=10"`
	Email         string     `json:"email" validate:"omitempty,email"`
	RoomID        *uuid.UUID `json:"room_id"`
	JoiningDate   string     `json:"joining_date" validate:"required,datetime=2006-01-02"`
	PaymentPeriod string     `json:"payment_period" validate:"required,oneof=monthly weekly daily"`
	Active        *bool      `json:"active"`
}

// UpdateTenantRequest represents the request body for updating a tenant.
// Nil fields are left unchanged.
type UpdateTenantRequest struct {
	Name          *string    `json:"name" validate:"omitempty,max=100"`
	Phone         *string    `json:"phone" validate:"omitempty,numeric,len=10"`
	Email         *string    `json:"email" validate:"omitempty,email"`
	RoomID        *uuid.UUID `json:"room_id"`
	ClearRoom     bool       `json:"clear_room"`
	JoiningDate   *string    `json:"joining_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentPeriod *string    `json:"payment_period" validate:"omitempty,oneof=monthly weekly daily"`
	Active        *bool      `json:"active"`
}

// IDDocumentFields is a best-effort guess extracted from recognised text
// of an identity document.
type IDDocumentFields struct {
	IDNumber    string `json:"id_number,omitempty"`
	Name        string `json:"name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// ExtractIDRequest carries text already recognised from an ID document.
type ExtractIDRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

// DocumentResponse points at a stored tenant document.
type DocumentResponse struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url,omitempty"`
}
