package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Room struct {
	ID           uuid.UUID       `json:"id"`
	AdminID      int             `json:"admin_id"`
	RoomNumber   string          `json:"room_number"`
	Floor        int             `json:"floor"`
	Type         string          `json:"type"`
	Capacity     int             `json:"capacity"`
	OccupiedBeds int             `json:"occupied_beds"`
	Rent         decimal.Decimal `json:"rent"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HasFreeBed reports whether another active tenant fits.
func (r *Room) HasFreeBed() bool {
	return r.OccupiedBeds < r.Capacity
}

// CreateRoomRequest represents the request body for creating a room
type CreateRoomRequest struct {
	RoomNumber string          `json:"room_number" validate:"required,max=20"`
	Floor      int             `json:"floor" validate:"min=0,max=200"`
	Type       string          `json:"type" validate:"omitempty,oneof=single double triple dormitory"`
	Capacity   int             `json:"capacity" validate:"required,min=1,max=50"`
	Rent       decimal.Decimal `json:"rent"`
}

// UpdateRoomRequest represents the request body for updating a room
type UpdateRoomRequest struct {
	RoomNumber *string          `json:"room_number" validate:"omitempty,max=20"`
	Floor      *int             `json:"floor" validate:"omitempty,min=0,max=200"`
	Type       *string          `json:"type" validate:"omitempty,oneof=single double triple dormitory"`
	Capacity   *int             `json:"capacity" validate:"omitempty,min=1,max=50"`
	Rent       *decimal.Decimal `json:"rent"`
}
