package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
)

type RoomService struct {
	rooms RoomStore
}

func NewRoomService(rooms RoomStore) *RoomService {
	return &RoomService{rooms: rooms}
}

func (s *RoomService) Create(ctx context.Context, adminID int, req *models.CreateRoomRequest) (*models.Room, error) {
	if strings.TrimSpace(req.RoomNumber) == "" {
		return nil, apperr.Validation("room_number is required")
	}
	if req.Capacity < 1 {
		return nil, apperr.Validation("capacity must be at least 1")
	}
	if req.Rent.IsNegative() {
		return nil, apperr.Validation("rent cannot be negative")
	}

	room := &models.Room{
		AdminID:    adminID,
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		Floor:      req.Floor,
		Type:       req.Type,
		Capacity:   req.Capacity,
		Rent:       req.Rent,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Room, error) {
	return s.rooms.Get(ctx, adminID, id)
}

func (s *RoomService) List(ctx context.Context, adminID int) ([]*models.Room, error) {
	return s.rooms.List(ctx, adminID)
}

// Update changes room details. Capacity cannot drop below the beds
// currently occupied.
func (s *RoomService) Update(ctx context.Context, adminID int, id uuid.UUID, req *models.UpdateRoomRequest) (*models.Room, error) {
	room, err := s.rooms.Get(ctx, adminID, id)
	if err != nil {
		return nil, err
	}

	if req.RoomNumber != nil {
		if strings.TrimSpace(*req.RoomNumber) == "" {
			return nil, apperr.Validation("room_number cannot be empty")
		}
		room.RoomNumber = strings.TrimSpace(*req.RoomNumber)
	}
	if req.Floor != nil {
		room.Floor = *req.Floor
	}
	if req.Type != nil {
		room.Type = *req.Type
	}
	if req.Capacity != nil {
		if *req.Capacity < room.OccupiedBeds {
			return nil, apperr.Validation("capacity %d is below the %d occupied beds", *req.Capacity, room.OccupiedBeds)
		}
		room.Capacity = *req.Capacity
	}
	if req.Rent != nil {
		if req.Rent.IsNegative() {
			return nil, apperr.Validation("rent cannot be negative")
		}
		room.Rent = *req.Rent
	}

	if err := s.rooms.Update(ctx, adminID, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) Delete(ctx context.Context, adminID int, id uuid.UUID) error {
	room, err := s.rooms.Get(ctx, adminID, id)
	if err != nil {
		return err
	}
	if room.OccupiedBeds > 0 {
		return apperr.Validation("room %s still has %d tenants", room.RoomNumber, room.OccupiedBeds)
	}
	return s.rooms.Delete(ctx, adminID, id)
}
