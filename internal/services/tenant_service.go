package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
	"hostel-backend/internal/period"
	"hostel-backend/internal/timeutil"
)

type TenantService struct {
	tenants TenantStore
	rooms   RoomStore
	rents   RentStore
	events  EventPublisher
	cache   RentCache
	logger  *zap.Logger
}

func NewTenantService(tenants TenantStore, rooms RoomStore, rents RentStore, events EventPublisher, cache RentCache, logger *zap.Logger) *TenantService {
	if cache == nil {
		cache = noopCache{}
	}
	return &TenantService{
		tenants: tenants,
		rooms:   rooms,
		rents:   rents,
		events:  events,
		cache:   cache,
		logger:  logger.Named("tenants"),
	}
}

func (s *TenantService) Create(ctx context.Context, adminID int, req *models.CreateTenantRequest) (*models.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, apperr.Validation("name and phone are required")
	}
	kind, err := period.Parse(req.PaymentPeriod)
	if err != nil {
		return nil, apperr.Validation("payment_period must be monthly, weekly or daily")
	}
	joining, err := timeutil.ParseDate(req.JoiningDate)
	if err != nil {
		return nil, apperr.Validation("joining_date must be YYYY-MM-DD")
	}

	t := &models.Tenant{
		AdminID:       adminID,
		Name:          name,
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		RoomID:        req.RoomID,
		JoiningDate:   &joining,
		PaymentPeriod: kind,
		Active:        true,
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if t.RoomID != nil {
		if t.Room, err = s.rooms.Get(ctx, adminID, *t.RoomID); err != nil {
			return nil, err
		}
	}

	t.ID = uuid.New()
	ev, changed := occupancyEvent(adminID, t.ID, nil, occupiedRoom(t))
	if changed {
		if err := s.events.Publish(ctx, ev); err != nil {
			return nil, err
		}
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		s.compensate(ctx, ev, changed)
		return nil, err
	}
	return s.tenants.Get(ctx, adminID, t.ID)
}

func (s *TenantService) Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Tenant, error) {
	return s.tenants.Get(ctx, adminID, id)
}

func (s *TenantService) List(ctx context.Context, adminID int) ([]*models.Tenant, error) {
	return s.tenants.List(ctx, adminID)
}

func (s *TenantService) Update(ctx context.Context, adminID int, id uuid.UUID, req *models.UpdateTenantRequest) (*models.Tenant, error) {
	t, err := s.tenants.Get(ctx, adminID, id)
	if err != nil {
		return nil, err
	}
	before := occupiedRoom(t)

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		t.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		t.Email = strings.TrimSpace(*req.Email)
	}
	if req.JoiningDate != nil {
		joining, err := timeutil.ParseDate(*req.JoiningDate)
		if err != nil {
			return nil, apperr.Validation("joining_date must be YYYY-MM-DD")
		}
		t.JoiningDate = &joining
	}
	if req.PaymentPeriod != nil {
		kind, err := period.Parse(*req.PaymentPeriod)
		if err != nil {
			return nil, apperr.Validation("payment_period must be monthly, weekly or daily")
		}
		t.PaymentPeriod = kind
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	switch {
	case req.ClearRoom:
		t.RoomID, t.Room = nil, nil
	case req.RoomID != nil:
		room, err := s.rooms.Get(ctx, adminID, *req.RoomID)
		if err != nil {
			return nil, err
		}
		t.RoomID, t.Room = req.RoomID, room
	}

	ev, changed := occupancyEvent(adminID, t.ID, before, occupiedRoom(t))
	if changed {
		if err := s.events.Publish(ctx, ev); err != nil {
			return nil, err
		}
	}
	if err := s.tenants.Update(ctx, adminID, t); err != nil {
		s.compensate(ctx, ev, changed)
		return nil, err
	}
	s.cache.Invalidate(ctx, adminID)
	return s.tenants.Get(ctx, adminID, id)
}

// Delete removes the tenant and all of its rent records.
func (s *TenantService) Delete(ctx context.Context, adminID int, id uuid.UUID) error {
	t, err := s.tenants.Get(ctx, adminID, id)
	if err != nil {
		return err
	}

	removed, err := s.rents.DeleteByTenant(ctx, adminID, id)
	if err != nil {
		return err
	}
	if err := s.tenants.Delete(ctx, adminID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, adminID)

	if ev, changed := occupancyEvent(adminID, id, occupiedRoom(t), nil); changed {
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Error("release room after tenant delete failed",
				zap.String("tenant_id", id.String()),
				zap.Error(err))
		}
	}
	s.logger.Info("tenant deleted",
		zap.Int("admin_id", adminID),
		zap.String("tenant_id", id.String()),
		zap.Int64("rent_records_removed", removed))
	return nil
}

func (s *TenantService) compensate(ctx context.Context, ev TenantEvent, changed bool) {
	if !changed {
		return
	}
	if err := s.events.Publish(ctx, ev.reverse()); err != nil {
		s.logger.Error("occupancy compensation failed",
			zap.String("tenant_id", ev.TenantID.String()),
			zap.Error(err))
	}
}

// occupiedRoom is the room whose bed t holds, if any.
func occupiedRoom(t *models.Tenant) *uuid.UUID {
	if !t.Active || t.RoomID == nil {
		return nil
	}
	id := *t.RoomID
	return &id
}
