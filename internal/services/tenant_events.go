package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hostel-backend/internal/apperr"
)

type TenantEventType string

const (
	TenantAdded   TenantEventType = "TenantAdded"
	TenantRemoved TenantEventType = "TenantRemoved"
	TenantMoved   TenantEventType = "TenantMoved"
)

// TenantEvent describes a change in which room a tenant occupies. Only
// active tenants occupy a bed.
type TenantEvent struct {
	Type     TenantEventType
	AdminID  int
	TenantID uuid.UUID
	FromRoom *uuid.UUID
	ToRoom   *uuid.UUID
}

// EventPublisher delivers tenant events. Publish returns once the event has
// been handled; an error means the change must not go ahead.
type EventPublisher interface {
	Publish(ctx context.Context, ev TenantEvent) error
}

// occupancyEvent works out the event for a tenant going from one
// occupancy to another, or false when nothing changed.
func occupancyEvent(adminID int, tenantID uuid.UUID, before, after *uuid.UUID) (TenantEvent, bool) {
	ev := TenantEvent{AdminID: adminID, TenantID: tenantID, FromRoom: before, ToRoom: after}
	switch {
	case before == nil && after == nil:
		return ev, false
	case before == nil:
		ev.Type = TenantAdded
	case after == nil:
		ev.Type = TenantRemoved
	case *before == *after:
		return ev, false
	default:
		ev.Type = TenantMoved
	}
	return ev, true
}

// reverse undoes ev, used when the tenant write fails after the event was
// handled.
func (ev TenantEvent) reverse() TenantEvent {
	out := ev
	out.FromRoom, out.ToRoom = ev.ToRoom, ev.FromRoom
	switch ev.Type {
	case TenantAdded:
		out.Type = TenantRemoved
	case TenantRemoved:
		out.Type = TenantAdded
	}
	return out
}

// OccupancyUpdater keeps room.occupiedBeds equal to the number of active
// tenants in the room.
type OccupancyUpdater struct {
	rooms  RoomStore
	logger *zap.Logger
}

func NewOccupancyUpdater(rooms RoomStore, logger *zap.Logger) *OccupancyUpdater {
	return &OccupancyUpdater{rooms: rooms, logger: logger.Named("occupancy")}
}

func (u *OccupancyUpdater) Publish(ctx context.Context, ev TenantEvent) error {
	switch ev.Type {
	case TenantAdded:
		return u.rooms.AdjustOccupiedBeds(ctx, ev.AdminID, *ev.ToRoom, 1)
	case TenantRemoved:
		return u.rooms.AdjustOccupiedBeds(ctx, ev.AdminID, *ev.FromRoom, -1)
	case TenantMoved:
		if err := u.rooms.AdjustOccupiedBeds(ctx, ev.AdminID, *ev.ToRoom, 1); err != nil {
			return err
		}
		if err := u.rooms.AdjustOccupiedBeds(ctx, ev.AdminID, *ev.FromRoom, -1); err != nil {
			u.logger.Error("release old room failed",
				zap.String("tenant_id", ev.TenantID.String()),
				zap.String("room_id", ev.FromRoom.String()),
				zap.Error(err))
			// the move did not happen; give the new bed back
			if uerr := u.rooms.AdjustOccupiedBeds(ctx, ev.AdminID, *ev.ToRoom, -1); uerr != nil {
				u.logger.Error("undo new room failed",
					zap.String("tenant_id", ev.TenantID.String()),
					zap.String("room_id", ev.ToRoom.String()),
					zap.Error(uerr))
			}
			return err
		}
		return nil
	default:
		return apperr.Validation("unknown tenant event %q", ev.Type)
	}
}
