package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostel-backend/internal/apperr"
	"hostel-backend/internal/models"
)

type RoomRepository struct {
	DB *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{DB: db}
}

const roomColumns = `id, admin_id, room_number, floor, type, capacity, occupied_beds, rent, created_at, updated_at`

func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO rooms(id, admin_id, room_number, floor, type, capacity, occupied_beds, rent)
         VALUES($1, $2, $3, $4, $5, $6, 0, $7)
         RETURNING occupied_beds, created_at, updated_at`,
		room.ID, room.AdminID, room.RoomNumber, room.Floor, room.Type, room.Capacity, room.Rent,
	).Scan(&room.OccupiedBeds, &room.CreatedAt, &room.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Validation("room %s already exists", room.RoomNumber)
	}
	if err != nil {
		return apperr.Dependency("create room", err)
	}
	return nil
}

// Get loads a room owned by adminID.
func (r *RoomRepository) Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Room, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, id)
	room, err := scanRoom(row)
	if isNoRows(err) {
		return nil, apperr.NotFound("room %s not found", id)
	}
	if err != nil {
		return nil, apperr.Dependency("load room", err)
	}
	if room.AdminID != adminID {
		return nil, apperr.Unauthorized("room %s belongs to another admin", id)
	}
	return room, nil
}

func (r *RoomRepository) List(ctx context.Context, adminID int) ([]*models.Room, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE admin_id=$1 ORDER BY floor, room_number`, adminID)
	if err != nil {
		return nil, apperr.Dependency("list rooms", err)
	}
	defer rows.Close()

	rooms := []*models.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, apperr.Dependency("scan room", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepository) Update(ctx context.Context, adminID int, room *models.Room) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE rooms SET room_number=$3, floor=$4, type=$5, capacity=$6, rent=$7, updated_at=NOW()
         WHERE id=$1 AND admin_id=$2`,
		room.ID, adminID, room.RoomNumber, room.Floor, room.Type, room.Capacity, room.Rent)
	if isUniqueViolation(err) {
		return apperr.Validation("room %s already exists", room.RoomNumber)
	}
	if err != nil {
		return apperr.Dependency("update room", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("room %s not found", room.ID)
	}
	return nil
}

// Delete removes an empty room.
func (r *RoomRepository) Delete(ctx context.Context, adminID int, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM rooms WHERE id=$1 AND admin_id=$2 AND occupied_beds=0`, id, adminID)
	if err != nil {
		return apperr.Dependency("delete room", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Validation("room %s not found or still occupied", id)
	}
	return nil
}

// AdjustOccupiedBeds moves the occupancy counter by delta. Increments fail
// with a validation error when the room is already full; decrements floor
// at zero.
func (r *RoomRepository) AdjustOccupiedBeds(ctx context.Context, adminID int, roomID uuid.UUID, delta int) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE rooms SET occupied_beds = GREATEST(occupied_beds + $3, 0), updated_at=NOW()
         WHERE id=$1 AND admin_id=$2 AND ($3 <= 0 OR occupied_beds + $3 <= capacity)`,
		roomID, adminID, delta)
	if err != nil {
		return apperr.Dependency("adjust room occupancy", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Validation("room %s is full", roomID)
	}
	return nil
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var room models.Room
	err := row.Scan(&room.ID, &room.AdminID, &room.RoomNumber, &room.Floor, &room.Type,
		&room.Capacity, &room.OccupiedBeds, &room.Rent, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
