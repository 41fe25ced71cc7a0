package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"hostel-backend/internal/models"
	"hostel-backend/pkg/utils"
)

type RoomAPI interface {
	Create(ctx context.Context, adminID int, req *models.CreateRoomRequest) (*models.Room, error)
	Get(ctx context.Context, adminID int, id uuid.UUID) (*models.Room, error)
	List(ctx context.Context, adminID int) ([]*models.Room, error)
	Update(ctx context.Context, adminID int, id uuid.UUID, req *models.UpdateRoomRequest) (*models.Room, error)
	Delete(ctx context.Context, adminID int, id uuid.UUID) error
}

type RoomHandler struct {
	Service RoomAPI
}

func NewRoomHandler(s RoomAPI) *RoomHandler {
	return &RoomHandler{Service: s}
}

func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	var req models.CreateRoomRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	room, err := h.Service.Create(r.Context(), admin, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, room)
}

func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	rooms, err := h.Service.List(r.Context(), admin)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	room, err := h.Service.Get(r.Context(), admin, id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, room)
}

func (h *RoomHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}
	var req models.UpdateRoomRequest
	if err := decode(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	room, err := h.Service.Update(r.Context(), admin, id, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, room)
}

func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	admin, ok := adminID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), admin, id); err != nil {
		utils.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
