package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/serverroom/inventory/internal/model"
	"github.com/serverroom/inventory/internal/repository"
)

// RoomHandler exposes room CRUD for administrators.
type RoomHandler struct {
	Rooms *repository.RoomRepo
	Racks *repository.RackRepo
}

func NewRoomHandler(rooms *repository.RoomRepo, racks *repository.RackRepo) *RoomHandler {
	if rooms == nil || racks == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms, Racks: racks}
}

type roomReq struct {
	Name string `json:"name"`
}

type roomResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func toRoomResp(r *model.Room) roomResp {
	return roomResp{ID: r.ID, Name: r.Name}
}

// List handles GET /v1/rooms.
func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	rooms, err := h.Rooms.List(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]roomResp, 0, len(rooms))
	for i := range rooms {
		out = append(out, toRoomResp(&rooms[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	room, err := h.Rooms.Create(ctx, req.Name)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, toRoomResp(room))
}

// Update handles PUT /v1/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	room, err := h.Rooms.Update(ctx, id, req.Name)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toRoomResp(room))
}

// Delete handles DELETE /v1/rooms/:id. Rooms still containing racks are
// rejected with 409 rather than cascading.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Rooms.Delete(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRacks handles GET /v1/rooms/:id/racks (admin: the settings page
// groups racks by room).
func (h *RoomHandler) ListRacks(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Rooms.GetByID(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	racks, err := h.Racks.ListByRoom(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toRackResps(racks))
}
