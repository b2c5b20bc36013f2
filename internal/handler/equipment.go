package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/serverroom/inventory/internal/model"
	"github.com/serverroom/inventory/internal/queue"
	"github.com/serverroom/inventory/internal/repository"
	queue_publisher "github.com/serverroom/inventory/internal/service"
	"github.com/serverroom/inventory/internal/validate"
)

// EquipmentHandler exposes equipment placement for administrators.
// Successful placements are announced on the audit queue; a broker
// failure is logged but never fails the request, since the inventory
// write has already committed.
type EquipmentHandler struct {
	Equipment *repository.EquipmentRepo
	Racks     *repository.RackRepo
}

func NewEquipmentHandler(equipment *repository.EquipmentRepo, racks *repository.RackRepo) *EquipmentHandler {
	if equipment == nil || racks == nil {
		panic("nil repository passed to NewEquipmentHandler")
	}
	return &EquipmentHandler{Equipment: equipment, Racks: racks}
}

type equipmentReq struct {
	RackID    uint64 `json:"rack_id"`
	Name      string `json:"name"`
	Size      uint32 `json:"size"`
	StartUnit uint32 `json:"start_unit"`
}

type equipmentResp struct {
	ID        uint64 `json:"id"`
	RackID    uint64 `json:"rack_id"`
	Name      string `json:"name"`
	Size      uint32 `json:"size"`
	StartUnit uint32 `json:"start_unit"`
}

func toEquipmentResp(e *model.Equipment) equipmentResp {
	return equipmentResp{ID: e.ID, RackID: e.RackID, Name: e.Name, Size: e.Size, StartUnit: e.StartUnit}
}

func toEquipmentResps(items []model.Equipment) []equipmentResp {
	out := make([]equipmentResp, 0, len(items))
	for i := range items {
		out = append(out, toEquipmentResp(&items[i]))
	}
	return out
}

func (req *equipmentReq) validateBasics(c echo.Context) (validate.Span, bool) {
	req.Name = strings.TrimSpace(req.Name)
	if req.RackID == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "rack_id required"})
		return validate.Span{}, false
	}
	if req.Name == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
		return validate.Span{}, false
	}
	return validate.Span{StartUnit: req.StartUnit, Size: req.Size}, true
}

// announce publishes the audit event in the background with its own
// timeout; the request context may already be done by then.
func (h *EquipmentHandler) announce(actorID uint64, e *model.Equipment, action string) {
	rackName := ""
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if rack, err := h.Racks.GetByID(ctx, e.RackID); err == nil {
		rackName = rack.Name
	}
	ev := queue.EquipmentPlacedEvent{
		EquipmentID: e.ID,
		RackID:      e.RackID,
		RackName:    rackName,
		Name:        e.Name,
		StartUnit:   e.StartUnit,
		Size:        e.Size,
		ActorID:     actorID,
		Action:      action,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishEquipmentPlaced(ctx, ev); err != nil {
		log.Printf("equipment: audit publish failed: %v", err)
	}
}

// List handles GET /v1/equipment (admin, unfiltered).
func (h *EquipmentHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Equipment.List(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toEquipmentResps(items))
}

// Create handles POST /v1/equipment (admin). Placement conflicts come
// back as 409 naming the blocking item; an out-of-range or non-positive
// span is a 400.
func (h *EquipmentHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req equipmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	span, ok := req.validateBasics(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	e, err := h.Equipment.Create(ctx, req.RackID, req.Name, span)
	if err != nil {
		return writeRepoError(c, err)
	}
	go h.announce(userID, e, "created")
	return c.JSON(http.StatusCreated, toEquipmentResp(e))
}

// Update handles PUT /v1/equipment/:id (admin). The conflict check
// excludes the item itself, so an unchanged span always passes.
func (h *EquipmentHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}
	var req equipmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	span, ok := req.validateBasics(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	e, err := h.Equipment.Update(ctx, id, req.RackID, req.Name, span)
	if err != nil {
		return writeRepoError(c, err)
	}
	go h.announce(userID, e, "updated")
	return c.JSON(http.StatusOK, toEquipmentResp(e))
}

// Delete handles DELETE /v1/equipment/:id (admin).
func (h *EquipmentHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Equipment.Delete(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
