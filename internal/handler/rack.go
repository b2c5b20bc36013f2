package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/serverroom/inventory/internal/access"
	"github.com/serverroom/inventory/internal/model"
	"github.com/serverroom/inventory/internal/repository"
	"github.com/serverroom/inventory/internal/validate"
)

// RackHandler exposes rack CRUD (admin) and the grant-scoped rack
// listing every authenticated user gets. Visibility always goes
// through the access filter.
type RackHandler struct {
	Racks     *repository.RackRepo
	Equipment *repository.EquipmentRepo
	Filter    *access.Filter
}

func NewRackHandler(racks *repository.RackRepo, equipment *repository.EquipmentRepo, filter *access.Filter) *RackHandler {
	if racks == nil || equipment == nil || filter == nil {
		panic("nil dependency passed to NewRackHandler")
	}
	return &RackHandler{Racks: racks, Equipment: equipment, Filter: filter}
}

type rackReq struct {
	RoomID   uint64  `json:"room_id"`
	Name     string  `json:"name"`
	Owner    *string `json:"owner"`
	PDULeft  *string `json:"pdu_left"`
	PDURight *string `json:"pdu_right"`
}

type rackResp struct {
	ID       uint64  `json:"id"`
	RoomID   uint64  `json:"room_id"`
	Name     string  `json:"name"`
	Owner    *string `json:"owner,omitempty"`
	PDULeft  *string `json:"pdu_left,omitempty"`
	PDURight *string `json:"pdu_right,omitempty"`
	Units    uint32  `json:"units"` // rack height so UIs can draw the grid
}

func toRackResp(r *model.Rack) rackResp {
	return rackResp{
		ID:       r.ID,
		RoomID:   r.RoomID,
		Name:     r.Name,
		Owner:    r.Owner,
		PDULeft:  r.PDULeft,
		PDURight: r.PDURight,
		Units:    validate.RackUnits,
	}
}

func toRackResps(racks []model.Rack) []rackResp {
	out := make([]rackResp, 0, len(racks))
	for i := range racks {
		out = append(out, toRackResp(&racks[i]))
	}
	return out
}

// List handles GET /v1/racks: all racks for admins, granted racks for
// everyone else.
func (h *RackHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	racks, err := h.Filter.VisibleRacks(ctx, role, userID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toRackResps(racks))
}

// Get handles GET /v1/racks/:id, applying the same visibility policy as
// the listing.
func (h *RackHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rack id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	visible, err := h.Filter.CanSeeRack(ctx, role, userID, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	if !visible {
		// hidden racks read as absent, not forbidden
		return c.JSON(http.StatusNotFound, echo.Map{"error": repository.ErrRackNotFound.Error()})
	}
	rack, err := h.Racks.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toRackResp(rack))
}

// ListEquipment handles GET /v1/racks/:id/equipment with the same
// visibility policy as the rack itself.
func (h *RackHandler) ListEquipment(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rack id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	visible, err := h.Filter.CanSeeRack(ctx, role, userID, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	if !visible {
		return c.JSON(http.StatusNotFound, echo.Map{"error": repository.ErrRackNotFound.Error()})
	}
	if _, err := h.Racks.GetByID(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	items, err := h.Equipment.ListByRack(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toEquipmentResps(items))
}

// Create handles POST /v1/racks (admin).
func (h *RackHandler) Create(c echo.Context) error {
	var req rackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rack, err := h.Racks.Create(ctx, req.RoomID, req.Name, req.Owner, req.PDULeft, req.PDURight)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, toRackResp(rack))
}

// Update handles PUT /v1/racks/:id (admin).
func (h *RackHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rack id"})
	}
	var req rackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rack, err := h.Racks.Update(ctx, id, req.RoomID, req.Name, req.Owner, req.PDULeft, req.PDURight)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toRackResp(rack))
}

// Delete handles DELETE /v1/racks/:id (admin). Equipment and grants go
// with the rack in one transaction.
func (h *RackHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rack id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Racks.Delete(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
