package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/serverroom/inventory/internal/config"
	"github.com/serverroom/inventory/internal/model"
	"github.com/serverroom/inventory/internal/queue"
	"github.com/serverroom/inventory/internal/repository"
	queue_publisher "github.com/serverroom/inventory/internal/service"
)

// UserHandler exposes user management and per-user rack grants, both
// admin-only. Grant sets are replaced wholesale: the request carries
// the complete new set and the store installs it atomically.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Grants *repository.GrantRepo
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, grants *repository.GrantRepo) *UserHandler {
	if users == nil || grants == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: users, Grants: grants}
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // admin | user
}

type updateUserReq struct {
	Username string  `json:"username"`
	Password *string `json:"password"` // nil keeps the current password
	Role     string  `json:"role"`
}

type grantsReq struct {
	RackIDs []uint64 `json:"rack_ids"`
}

func normalizeRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case model.RoleAdmin:
		return model.RoleAdmin, true
	case model.RoleUser, "":
		return model.RoleUser, true
	}
	return "", false
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	role, ok := normalizeRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or user"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Username, req.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, userPart{ID: u.ID, Username: u.Username, Role: u.Role})
}

// List handles GET /v1/users. Password hashes never leave the handler.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, userPart{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/users/:id. The password only changes when the
// body carries one.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	role, ok := normalizeRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or user"})
	}
	if req.Password != nil && *req.Password == "" {
		req.Password = nil // empty string means "keep current password"
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	u, err := h.Users.Update(ctx, id, req.Username, role, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Username: u.Username, Role: u.Role})
}

// Delete handles DELETE /v1/users/:id. Grants and refresh tokens are
// removed in the same transaction as the user row.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRacks handles GET /v1/users/:id/racks: the racks currently
// granted to that user.
func (h *UserHandler) ListRacks(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return writeRepoError(c, err)
	}
	racks, err := h.Grants.ListByUser(ctx, id)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, toRackResps(racks))
}

// ReplaceRacks handles PUT /v1/users/:id/racks. The body's rack_ids is
// the complete new grant set; an empty list revokes everything. If any
// rack id is unknown the previous set stays untouched.
func (h *UserHandler) ReplaceRacks(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req grantsReq
	if err := c.Bind(&req); err != nil || req.RackIDs == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rack_ids required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Grants.ReplaceForUser(ctx, id, req.RackIDs); err != nil {
		return writeRepoError(c, err)
	}
	go h.announceGrants(actorID, id, req.RackIDs)
	return c.JSON(http.StatusOK, echo.Map{"message": "rack permissions updated"})
}

func (h *UserHandler) announceGrants(actorID, userID uint64, rackIDs []uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	ev := queue.GrantsReplacedEvent{
		UserID:     userID,
		RackIDs:    rackIDs,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishGrantsReplaced(ctx, ev); err != nil {
		log.Printf("grants: audit publish failed: %v", err)
	}
}
