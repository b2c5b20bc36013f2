// Package handler implements the HTTP request layer. Handlers bind and
// validate request bodies, run repository operations under a bounded
// timeout, and translate repository errors into HTTP status codes. All
// authorization decisions for rack visibility are delegated to the
// access filter; handlers never branch on roles themselves beyond the
// route-level gates.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/serverroom/inventory/internal/repository"
	"github.com/serverroom/inventory/internal/validate"
)

// dbTimeout bounds every repository call made from a handler so a
// stalled database surfaces as an error instead of a hung request.
const dbTimeout = 5 * time.Second

// reqContext derives a bounded context from the request.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the authenticated user id placed in the context by
// the JWT middleware. Numeric JWT claims decode as float64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim placed in the context by the JWT
// middleware.
func getRole(c echo.Context) (string, error) {
	if role, ok := c.Get("role").(string); ok && role != "" {
		return role, nil
	}
	return "", errors.New("invalid role in context")
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// writeRepoError maps repository and validation errors onto HTTP
// responses. Every handler funnels its error paths through here so the
// whole API reports failures uniformly: validation and conflicts are
// 400/409 with the verbatim message, missing records are 404, and
// anything unrecognized is a transient storage failure reported as 500.
func writeRepoError(c echo.Context, err error) error {
	var conflict *validate.ConflictError
	switch {
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrRackNotFound),
		errors.Is(err, repository.ErrEquipmentNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidRackName),
		errors.Is(err, validate.ErrInvalidSpan):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrRoomNotEmpty),
		errors.Is(err, repository.ErrRoomNameExists),
		errors.Is(err, repository.ErrUsernameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage timeout, retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
