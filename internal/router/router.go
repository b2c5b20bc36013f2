// Package router defines how HTTP routes are registered for the API.
// Routes are grouped by audience: unauthenticated (health, login),
// authenticated (scoped rack reads), and administrative (all CRUD plus
// user and grant management).
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/serverroom/inventory/internal/config"
	"github.com/serverroom/inventory/internal/handler"
	"github.com/serverroom/inventory/internal/middleware"
	"github.com/serverroom/inventory/internal/model"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Login and
// refresh live under /v1/auth and need no session; /v1/me requires a
// valid access token. No identity exists yet on the /v1/auth routes, so
// the limiter buckets them by client ip.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleUser), limit)
	auth.GET("/me", a.Me)
}

// RegisterInventory registers the rack views every authenticated user
// gets. The handlers scope results through the access filter, so admins
// see everything and users see their grants; the routes themselves are
// identical for both roles.
func RegisterInventory(e *echo.Echo, racks *handler.RackHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	// the limiter runs after JWTAuth so user-keyed buckets see the
	// authenticated id instead of falling back to the anonymous bucket
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleUser), limit)

	// Grant-scoped responses vary by caller, so the shared response
	// cache would leak racks across users; these reads stay uncached.
	g.GET("/racks", racks.List)
	g.GET("/racks/:id", racks.Get)
	g.GET("/racks/:id/equipment", racks.ListEquipment)
}

// RegisterAdmin registers the administrative CRUD surface. Listing
// endpoints go through the Redis response cache; responses here are
// identical for every admin, so a shared cache is safe.
func RegisterAdmin(e *echo.Echo, rooms *handler.RoomHandler, racks *handler.RackHandler,
	equipment *handler.EquipmentHandler, users *handler.UserHandler,
	jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client, limit echo.MiddlewareFunc) {

	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin), limit)
	cached := middleware.NewRedisCache(cacheCfg, rdb)

	g.GET("/rooms", rooms.List, cached)
	g.POST("/rooms", rooms.Create)
	g.PUT("/rooms/:id", rooms.Update)
	g.DELETE("/rooms/:id", rooms.Delete)
	g.GET("/rooms/:id/racks", rooms.ListRacks, cached)

	g.POST("/racks", racks.Create)
	g.PUT("/racks/:id", racks.Update)
	g.DELETE("/racks/:id", racks.Delete)

	g.GET("/equipment", equipment.List, cached)
	g.POST("/equipment", equipment.Create)
	g.PUT("/equipment/:id", equipment.Update)
	g.DELETE("/equipment/:id", equipment.Delete)

	g.GET("/users", users.List)
	g.POST("/users", users.Create)
	g.PUT("/users/:id", users.Update)
	g.DELETE("/users/:id", users.Delete)
	g.GET("/users/:id/racks", users.ListRacks)
	g.PUT("/users/:id/racks", users.ReplaceRacks)
}
