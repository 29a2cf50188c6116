package router // route registration for the booking API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sekoucamara/bus-reservation/internal/config"
	"github.com/sekoucamara/bus-reservation/internal/handler"
	"github.com/sekoucamara/bus-reservation/internal/middleware"
	"github.com/sekoucamara/bus-reservation/internal/model"
)

// Handlers bundles every handler the API mounts. All fields must be
// non-nil; rdb may be nil, which disables the Redis middleware.
type Handlers struct {
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Scans        *handler.ScanHandler
	Payments     *handler.PaymentHandler
	Trips        *handler.TripHandler
	Availability *handler.AvailabilityHandler
	Settings     *handler.SettingsHandler
}

// Register mounts the full HTTP surface:
//
//	public:    healthz, availability lookups (response-cached)
//	auth:      staff login
//	staff:     reservation lifecycle, payments, scans (rate-limited)
//	admin:     trip management, settings reload, refunds
func Register(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Availability is public and read-heavy; serve it through the Redis
	// response cache when one is configured.
	cacheCfg := config.LoadCacheConfig()
	pub := e.Group("/v1", middleware.ResponseCache(cacheCfg, rdb))
	pub.GET("/schedules/:id/availability", h.Availability.BySchedule)
	pub.GET("/trips/:id/availability", h.Availability.ByTrip)

	e.POST("/v1/auth/login", h.Auth.Login)

	// Everything below requires a staff token.
	staff := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))

	booking := staff.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent))
	booking.POST("/reservations", h.Reservations.Create)
	booking.GET("/reservations/:code", h.Reservations.Get)
	booking.POST("/reservations/:code/confirm", h.Reservations.Confirm)
	booking.POST("/reservations/:code/cancel", h.Reservations.Cancel)
	booking.POST("/reservations/:code/payment/complete", h.Payments.Complete)
	booking.POST("/reservations/:code/payment/fail", h.Payments.Fail)

	// Gate scans run from handheld devices in the field; the token bucket
	// keeps a wedged device from flooding the database.
	rateCfg := config.LoadRateLimitConfig()
	gate := staff.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDriver),
		middleware.RateLimit(rateCfg, rdb))
	gate.POST("/tickets/:code/scan", h.Scans.Scan)

	transit := staff.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleAgent, model.RoleDriver))
	transit.GET("/trips/:id", h.Trips.Get)
	transit.PATCH("/trips/:id/status", h.Trips.UpdateStatus)

	admin := staff.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/users", h.Auth.CreateStaff)
	admin.POST("/trips", h.Trips.Create)
	admin.POST("/reservations/:code/payment/refund", h.Payments.Refund)
	admin.POST("/settings/reload", h.Settings.Reload)
}
