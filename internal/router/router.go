// Package router wires the HTTP routes to their handlers and
// middleware.  Three surfaces exist: the public booking API (no
// authentication), the staff area (STAFF or ADMIN token) and the admin
// area (ADMIN token only).
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/rmstudio/salon-booking/internal/config"
	"github.com/rmstudio/salon-booking/internal/handler"
	"github.com/rmstudio/salon-booking/internal/middleware"
)

// RegisterRoutes registers the unauthenticated service routes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the back-office authentication routes.
// Account registration is admin-only; everything else under /v1/auth
// is open since it is what establishes a session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	admin := e.Group("/v1/auth")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(middleware.RoleAdmin))
	admin.POST("/register", a.Register)

	me := e.Group("/v1")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.Use(middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin))
	me.GET("/me", a.Me)
}

// RegisterPublic registers the client-facing booking routes.  The
// availability reads sit behind the response cache; the reservation
// write sits behind the rate limiter so one client cannot hammer the
// slot claim.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler,
	rdb *redis.Client, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig) {

	cached := e.Group("/v1")
	cached.Use(middleware.NewRedisCache(cacheCfg, rdb))
	cached.GET("/stylists", b.ListStylists)
	cached.GET("/services", b.ListServices)
	cached.GET("/stylists/:slug/dates", b.AvailableDates)
	cached.GET("/stylists/:slug/times", b.AvailableTimes)

	limited := e.Group("/v1")
	limited.Use(middleware.NewTokenBucket(rlCfg, rdb))
	limited.POST("/appointments", b.Reserve)

	e.GET("/v1/appointments/:id/:token", b.Show)
	e.POST("/v1/appointments/:id/cancel/:token", b.Cancel)
	e.POST("/v1/appointments/:id/checkout/:token", p.Checkout)

	e.POST("/webhooks/mercadopago", p.Webhook)
	e.GET("/pagamento/sucesso", p.ReturnSuccess)
	e.GET("/pagamento/falha", p.ReturnFailure)
	e.GET("/pagamento/pendente", p.ReturnPending)
}

// RegisterStaff registers the staff appointment management routes.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	g := e.Group("/v1/staff")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin))

	g.GET("/dashboard", s.Dashboard)
	g.GET("/appointments", s.List)
	g.POST("/appointments", s.Create)
	g.GET("/appointments/:id", s.Show)
	g.POST("/appointments/:id/confirm", s.Confirm)
	g.POST("/appointments/:id/cancel", s.Cancel)
	g.POST("/appointments/:id/complete", s.Complete)
	g.GET("/clients/history", s.ClientHistory)
}

// RegisterAdmin registers schedule, catalog and reporting routes.
func RegisterAdmin(e *echo.Echo, sc *handler.ScheduleHandler, cat *handler.CatalogHandler,
	rep *handler.ReportHandler, jwtSecret string) {

	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleAdmin))

	g.POST("/slots", sc.CreateSlot)
	g.POST("/slots/generate", sc.GenerateSlots)
	g.GET("/stylists/:stylist_id/schedule", sc.DaySchedule)
	g.DELETE("/slots/:id", sc.DeleteSlot)
	g.DELETE("/slots", sc.BulkDeleteSlots)

	g.GET("/services", cat.List)
	g.POST("/services", cat.Create)
	g.PUT("/services/:id", cat.Update)
	g.POST("/services/:id/deactivate", cat.Deactivate)
	g.DELETE("/services/:id", cat.Delete)

	g.GET("/reports/revenue", rep.Revenue)
}
