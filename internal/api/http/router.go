package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/denisCazz/visitreport-service/internal/api/http/handlers"
	"github.com/denisCazz/visitreport-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Visits *handlers.VisitsHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes. The gate runs on every request; its
// public-prefix list covers the auth endpoints, health probes and static
// assets, everything else requires a valid access token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	visits := app.Group("/api/visits")
	visits.Post("", cfg.Visits.Create)
	visits.Get("", cfg.Visits.List)
	visits.Get("/search", cfg.Visits.Search)
	visits.Get("/:id", cfg.Visits.Get)
	visits.Put("/:id", cfg.Visits.Update)

	admin := app.Group("/api/admin")
	admin.Delete("/visits/:id", cfg.Visits.Delete)
}
