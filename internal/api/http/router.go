package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/print-order-service/internal/api/http/handlers"
	"github.com/spec-kit/print-order-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Orders         *handlers.OrdersHandler
	AuthMiddleware *auth.AuthMiddleware
	UploadDir      string
	UploadBaseURL  string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Serve stored attachments directly, matching their resolved URLs.
	// Skipped when the base URL points at an external host.
	if cfg.UploadDir != "" && strings.HasPrefix(cfg.UploadBaseURL, "/") {
		app.Static(cfg.UploadBaseURL, cfg.UploadDir)
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/user", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Users.CurrentUser)

	orders := api.Group("/orders", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	orders.Post("/", cfg.Orders.Create)
	orders.Get("/", auth.RequireAdmin(), cfg.Orders.ListAll)
	orders.Get("/customer", cfg.Orders.ListOwn)
	orders.Get("/stats", auth.RequireAdmin(), cfg.Orders.StatusCounts)
	orders.Get("/:id", cfg.Orders.Get)
	orders.Patch("/:id/status", auth.RequireAdmin(), cfg.Orders.UpdateStatus)
}
