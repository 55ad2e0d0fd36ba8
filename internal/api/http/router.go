package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/helpdesk/internal/api/http/handlers"
	"github.com/civicdesk/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Stats          *handlers.StatsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics serves the Prometheus exposition when set.
	Metrics   fiber.Handler
	UploadDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}
	if cfg.UploadDir != "" {
		app.Static(handlers.UploadsRoute, cfg.UploadDir)
	}
	app.Get("/meta/catalog", handlers.Catalog)

	requireUser := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", requireUser, cfg.Auth.Logout)
	authGroup.Get("/is-auth", requireUser, cfg.Auth.IsAuth)
	authGroup.Post("/change-password", requireUser, cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", requireUser)
	tickets.Post("/create", cfg.Tickets.CreateTicket)
	tickets.Post("/assign", auth.RequireAdmin(), cfg.Tickets.AssignTicket)
	tickets.Post("/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/reopen", cfg.Tickets.ReopenTicket)
	tickets.Post("/comment", cfg.Tickets.AddComment)
	tickets.Get("/my-submitted", cfg.Tickets.ListSubmitted)
	tickets.Get("/my-assigned", cfg.Tickets.ListAssigned)
	tickets.Get("/all", auth.RequireAdmin(), cfg.Tickets.ListAll)
	tickets.Get("/summary", auth.RequireAdmin(), cfg.Stats.AdminSummary)
	tickets.Get("/my-summary", cfg.Stats.SubmittedSummary)
	tickets.Get("/my-assigned-summary", cfg.Stats.AssignedSummary)
	tickets.Get("/export", cfg.Tickets.Export)
	tickets.Get("/:ticketId", cfg.Tickets.GetTicket)

	admin := app.Group("/admin", requireUser, auth.RequireAdmin())
	admin.Post("/create-user", cfg.Admin.CreateUser)
	admin.Post("/assign-department", cfg.Admin.AssignDepartment)
	admin.Post("/update-role", cfg.Admin.UpdateRole)
	admin.Get("/users", cfg.Admin.ListUsers)

	stats := app.Group("/stats")
	stats.Get("/public", cfg.Stats.Public)
	stats.Get("/public/summary", cfg.Stats.PublicSummary)
}
