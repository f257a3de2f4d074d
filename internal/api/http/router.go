package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Dwisantra/simpefov2/internal/api/http/handlers"
	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Monitoring     *handlers.MonitoringHandler
	Units          *handlers.UnitsHandler
	AdminUsers     *handlers.AdminUsersHandler
	Gitlab         *handlers.GitlabHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Inbound webhook authenticates with a shared token, not a session.
	app.Post("/webhooks/gitlab", cfg.Gitlab.Webhook)

	// The registration form needs units before any account exists.
	app.Get("/units", cfg.Units.ListActive)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	session := authGroup.Group("", cfg.AuthMiddleware.Handle)
	session.Get("/me", cfg.Auth.Me)
	session.Post("/logout", cfg.Auth.Logout)
	session.Post("/password/change", cfg.Auth.ChangePassword)
	session.Post("/sign-code", cfg.Auth.SetSignCode)

	tickets := app.Group("/feature-requests", cfg.AuthMiddleware.Handle, auth.RequireVerified())
	tickets.Post("", cfg.Tickets.Submit)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/approve", cfg.Tickets.Approve)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/attachment", cfg.Tickets.DownloadAttachment)
	tickets.Put("/:id", auth.RequireAdmin(), cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.Delete)
	tickets.Post("/:id/gitlab-issue", auth.RequireAdmin(), cfg.Gitlab.CreateIssue)

	monitoring := app.Group("/monitoring", cfg.AuthMiddleware.Handle, auth.RequireVerified())
	monitoring.Get("", cfg.Monitoring.List)
	monitoring.Get("/export", cfg.Monitoring.Export)
	monitoring.Put("/:id/priority",
		auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Monitoring.SetPriority)
	monitoring.Put("/:id/development-status", auth.RequireAdmin(), cfg.Monitoring.SetDevelopmentStatus)
	monitoring.Put("/:id/release", auth.RequireAdmin(), cfg.Monitoring.SetRelease)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.AdminUsers.List)
	admin.Get("/users/:id", cfg.AdminUsers.Get)
	admin.Put("/users/:id", cfg.AdminUsers.Update)
	admin.Post("/users/:id/verify", cfg.AdminUsers.Verify)
	admin.Get("/units", cfg.Units.List)
	admin.Post("/units", cfg.Units.Create)
	admin.Put("/units/:id", cfg.Units.Update)
	admin.Delete("/units/:id", cfg.Units.Delete)
}
