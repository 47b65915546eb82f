package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itops/support-portal/internal/api/http/handlers"
	"github.com/itops/support-portal/internal/auth"
	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Attachments    *handlers.AttachmentsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(
			cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	app.Post("/auth/register", cfg.Users.Register)
	app.Post("/auth/login", cfg.Users.Login)

	authed := app.Group("", cfg.AuthMiddleware.Handle)
	authed.Get("/users/me", cfg.Users.Me)

	tickets := authed.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/transitions", cfg.Tickets.Transition)
	tickets.Put("/:id/assignee", auth.RequireStaff(), cfg.Tickets.Assign)
	tickets.Put("/:id/priority", auth.RequireStaff(), cfg.Tickets.ChangePriority)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/attachments", cfg.Attachments.Upload)
	tickets.Get("/:id/attachments", cfg.Attachments.List)

	attachments := authed.Group("/attachments")
	attachments.Get("/:id", cfg.Attachments.Download)
	attachments.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Attachments.Delete)

	reports := authed.Group("/reports", auth.RequireStaff())
	reports.Get("/counts", cfg.Reports.Counts)
	reports.Get("/activity", cfg.Reports.Activity)
	reports.Get("/sla", cfg.Reports.SLA)
	reports.Get("/export.csv", cfg.Reports.Export)

	admin := authed.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Users.List)
	admin.Get("/users/:id", cfg.Users.Get)
	admin.Put("/users/:id/role", cfg.Users.ChangeRole)
	admin.Put("/users/:id/active", cfg.Users.SetActive)
}
