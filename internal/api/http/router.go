package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/garage-kit/shop-service/internal/api/http/handlers"
	"github.com/garage-kit/shop-service/internal/auth"
	"github.com/garage-kit/shop-service/internal/domain"
)

// RouteConfig bundles everything the router needs.
type RouteConfig struct {
	AuthMiddleware *auth.AuthMiddleware
	AuthRateLimit  int
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Vehicles       *handlers.VehiclesHandler
	Jobs           *handlers.JobsHandler
	Inventory      *handlers.InventoryHandler
	Invoices       *handlers.InvoicesHandler
	Admin          *handlers.AdminHandler
}

// RegisterRoutes wires all endpoints onto the app.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/healthz", cfg.Health.Live)
	app.Get("/readyz", cfg.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth", AuthRateLimiter(cfg.AuthRateLimit))
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password-reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password-reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authed := api.Group("", cfg.AuthMiddleware.Handle)
	authed.Post("/auth/logout", cfg.Auth.Logout)
	authed.Post("/auth/password", cfg.Auth.ChangePassword)

	authed.Post("/vehicles", auth.RequireRole(domain.RoleCustomer), cfg.Vehicles.Register)
	authed.Get("/vehicles", auth.RequireRole(domain.RoleCustomer), cfg.Vehicles.ListOwn)
	authed.Get("/vehicles/:id", cfg.Vehicles.Get)

	authed.Post("/jobs", auth.RequireRole(domain.RoleCustomer), cfg.Jobs.Create)
	authed.Get("/jobs", cfg.Jobs.ListMine)
	authed.Get("/jobs/:id", cfg.Jobs.Get)
	authed.Post("/jobs/:id/start", auth.RequireRole(domain.RoleTechnician), cfg.Jobs.Start)
	authed.Post("/jobs/:id/complete", auth.RequireRole(domain.RoleTechnician), cfg.Jobs.Complete)
	authed.Post("/jobs/:id/cancel", cfg.Jobs.Cancel)

	authed.Get("/categories", cfg.Inventory.ListCategories)
	authed.Get("/parts", cfg.Inventory.ListParts)

	authed.Get("/invoices", cfg.Invoices.ListMine)
	authed.Get("/invoices/:id", cfg.Invoices.Get)

	staff := authed.Group("/staff", auth.RequireRole(domain.RoleManager, domain.RoleAdmin))
	staff.Get("/jobs", cfg.Jobs.Search)
	staff.Post("/jobs/:id/assign", cfg.Jobs.Assign)
	staff.Post("/jobs/:id/invoice", cfg.Invoices.Issue)
	staff.Post("/invoices/:id/pay", cfg.Invoices.MarkPaid)
	staff.Post("/invoices/:id/void", cfg.Invoices.Void)
	staff.Post("/categories", cfg.Inventory.CreateCategory)
	staff.Put("/categories/:id", cfg.Inventory.UpdateCategory)
	staff.Post("/parts", cfg.Inventory.CreatePart)
	staff.Post("/parts/:id/stock", cfg.Inventory.AdjustStock)

	admin := authed.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsersInRole)
	admin.Get("/users/:id", cfg.Admin.GetUser)
	admin.Put("/users/:id/role", cfg.Admin.ChangeRole)
}
