// Package routes wires the ops API.
package routes

import (
	"disburse/internal/handlers"
	"disburse/internal/middleware"
	"disburse/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Deps are the collaborators behind the ops API.
type Deps struct {
	JWTSecret     string
	Logger        zerolog.Logger
	Health        map[string]handlers.Check
	Runs          handlers.RunTrigger
	Reports       handlers.RunReports
	Merchants     handlers.MerchantLookup
	Disbursements handlers.DisbursementLister
	Orders        handlers.PendingOrderSummary
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, d Deps) {
	health := handlers.NewHealthHandler(d.Health)
	runs := handlers.NewRunHandler(d.Runs, d.Reports, d.Logger)
	merchants := handlers.NewMerchantHandler(d.Merchants, d.Disbursements, d.Orders, d.Logger)
	auth := middleware.NewAuthMiddleware(d.JWTSecret, d.Logger)

	app.Get("/health", health.HealthCheck)

	api := app.Group("/api", auth.Handler, middleware.RequireRole(models.RoleOperator))

	api.Post("/runs", runs.TriggerRun)
	api.Get("/runs/last", runs.LastRun)
	api.Get("/runs/:id", runs.GetRun)

	merchant := api.Group("/merchants/:reference")
	merchant.Get("/disbursements", merchants.ListDisbursements)
	merchant.Get("/orders/pending", merchants.PendingOrders)
}
