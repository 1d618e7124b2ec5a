package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/usecase"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MaterialUC    *inventory.MaterialUseCase
	MovementUC    *inventory.RegisterMovementUseCase
	ConsumptionUC *inventory.ConsumptionUseCase
	CostUC        *inventory.CostUseCase
	SiteUC        *usecase.SiteUseCase
	JWTSecret     string
	Log           *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	// Todas las rutas requieren Bearer Token con account_id
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Materials
	materials := api.Group("/materials")
	materialHandler := NewMaterialHandler(deps.MaterialUC, log)
	materials.Post("/", materialHandler.Create)
	materials.Get("/", materialHandler.List)
	materials.Get("/low-stock", materialHandler.LowStock)
	materials.Get("/:id", materialHandler.GetByID)
	materials.Patch("/:id", materialHandler.Update)
	materials.Delete("/:id", RequireRole(RoleAdmin), materialHandler.Delete)
	materials.Get("/:id/reconciliation", materialHandler.Reconcile)

	// Inventory movements
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.MovementUC, log)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)

	// Sites y consumos de material por obra
	sites := api.Group("/sites")
	siteHandler := NewSiteHandler(deps.SiteUC, log)
	consumptionHandler := NewConsumptionHandler(deps.ConsumptionUC, deps.CostUC, log)
	sites.Post("/", siteHandler.Create)
	sites.Get("/", siteHandler.List)
	sites.Get("/:id", siteHandler.GetByID)
	sites.Put("/:id", siteHandler.Update)
	sites.Post("/:id/consumptions", consumptionHandler.AddConsumption)
	sites.Get("/:id/consumptions", consumptionHandler.ListConsumptions)
	sites.Get("/:id/material-cost", consumptionHandler.MaterialCost)

	api.Delete("/consumptions/:id", consumptionHandler.RemoveConsumption)
}
