package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/pkg/logger"
)

// ConsumptionHandler maneja consumos de material en obra y su costo (protegido).
type ConsumptionHandler struct {
	uc   *inventory.ConsumptionUseCase
	cost *inventory.CostUseCase
	log  *logger.Logger
}

// NewConsumptionHandler construye el handler.
func NewConsumptionHandler(uc *inventory.ConsumptionUseCase, cost *inventory.CostUseCase, log *logger.Logger) *ConsumptionHandler {
	return &ConsumptionHandler{uc: uc, cost: cost, log: log}
}

// AddConsumption godoc
// @Summary      Registrar consumo de material en una obra
// @Description  Descuenta la existencia y deja un movimiento de salida ligado a la obra.
// @Tags         consumptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la obra"
// @Param        body  body  dto.AddConsumptionRequest  true  "material_id, quantity, date (AAAA-MM-DD), notes"
// @Success      201   {object}  dto.ConsumptionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/sites/{id}/consumptions [post]
func (h *ConsumptionHandler) AddConsumption(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	userID := GetUserID(c)
	if accountID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AddConsumptionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddFromRequest(c.Context(), accountID, userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListConsumptions godoc
// @Summary      Listar consumos de una obra
// @Tags         consumptions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la obra"
// @Success      200  {object}  dto.ConsumptionListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sites/{id}/consumptions [get]
func (h *ConsumptionHandler) ListConsumptions(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ListBySite(c.Context(), accountID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// MaterialCost godoc
// @Summary      Costo de materiales de una obra
// @Description  Suma cantidad consumida por precio unitario actual de cada material.
// @Tags         consumptions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la obra"
// @Success      200  {object}  dto.SiteMaterialCostResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sites/{id}/material-cost [get]
func (h *ConsumptionHandler) MaterialCost(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return unauthorized(c)
	}
	out, err := h.cost.SiteMaterialCost(c.Context(), accountID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// RemoveConsumption godoc
// @Summary      Anular un consumo
// @Description  Devuelve la cantidad a la existencia con un movimiento de entrada.
// @Tags         consumptions
// @Security     Bearer
// @Param        id   path  string  true  "ID del consumo"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/consumptions/{id} [delete]
func (h *ConsumptionHandler) RemoveConsumption(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	userID := GetUserID(c)
	if accountID == "" || userID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Remove(c.Context(), accountID, userID, c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
