package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddConsumptionRequest body para POST /api/sites/:id/consumptions.
type AddConsumptionRequest struct {
	MaterialID string          `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Date       string          `json:"date"` // AAAA-MM-DD; vacío = hoy
	Notes      string          `json:"notes,omitempty"`
}

// ConsumptionResponse salida de un consumo de material en obra.
type ConsumptionResponse struct {
	ID         string          `json:"id"`
	SiteID     string          `json:"site_id"`
	MaterialID string          `json:"material_id"`
	MovementID string          `json:"movement_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Date       string          `json:"date"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ConsumptionListResponse consumos de una obra.
type ConsumptionListResponse struct {
	Items []ConsumptionResponse `json:"items"`
	Total int                   `json:"total"`
}

// SiteCostLineDTO costo de un material en una obra al precio actual del catálogo.
type SiteCostLineDTO struct {
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// SiteMaterialCostResponse costo total de materiales de una obra.
type SiteMaterialCostResponse struct {
	SiteID string            `json:"site_id"`
	Lines  []SiteCostLineDTO `json:"lines"`
	Total  decimal.Decimal   `json:"total"`
}
