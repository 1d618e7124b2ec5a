package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest entrada para crear un material con su existencia inicial.
type CreateMaterialRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Category    string          `json:"category"` // plant | tool | product | equipment | other
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Supplier    string          `json:"supplier,omitempty"`
	Location    string          `json:"location,omitempty"`
}

// UpdateMaterialRequest parche de campos (sin Quantity: la existencia se maneja vía movimientos).
type UpdateMaterialRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Unit        *string          `json:"unit"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Supplier    *string          `json:"supplier"`
	Location    *string          `json:"location"`
}

// MaterialResponse salida de un material.
type MaterialResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Supplier    string          `json:"supplier,omitempty"`
	Location    string          `json:"location,omitempty"`
	LowStock    bool            `json:"low_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MaterialListResponse listado de materiales ordenado por nombre.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Total int                `json:"total"`
}

// ReconciliationResponse resultado de reconstruir la existencia desde el libro de movimientos.
type ReconciliationResponse struct {
	MaterialID      string          `json:"material_id"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	Expected        decimal.Decimal `json:"expected"` // inicial + movimientos (los ajustes reinician)
	Actual          decimal.Decimal `json:"actual"`
	Drift           decimal.Decimal `json:"drift"` // actual - expected
	Movements       int             `json:"movements"`
	Consistent      bool            `json:"consistent"`
}
