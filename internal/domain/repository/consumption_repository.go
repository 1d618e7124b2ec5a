package repository

import (
	"context"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SiteCostLine resultado crudo del costo de materiales de una obra, agrupado por material.
// Lo produce el almacén; el caso de uso calcula subtotales y total.
type SiteCostLine struct {
	MaterialID   string
	MaterialName string
	Unit         string
	Quantity     decimal.Decimal // suma de consumos vivos
	UnitPrice    decimal.Decimal // precio actual del catálogo
}

// ConsumptionRepository puerto de persistencia de los consumos de material por obra.
type ConsumptionRepository interface {
	Create(ctx context.Context, link *entity.ConsumptionLink) error
	GetByID(ctx context.Context, id string) (*entity.ConsumptionLink, error)
	// Delete elimina el vínculo; devuelve domain.ErrNotFound si ya no existe.
	Delete(ctx context.Context, id string) error
	ListBySite(ctx context.Context, siteID string) ([]*entity.ConsumptionLink, error)
	CountByMaterial(ctx context.Context, materialID string) (int, error)
	CostLinesBySite(ctx context.Context, siteID string) ([]SiteCostLine, error)
}
