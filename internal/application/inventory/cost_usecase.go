package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

// CostUseCase costo de materiales por obra.
type CostUseCase struct {
	exec            *Executor
	consumptionRepo repository.ConsumptionRepository
	siteRepo        repository.SiteRepository
}

func NewCostUseCase(exec *Executor, consumptionRepo repository.ConsumptionRepository, siteRepo repository.SiteRepository) *CostUseCase {
	return &CostUseCase{exec: exec, consumptionRepo: consumptionRepo, siteRepo: siteRepo}
}

// SiteMaterialCost suma cantidad × precio unitario actual de cada consumo vivo de la obra.
// Sin consumos el total es cero. Usa el precio vigente del catálogo, no el del momento del consumo.
func (uc *CostUseCase) SiteMaterialCost(ctx context.Context, accountID, siteID string) (_ *dto.SiteMaterialCostResponse, err error) {
	start := time.Now()
	defer func() { uc.exec.Observe(OpSiteMaterialCost, start, err) }()

	if _, err := ownedSite(ctx, uc.siteRepo, accountID, siteID); err != nil {
		return nil, err
	}
	lines, err := uc.consumptionRepo.CostLinesBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	out := &dto.SiteMaterialCostResponse{
		SiteID: siteID,
		Lines:  make([]dto.SiteCostLineDTO, 0, len(lines)),
		Total:  decimal.Zero,
	}
	for _, l := range lines {
		subtotal := l.Quantity.Mul(l.UnitPrice)
		out.Lines = append(out.Lines, dto.SiteCostLineDTO{
			MaterialID:   l.MaterialID,
			MaterialName: l.MaterialName,
			Unit:         l.Unit,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Subtotal:     subtotal,
		})
		out.Total = out.Total.Add(subtotal)
	}
	return out, nil
}
