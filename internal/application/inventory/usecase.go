package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
)

// RegisterMovementFromRequest adapta el body HTTP al caso de uso (accountID/userID vienen del JWT).
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, accountID, userID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	return uc.RegisterMovement(ctx, MovementInputDTO{
		AccountID:  accountID,
		UserID:     userID,
		MaterialID: strings.TrimSpace(in.MaterialID),
		SiteID:     strings.TrimSpace(in.SiteID),
		Type:       strings.ToLower(strings.TrimSpace(in.Type)),
		Quantity:   in.Quantity,
		Reason:     strings.TrimSpace(in.Reason),
	})
}

// AddFromRequest adapta el body HTTP de un consumo. Fecha vacía = hoy (UTC).
func (uc *ConsumptionUseCase) AddFromRequest(ctx context.Context, accountID, userID, siteID string, in dto.AddConsumptionRequest) (*dto.ConsumptionResponse, error) {
	var usedOn time.Time
	if d := strings.TrimSpace(in.Date); d != "" {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return nil, domain.Invalid("fecha inválida %q, se espera AAAA-MM-DD", d)
		}
		usedOn = t
	}
	return uc.Add(ctx, ConsumptionInputDTO{
		AccountID:  accountID,
		UserID:     userID,
		SiteID:     siteID,
		MaterialID: strings.TrimSpace(in.MaterialID),
		Quantity:   in.Quantity,
		UsedOn:     usedOn,
		Notes:      strings.TrimSpace(in.Notes),
	})
}
