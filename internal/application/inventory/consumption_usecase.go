package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

// DateLayout formato de la fecha de uso de un consumo.
const DateLayout = "2006-01-02"

// ConsumptionUseCase vincula materiales a obras. Cada vínculo vivo tiene exactamente una
// salida (out) en el libro; eliminarlo devuelve el stock con una entrada compensatoria.
type ConsumptionUseCase struct {
	exec            *Executor
	consumptionRepo repository.ConsumptionRepository
	siteRepo        repository.SiteRepository
}

// NewConsumptionUseCase construye el caso de uso.
func NewConsumptionUseCase(
	exec *Executor,
	consumptionRepo repository.ConsumptionRepository,
	siteRepo repository.SiteRepository,
) *ConsumptionUseCase {
	return &ConsumptionUseCase{exec: exec, consumptionRepo: consumptionRepo, siteRepo: siteRepo}
}

// ConsumptionInputDTO entrada para registrar un consumo en obra.
type ConsumptionInputDTO struct {
	AccountID  string
	UserID     string
	SiteID     string
	MaterialID string
	Quantity   decimal.Decimal
	UsedOn     time.Time
	Notes      string
}

// Add descuenta el stock, asienta la salida ligada a la obra y crea el vínculo, todo en una transacción.
// La suficiencia se verifica con el material bloqueado: dos consumos concurrentes nunca dejan stock negativo.
func (uc *ConsumptionUseCase) Add(ctx context.Context, input ConsumptionInputDTO) (*dto.ConsumptionResponse, error) {
	if input.MaterialID == "" {
		return nil, domain.Invalid("material_id es requerido")
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if err := inventory.ValidateAmount("la cantidad", input.Quantity); err != nil {
		return nil, err
	}
	if _, err := ownedSite(ctx, uc.siteRepo, input.AccountID, input.SiteID); err != nil {
		return nil, err
	}
	if input.UsedOn.IsZero() {
		input.UsedOn = today()
	}

	var link *entity.ConsumptionLink
	err := uc.exec.Run(ctx, OpAddConsumption, func(
		materialRepo repository.MaterialRepository,
		movementRepo repository.MovementRepository,
		consumptionRepo repository.ConsumptionRepository,
	) error {
		material, err := lockMaterial(ctx, materialRepo, input.AccountID, input.MaterialID)
		if err != nil {
			return err
		}
		newQty, err := inventory.ApplyMovement(material.Quantity, entity.MovementTypeOUT, input.Quantity, material.Unit)
		if err != nil {
			return err
		}
		if err := materialRepo.UpdateQuantity(ctx, material.ID, newQty); err != nil {
			return err
		}
		now := time.Now()
		mov := &entity.Movement{
			ID:         uuid.New().String(),
			AccountID:  input.AccountID,
			MaterialID: material.ID,
			SiteID:     input.SiteID,
			Type:       entity.MovementTypeOUT,
			Quantity:   input.Quantity,
			Reason:     input.Notes,
			CreatedAt:  now,
			CreatedBy:  input.UserID,
		}
		if err := movementRepo.Create(ctx, mov); err != nil {
			return err
		}
		link = &entity.ConsumptionLink{
			ID:         uuid.New().String(),
			AccountID:  input.AccountID,
			SiteID:     input.SiteID,
			MaterialID: material.ID,
			MovementID: mov.ID,
			Quantity:   input.Quantity,
			UsedOn:     input.UsedOn,
			Notes:      input.Notes,
			CreatedAt:  now,
			CreatedBy:  input.UserID,
		}
		return consumptionRepo.Create(ctx, link)
	})
	if err != nil {
		return nil, err
	}
	return toConsumptionResponse(link), nil
}

// Remove elimina el vínculo, devuelve la cantidad al stock y asienta una entrada
// "consumption reversed" ligada a la misma obra. Una segunda eliminación devuelve ErrNotFound.
func (uc *ConsumptionUseCase) Remove(ctx context.Context, accountID, userID, linkID string) error {
	if linkID == "" {
		return domain.Invalid("id de consumo requerido")
	}
	return uc.exec.Run(ctx, OpRemoveConsumption, func(
		materialRepo repository.MaterialRepository,
		movementRepo repository.MovementRepository,
		consumptionRepo repository.ConsumptionRepository,
	) error {
		link, err := consumptionRepo.GetByID(ctx, linkID)
		if err != nil {
			return err
		}
		if link == nil {
			return fmt.Errorf("%w: consumo %s", domain.ErrNotFound, linkID)
		}
		if link.AccountID != accountID {
			return domain.ErrForbidden
		}
		material, err := lockMaterial(ctx, materialRepo, accountID, link.MaterialID)
		if err != nil {
			return err
		}
		// Con el material bloqueado: si otro Remove ganó, el vínculo ya no está.
		if err := consumptionRepo.Delete(ctx, link.ID); err != nil {
			return err
		}
		newQty, err := inventory.ApplyMovement(material.Quantity, entity.MovementTypeIN, link.Quantity, material.Unit)
		if err != nil {
			return err
		}
		if err := materialRepo.UpdateQuantity(ctx, material.ID, newQty); err != nil {
			return err
		}
		return movementRepo.Create(ctx, &entity.Movement{
			ID:         uuid.New().String(),
			AccountID:  accountID,
			MaterialID: material.ID,
			SiteID:     link.SiteID,
			Type:       entity.MovementTypeIN,
			Quantity:   link.Quantity,
			Reason:     entity.ReasonConsumptionReversed,
			CreatedAt:  time.Now(),
			CreatedBy:  userID,
		})
	})
}

// ListBySite consumos vivos de una obra.
func (uc *ConsumptionUseCase) ListBySite(ctx context.Context, accountID, siteID string) (*dto.ConsumptionListResponse, error) {
	if _, err := ownedSite(ctx, uc.siteRepo, accountID, siteID); err != nil {
		return nil, err
	}
	list, err := uc.consumptionRepo.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ConsumptionResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toConsumptionResponse(l))
	}
	return &dto.ConsumptionListResponse{Items: items, Total: len(items)}, nil
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toConsumptionResponse(l *entity.ConsumptionLink) *dto.ConsumptionResponse {
	if l == nil {
		return nil
	}
	return &dto.ConsumptionResponse{
		ID:         l.ID,
		SiteID:     l.SiteID,
		MaterialID: l.MaterialID,
		MovementID: l.MovementID,
		Quantity:   l.Quantity,
		Date:       l.UsedOn.Format(DateLayout),
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt,
	}
}
