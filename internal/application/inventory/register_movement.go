package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos de stock (IN, OUT, ADJUSTMENT) de forma transaccional:
// bloqueo de la fila del material, nueva existencia y asiento en el libro, con Commit/Rollback.
type RegisterMovementUseCase struct {
	exec         *Executor
	materialRepo repository.MaterialRepository
	movementRepo repository.MovementRepository
	siteRepo     repository.SiteRepository
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	exec *Executor,
	materialRepo repository.MaterialRepository,
	movementRepo repository.MovementRepository,
	siteRepo repository.SiteRepository,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		exec:         exec,
		materialRepo: materialRepo,
		movementRepo: movementRepo,
		siteRepo:     siteRepo,
	}
}

// MovementInputDTO entrada para registrar un movimiento.
// Quantity es la magnitud para in/out y el nuevo valor absoluto para adjustment.
type MovementInputDTO struct {
	AccountID  string
	UserID     string
	MaterialID string
	SiteID     string
	Type       string
	Quantity   decimal.Decimal
	Reason     string
}

// RegisterMovement valida la entrada antes de cualquier escritura y luego, en una transacción,
// bloquea el material, calcula la nueva existencia y guarda el movimiento.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*dto.MovementResponse, error) {
	if input.MaterialID == "" {
		return nil, domain.Invalid("material_id es requerido")
	}
	if err := inventory.ValidateMovement(input.Type, input.Quantity); err != nil {
		return nil, err
	}
	if input.SiteID != "" {
		if _, err := ownedSite(ctx, uc.siteRepo, input.AccountID, input.SiteID); err != nil {
			return nil, err
		}
	}

	var mov *entity.Movement
	err := uc.exec.Run(ctx, OpRecordMovement, func(
		materialRepo repository.MaterialRepository,
		movementRepo repository.MovementRepository,
		_ repository.ConsumptionRepository,
	) error {
		material, err := lockMaterial(ctx, materialRepo, input.AccountID, input.MaterialID)
		if err != nil {
			return err
		}
		newQty, err := inventory.ApplyMovement(material.Quantity, input.Type, input.Quantity, material.Unit)
		if err != nil {
			return err
		}
		if err := materialRepo.UpdateQuantity(ctx, material.ID, newQty); err != nil {
			return err
		}
		mov = &entity.Movement{
			ID:         uuid.New().String(),
			AccountID:  input.AccountID,
			MaterialID: material.ID,
			SiteID:     input.SiteID,
			Type:       input.Type,
			Quantity:   input.Quantity,
			Reason:     input.Reason,
			CreatedAt:  time.Now(),
			CreatedBy:  input.UserID,
		}
		return movementRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	return toMovementResponse(mov), nil
}

// ListMovements devuelve los movimientos de la cuenta del más reciente al más antiguo,
// filtrando opcionalmente por material y/o obra.
func (uc *RegisterMovementUseCase) ListMovements(ctx context.Context, accountID, materialID, siteID string) (*dto.MovementListResponse, error) {
	if materialID != "" {
		material, err := uc.materialRepo.GetByID(ctx, materialID)
		if err != nil {
			return nil, err
		}
		if _, err := ownedMaterial(material, accountID, materialID); err != nil {
			return nil, err
		}
	}
	if siteID != "" {
		if _, err := ownedSite(ctx, uc.siteRepo, accountID, siteID); err != nil {
			return nil, err
		}
	}
	list, err := uc.movementRepo.List(ctx, repository.MovementFilter{
		AccountID:  accountID,
		MaterialID: materialID,
		SiteID:     siteID,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m))
	}
	return &dto.MovementListResponse{Items: items, Total: len(items)}, nil
}

func toMovementResponse(m *entity.Movement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:         m.ID,
		MaterialID: m.MaterialID,
		SiteID:     m.SiteID,
		Type:       m.Type,
		Quantity:   m.Quantity,
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
		CreatedBy:  m.CreatedBy,
	}
}
