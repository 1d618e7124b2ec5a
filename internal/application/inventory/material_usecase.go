package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

// DefaultUnit unidad cuando el formulario no la informa.
const DefaultUnit = "unit"

// MaterialUseCase catálogo de materiales. La existencia solo cambia vía movimientos;
// aquí se crea con su cantidad inicial y se editan los demás campos.
type MaterialUseCase struct {
	exec   *Executor
	repo   repository.MaterialRepository
	locale language.Tag
}

// NewMaterialUseCase construye el caso de uso. locale define el orden alfabético de los listados.
func NewMaterialUseCase(exec *Executor, repo repository.MaterialRepository, locale language.Tag) *MaterialUseCase {
	return &MaterialUseCase{exec: exec, repo: repo, locale: locale}
}

// Create crea un material con la existencia inicial indicada.
func (uc *MaterialUseCase) Create(ctx context.Context, accountID string, in dto.CreateMaterialRequest) (_ *dto.MaterialResponse, err error) {
	start := time.Now()
	defer func() { uc.exec.Observe(OpCreateMaterial, start, err) }()

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Invalid("el nombre es obligatorio")
	}
	if in.Quantity.LessThan(decimal.Zero) {
		return nil, domain.Invalid("la cantidad no puede ser negativa")
	}
	if in.UnitPrice.LessThan(decimal.Zero) {
		return nil, domain.Invalid("el precio unitario no puede ser negativo")
	}
	if in.MinQuantity.LessThan(decimal.Zero) {
		return nil, domain.Invalid("la cantidad mínima no puede ser negativa")
	}
	if err := validateAmounts(&in.Quantity, &in.MinQuantity, &in.UnitPrice); err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = entity.CategoryOther
	}
	if !entity.ValidCategory(in.Category) {
		return nil, domain.Invalid("categoría desconocida %q", in.Category)
	}
	if strings.TrimSpace(in.Unit) == "" {
		in.Unit = DefaultUnit
	}

	now := time.Now()
	material := &entity.Material{
		ID:              uuid.New().String(),
		AccountID:       accountID,
		Name:            in.Name,
		Category:        in.Category,
		Quantity:        in.Quantity,
		InitialQuantity: in.Quantity,
		Unit:            strings.TrimSpace(in.Unit),
		MinQuantity:     in.MinQuantity,
		UnitPrice:       in.UnitPrice,
		Supplier:        strings.TrimSpace(in.Supplier),
		Location:        strings.TrimSpace(in.Location),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, material); err != nil {
		return nil, err
	}
	return toMaterialResponse(material), nil
}

// GetByID obtiene un material de la cuenta.
func (uc *MaterialUseCase) GetByID(ctx context.Context, accountID, id string) (*dto.MaterialResponse, error) {
	material, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if material, err = ownedMaterial(material, accountID, id); err != nil {
		return nil, err
	}
	return toMaterialResponse(material), nil
}

// Update aplica un parche directo de campos. No modifica la existencia (se maneja vía movimientos).
// El parche se aplica con el material bloqueado: dos parches concurrentes no se pisan.
func (uc *MaterialUseCase) Update(ctx context.Context, accountID, id string, in dto.UpdateMaterialRequest) (_ *dto.MaterialResponse, err error) {
	if err := validatePatch(&in); err != nil {
		return nil, err
	}
	var out *dto.MaterialResponse
	err = uc.exec.Run(ctx, OpUpdateMaterial, func(
		materialRepo repository.MaterialRepository,
		_ repository.MovementRepository,
		_ repository.ConsumptionRepository,
	) error {
		material, err := lockMaterial(ctx, materialRepo, accountID, id)
		if err != nil {
			return err
		}
		applyPatch(material, in)
		material.UpdatedAt = time.Now()
		if err := materialRepo.Update(ctx, material); err != nil {
			return err
		}
		out = toMaterialResponse(material)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// validatePatch normaliza y valida el parche antes de abrir la transacción.
func validatePatch(in *dto.UpdateMaterialRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Invalid("el nombre es obligatorio")
		}
		in.Name = &name
	}
	if in.Category != nil && !entity.ValidCategory(*in.Category) {
		return domain.Invalid("categoría desconocida %q", *in.Category)
	}
	if in.Unit != nil {
		unit := strings.TrimSpace(*in.Unit)
		if unit == "" {
			return domain.Invalid("la unidad es obligatoria")
		}
		in.Unit = &unit
	}
	if in.MinQuantity != nil && in.MinQuantity.LessThan(decimal.Zero) {
		return domain.Invalid("la cantidad mínima no puede ser negativa")
	}
	if in.UnitPrice != nil && in.UnitPrice.LessThan(decimal.Zero) {
		return domain.Invalid("el precio unitario no puede ser negativo")
	}
	return validateAmounts(nil, in.MinQuantity, in.UnitPrice)
}

func applyPatch(m *entity.Material, in dto.UpdateMaterialRequest) {
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Category != nil {
		m.Category = *in.Category
	}
	if in.Unit != nil {
		m.Unit = *in.Unit
	}
	if in.MinQuantity != nil {
		m.MinQuantity = *in.MinQuantity
	}
	if in.UnitPrice != nil {
		m.UnitPrice = *in.UnitPrice
	}
	if in.Supplier != nil {
		m.Supplier = strings.TrimSpace(*in.Supplier)
	}
	if in.Location != nil {
		m.Location = strings.TrimSpace(*in.Location)
	}
}

// validateAmounts aplica la escala y el rango del almacén; nil omite el campo.
func validateAmounts(quantity, minQuantity, unitPrice *decimal.Decimal) error {
	fields := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"la cantidad", quantity},
		{"la cantidad mínima", minQuantity},
		{"el precio unitario", unitPrice},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := inventory.ValidateAmount(f.name, *f.value); err != nil {
			return err
		}
	}
	return nil
}

// Delete elimina un material sin referencias. Si existe algún movimiento o consumo que lo
// referencie devuelve ErrConflict: el historial no se borra en cascada.
func (uc *MaterialUseCase) Delete(ctx context.Context, accountID, id string) error {
	return uc.exec.Run(ctx, OpDeleteMaterial, func(
		materialRepo repository.MaterialRepository,
		movementRepo repository.MovementRepository,
		consumptionRepo repository.ConsumptionRepository,
	) error {
		material, err := lockMaterial(ctx, materialRepo, accountID, id)
		if err != nil {
			return err
		}
		links, err := consumptionRepo.CountByMaterial(ctx, material.ID)
		if err != nil {
			return err
		}
		if links > 0 {
			return fmt.Errorf("%w: el material tiene %d consumo(s) en obra", domain.ErrConflict, links)
		}
		movements, err := movementRepo.CountByMaterial(ctx, material.ID)
		if err != nil {
			return err
		}
		if movements > 0 {
			return fmt.Errorf("%w: el material tiene %d movimiento(s) registrados", domain.ErrConflict, movements)
		}
		return materialRepo.Delete(ctx, material.ID)
	})
}

// List lista los materiales de la cuenta ordenados por nombre según el idioma configurado.
func (uc *MaterialUseCase) List(ctx context.Context, accountID string) (*dto.MaterialListResponse, error) {
	list, err := uc.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return uc.toListResponse(list), nil
}

// ListLowStock materiales cuya existencia está por debajo del mínimo (alertas de reposición).
func (uc *MaterialUseCase) ListLowStock(ctx context.Context, accountID string) (*dto.MaterialListResponse, error) {
	list, err := uc.repo.ListBelowMinimum(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return uc.toListResponse(list), nil
}

// Reconcile reconstruye la existencia desde la cantidad inicial y el libro de movimientos
// y la compara con la almacenada. Bloquea el material para leer un estado consistente.
func (uc *MaterialUseCase) Reconcile(ctx context.Context, accountID, id string) (*dto.ReconciliationResponse, error) {
	var out *dto.ReconciliationResponse
	err := uc.exec.Run(ctx, OpReconcileMaterial, func(
		materialRepo repository.MaterialRepository,
		movementRepo repository.MovementRepository,
		_ repository.ConsumptionRepository,
	) error {
		material, err := lockMaterial(ctx, materialRepo, accountID, id)
		if err != nil {
			return err
		}
		movs, err := movementRepo.List(ctx, repository.MovementFilter{AccountID: accountID, MaterialID: material.ID})
		if err != nil {
			return err
		}
		// El listado viene del más reciente al más antiguo; Replay necesita orden cronológico.
		chrono := make([]*entity.Movement, len(movs))
		for i, m := range movs {
			chrono[len(movs)-1-i] = m
		}
		expected := inventory.Replay(material.InitialQuantity, chrono)
		out = &dto.ReconciliationResponse{
			MaterialID:      material.ID,
			InitialQuantity: material.InitialQuantity,
			Expected:        expected,
			Actual:          material.Quantity,
			Drift:           material.Quantity.Sub(expected),
			Movements:       len(movs),
			Consistent:      material.Quantity.Equal(expected),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *MaterialUseCase) toListResponse(list []*entity.Material) *dto.MaterialListResponse {
	sortByName(list, uc.locale)
	items := make([]dto.MaterialResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMaterialResponse(m))
	}
	return &dto.MaterialListResponse{Items: items, Total: len(items)}
}

func toMaterialResponse(m *entity.Material) *dto.MaterialResponse {
	if m == nil {
		return nil
	}
	return &dto.MaterialResponse{
		ID:          m.ID,
		AccountID:   m.AccountID,
		Name:        m.Name,
		Category:    m.Category,
		Quantity:    m.Quantity,
		Unit:        m.Unit,
		MinQuantity: m.MinQuantity,
		UnitPrice:   m.UnitPrice,
		Supplier:    m.Supplier,
		Location:    m.Location,
		LowStock:    m.IsLowStock(),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
