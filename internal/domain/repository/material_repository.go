package repository

import (
	"context"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MaterialRepository define el puerto de persistencia para Material (DIP).
// Los métodos devuelven (nil, nil) cuando el registro no existe.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	// GetForUpdate obtiene el material y lo bloquea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Material, error)
	// Update aplica un parche de campos; nunca toca Quantity.
	Update(ctx context.Context, material *entity.Material) error
	// UpdateQuantity fija la existencia; solo la usa el motor de movimientos.
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
	ListByAccount(ctx context.Context, accountID string) ([]*entity.Material, error)
	// ListBelowMinimum devuelve los materiales con quantity < min_quantity.
	ListBelowMinimum(ctx context.Context, accountID string) ([]*entity.Material, error)
	Delete(ctx context.Context, id string) error
}
