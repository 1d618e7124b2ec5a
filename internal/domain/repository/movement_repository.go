package repository

import (
	"context"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
)

// MovementFilter filtros opcionales para listar movimientos de una cuenta.
type MovementFilter struct {
	AccountID  string
	MaterialID string
	SiteID     string
}

// MovementRepository puerto del libro de movimientos. Solo inserta y lee: no hay Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// List devuelve los movimientos del más reciente al más antiguo.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	CountByMaterial(ctx context.Context, materialID string) (int, error)
}
