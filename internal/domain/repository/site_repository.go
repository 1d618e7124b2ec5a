package repository

import (
	"context"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
)

// SiteRepository define el puerto de persistencia para obras.
type SiteRepository interface {
	Create(ctx context.Context, site *entity.Site) error
	GetByID(ctx context.Context, id string) (*entity.Site, error)
	Update(ctx context.Context, site *entity.Site) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.Site, error)
}
