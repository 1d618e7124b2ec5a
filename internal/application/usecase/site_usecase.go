package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

// SiteUseCase casos de uso CRUD para obras.
type SiteUseCase struct {
	repo repository.SiteRepository
}

// NewSiteUseCase construye el caso de uso.
func NewSiteUseCase(repo repository.SiteRepository) *SiteUseCase {
	return &SiteUseCase{repo: repo}
}

// Create crea una nueva obra.
func (uc *SiteUseCase) Create(ctx context.Context, accountID string, in dto.CreateSiteRequest) (*dto.SiteResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("el nombre de la obra es obligatorio")
	}
	now := time.Now()
	site := &entity.Site{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Name:      name,
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, site); err != nil {
		return nil, err
	}
	return toSiteResponse(site), nil
}

// GetByID obtiene una obra de la cuenta.
func (uc *SiteUseCase) GetByID(ctx context.Context, accountID, id string) (*dto.SiteResponse, error) {
	site, err := uc.owned(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	return toSiteResponse(site), nil
}

// Update actualiza una obra.
func (uc *SiteUseCase) Update(ctx context.Context, accountID, id string, in dto.UpdateSiteRequest) (*dto.SiteResponse, error) {
	site, err := uc.owned(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("el nombre de la obra es obligatorio")
		}
		site.Name = name
	}
	if in.Address != nil {
		site.Address = strings.TrimSpace(*in.Address)
	}
	site.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, site); err != nil {
		return nil, err
	}
	return toSiteResponse(site), nil
}

// List lista obras de la cuenta con paginación.
func (uc *SiteUseCase) List(ctx context.Context, accountID string, page dto.PageRequest) (*dto.SiteListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListByAccount(ctx, accountID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SiteResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toSiteResponse(s))
	}
	return &dto.SiteListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *SiteUseCase) owned(ctx context.Context, accountID, id string) (*entity.Site, error) {
	site, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("%w: obra %s", domain.ErrNotFound, id)
	}
	if site.AccountID != accountID {
		return nil, domain.ErrForbidden
	}
	return site, nil
}

func toSiteResponse(s *entity.Site) *dto.SiteResponse {
	if s == nil {
		return nil
	}
	return &dto.SiteResponse{
		ID:        s.ID,
		AccountID: s.AccountID,
		Name:      s.Name,
		Address:   s.Address,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
