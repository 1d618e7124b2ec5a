package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

var _ repository.SiteRepository = (*SiteRepo)(nil)

// SiteRepo implementación del puerto SiteRepository sobre PostgreSQL.
type SiteRepo struct {
	q Querier
}

// NewSiteRepository construye el adaptador de persistencia para obras.
func NewSiteRepository(q Querier) *SiteRepo {
	return &SiteRepo{q: q}
}

// Create persiste una nueva obra.
func (r *SiteRepo) Create(ctx context.Context, site *entity.Site) error {
	query := `
		INSERT INTO sites (id, account_id, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		site.ID, site.AccountID, site.Name, site.Address, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		return translateError("insert site", err)
	}
	return nil
}

// GetByID obtiene una obra por ID; (nil, nil) si no existe.
func (r *SiteRepo) GetByID(ctx context.Context, id string) (*entity.Site, error) {
	query := `
		SELECT id, account_id, name, address, created_at, updated_at
		FROM sites WHERE id = $1`
	var s entity.Site
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.AccountID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError("get site", err)
	}
	return &s, nil
}

// Update actualiza una obra existente.
func (r *SiteRepo) Update(ctx context.Context, site *entity.Site) error {
	query := `
		UPDATE sites SET name = $2, address = $3, updated_at = $4
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, site.ID, site.Name, site.Address, site.UpdatedAt)
	if err != nil {
		return translateError("update site", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: obra %s", domain.ErrNotFound, site.ID)
	}
	return nil
}

// ListByAccount lista obras de la cuenta con paginación.
func (r *SiteRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.Site, error) {
	query := `
		SELECT id, account_id, name, address, created_at, updated_at
		FROM sites WHERE account_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, translateError("list sites", err)
	}
	defer rows.Close()
	list := []*entity.Site{}
	for rows.Next() {
		var s entity.Site
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, translateError("scan site", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
