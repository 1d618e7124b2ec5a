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

var _ repository.ConsumptionRepository = (*ConsumptionRepo)(nil)

// ConsumptionRepo consumos de material por obra (tabla site_materials).
type ConsumptionRepo struct {
	q Querier
}

// NewConsumptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConsumptionRepository(q Querier) *ConsumptionRepo {
	return &ConsumptionRepo{q: q}
}

const consumptionColumns = `id, account_id, site_id, material_id, movement_id, quantity, used_on, notes, created_at, created_by`

func scanConsumption(row pgx.Row) (*entity.ConsumptionLink, error) {
	var l entity.ConsumptionLink
	var notes, createdBy *string
	if err := row.Scan(&l.ID, &l.AccountID, &l.SiteID, &l.MaterialID, &l.MovementID, &l.Quantity,
		&l.UsedOn, &notes, &l.CreatedAt, &createdBy); err != nil {
		return nil, err
	}
	l.Notes = deref(notes)
	l.CreatedBy = deref(createdBy)
	return &l, nil
}

// Create persiste el vínculo.
func (r *ConsumptionRepo) Create(ctx context.Context, l *entity.ConsumptionLink) error {
	query := `
		INSERT INTO site_materials (` + consumptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.AccountID, l.SiteID, l.MaterialID, l.MovementID, l.Quantity,
		l.UsedOn, nullable(l.Notes), l.CreatedAt, nullable(l.CreatedBy),
	)
	if err != nil {
		return translateError("insert site material", err)
	}
	return nil
}

// GetByID obtiene un vínculo; (nil, nil) si no existe.
func (r *ConsumptionRepo) GetByID(ctx context.Context, id string) (*entity.ConsumptionLink, error) {
	l, err := scanConsumption(r.q.QueryRow(ctx, `SELECT `+consumptionColumns+` FROM site_materials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError("get site material", err)
	}
	return l, nil
}

// Delete elimina el vínculo; ErrNotFound si otra transacción ya lo eliminó.
func (r *ConsumptionRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM site_materials WHERE id = $1`, id)
	if err != nil {
		return translateError("delete site material", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: consumo %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListBySite consumos de la obra por fecha de uso descendente.
func (r *ConsumptionRepo) ListBySite(ctx context.Context, siteID string) ([]*entity.ConsumptionLink, error) {
	rows, err := r.q.Query(ctx, `SELECT `+consumptionColumns+` FROM site_materials
		WHERE site_id = $1 ORDER BY used_on DESC, created_at DESC`, siteID)
	if err != nil {
		return nil, translateError("list site materials", err)
	}
	defer rows.Close()
	var list []*entity.ConsumptionLink
	for rows.Next() {
		l, err := scanConsumption(rows)
		if err != nil {
			return nil, translateError("scan site material", err)
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("list site materials", err)
	}
	return list, nil
}

// CountByMaterial cantidad de consumos vivos del material.
func (r *ConsumptionRepo) CountByMaterial(ctx context.Context, materialID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM site_materials WHERE material_id = $1`, materialID).Scan(&n); err != nil {
		return 0, translateError("count site materials", err)
	}
	return n, nil
}

// CostLinesBySite agrupa los consumos de la obra por material con el precio actual del catálogo.
func (r *ConsumptionRepo) CostLinesBySite(ctx context.Context, siteID string) ([]repository.SiteCostLine, error) {
	query := `
		SELECT m.id, m.name, m.unit, SUM(sm.quantity), m.unit_price
		FROM site_materials sm
		JOIN materials m ON m.id = sm.material_id
		WHERE sm.site_id = $1
		GROUP BY m.id, m.name, m.unit, m.unit_price
		ORDER BY m.name`
	rows, err := r.q.Query(ctx, query, siteID)
	if err != nil {
		return nil, translateError("site material cost", err)
	}
	defer rows.Close()
	var lines []repository.SiteCostLine
	for rows.Next() {
		var l repository.SiteCostLine
		if err := rows.Scan(&l.MaterialID, &l.MaterialName, &l.Unit, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, translateError("scan site material cost", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("site material cost", err)
	}
	return lines, nil
}
