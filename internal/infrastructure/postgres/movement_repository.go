package postgres

import (
	"context"
	"fmt"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create asienta un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (id, account_id, material_id, site_id, type, quantity, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.AccountID, m.MaterialID, nullable(m.SiteID), m.Type, m.Quantity,
		nullable(m.Reason), m.CreatedAt, nullable(m.CreatedBy),
	)
	if err != nil {
		return translateError("insert stock movement", err)
	}
	return nil
}

// List movimientos filtrados, del más reciente al más antiguo.
// Ordena por seq: se asigna con la fila del material bloqueada, así que refleja el orden real
// por material aunque los relojes de las instancias difieran.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	query := `
		SELECT id, account_id, material_id, site_id, type, quantity, reason, created_at, created_by
		FROM stock_movements WHERE true`
	var args []any
	pos := 1
	if filter.AccountID != "" {
		query += fmt.Sprintf(" AND account_id = $%d", pos)
		args = append(args, filter.AccountID)
		pos++
	}
	if filter.MaterialID != "" {
		query += fmt.Sprintf(" AND material_id = $%d", pos)
		args = append(args, filter.MaterialID)
		pos++
	}
	if filter.SiteID != "" {
		query += fmt.Sprintf(" AND site_id = $%d", pos)
		args = append(args, filter.SiteID)
	}
	query += " ORDER BY seq DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var siteID, reason, createdBy *string
		if err := rows.Scan(&m.ID, &m.AccountID, &m.MaterialID, &siteID, &m.Type, &m.Quantity,
			&reason, &m.CreatedAt, &createdBy); err != nil {
			return nil, translateError("scan stock movement", err)
		}
		m.SiteID = deref(siteID)
		m.Reason = deref(reason)
		m.CreatedBy = deref(createdBy)
		list = append(list, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("list stock movements", err)
	}
	return list, nil
}

// CountByMaterial cantidad de movimientos que referencian el material.
func (r *MovementRepo) CountByMaterial(ctx context.Context, materialID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements WHERE material_id = $1`, materialID).Scan(&n)
	if err != nil {
		return 0, translateError("count stock movements", err)
	}
	return n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
