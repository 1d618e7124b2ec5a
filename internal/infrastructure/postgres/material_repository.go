package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

// MaterialRepo implementación sobre PostgreSQL (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

const materialColumns = `id, account_id, name, category, quantity, initial_quantity, unit,
		min_quantity, unit_price, supplier, location, created_at, updated_at`

func scanMaterial(row pgx.Row) (*entity.Material, error) {
	var m entity.Material
	var supplier, location *string
	err := row.Scan(&m.ID, &m.AccountID, &m.Name, &m.Category, &m.Quantity, &m.InitialQuantity, &m.Unit,
		&m.MinQuantity, &m.UnitPrice, &supplier, &location, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if supplier != nil {
		m.Supplier = *supplier
	}
	if location != nil {
		m.Location = *location
	}
	return &m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create persiste un material nuevo.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.AccountID, m.Name, m.Category, m.Quantity, m.InitialQuantity, m.Unit,
		m.MinQuantity, m.UnitPrice, nullable(m.Supplier), nullable(m.Location), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: material %s ya existe", domain.ErrConflict, m.ID)
		}
		return translateError("insert material", err)
	}
	return nil
}

// GetByID obtiene un material por ID; (nil, nil) si no existe.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	return r.get(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id, "get material")
}

// GetForUpdate obtiene el material y bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	return r.get(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1 FOR UPDATE`, id, "get material for update")
}

func (r *MaterialRepo) get(ctx context.Context, query, id, op string) (*entity.Material, error) {
	m, err := scanMaterial(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(op, err)
	}
	return m, nil
}

// Update aplica el parche de campos; quantity queda fuera.
func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials SET name = $2, category = $3, unit = $4, min_quantity = $5, unit_price = $6,
			supplier = $7, location = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		m.ID, m.Name, m.Category, m.Unit, m.MinQuantity, m.UnitPrice,
		nullable(m.Supplier), nullable(m.Location), m.UpdatedAt,
	)
	if err != nil {
		return translateError("update material", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: material %s", domain.ErrNotFound, m.ID)
	}
	return nil
}

// UpdateQuantity fija la existencia. El CHECK (quantity >= 0) de la tabla es la última barrera.
func (r *MaterialRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE materials SET quantity = $2, updated_at = now() WHERE id = $1`, id, quantity)
	if err != nil {
		return translateError("update material quantity", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: material %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListByAccount lista los materiales de la cuenta. El orden final por idioma lo aplica el caso de uso.
func (r *MaterialRepo) ListByAccount(ctx context.Context, accountID string) ([]*entity.Material, error) {
	return r.list(ctx, `SELECT `+materialColumns+` FROM materials WHERE account_id = $1 ORDER BY name`, accountID)
}

// ListBelowMinimum materiales con quantity < min_quantity.
func (r *MaterialRepo) ListBelowMinimum(ctx context.Context, accountID string) ([]*entity.Material, error) {
	return r.list(ctx, `SELECT `+materialColumns+` FROM materials
		WHERE account_id = $1 AND quantity < min_quantity ORDER BY name`, accountID)
}

func (r *MaterialRepo) list(ctx context.Context, query, accountID string) ([]*entity.Material, error) {
	rows, err := r.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, translateError("list materials", err)
	}
	defer rows.Close()
	var list []*entity.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, translateError("scan material", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("list materials", err)
	}
	return list, nil
}

// Delete elimina el material. Las FK RESTRICT de movimientos y consumos lo impiden si hay referencias.
func (r *MaterialRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return translateError("delete material", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: material %s", domain.ErrNotFound, id)
	}
	return nil
}
