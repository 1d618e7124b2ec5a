package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

var (
	_ repository.MaterialRepository    = materialRepo{}
	_ repository.MovementRepository    = movementRepo{}
	_ repository.ConsumptionRepository = consumptionRepo{}
	_ repository.SiteRepository        = siteRepo{}
)

// ---------------------------------------------------------------------------
// Materiales
// ---------------------------------------------------------------------------

type materialRepo struct {
	s  *Store
	tx *tx
}

func (r materialRepo) Create(ctx context.Context, material *entity.Material) error {
	return r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if _, ok := t.material(material.ID); ok {
			return fmt.Errorf("%w: material %s ya existe", domain.ErrConflict, material.ID)
		}
		t.materials[material.ID] = &stagedMaterial{m: *material, created: true}
		return nil
	})
}

func (r materialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	var out *entity.Material
	err := r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if m, ok := t.material(id); ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r materialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	var out *entity.Material
	err := r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if err := t.lock(ctx, id); err != nil {
			return err
		}
		if m, ok := t.material(id); ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r materialRepo) Update(ctx context.Context, material *entity.Material) error {
	return r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if _, ok := t.material(material.ID); !ok {
			return fmt.Errorf("%w: material %s", domain.ErrNotFound, material.ID)
		}
		sm := t.stage(material.ID)
		qty := sm.m.Quantity
		sm.m = *material
		if sm.created || sm.qtyDirty {
			sm.m.Quantity = qty
		}
		sm.fieldsDirty = true
		return nil
	})
}

func (r materialRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return fmt.Errorf("%w: la existencia no puede quedar negativa", domain.ErrConflict)
	}
	return r.s.autocommit(ctx, r.tx, func(t *tx) error {
		cur, ok := t.material(id)
		if !ok {
			return fmt.Errorf("%w: material %s", domain.ErrNotFound, id)
		}
		sm := t.stage(id)
		if !sm.created && !sm.fieldsDirty {
			sm.m = cur
		}
		sm.m.Quantity = quantity
		sm.m.UpdatedAt = nowUTC()
		sm.qtyDirty = true
		return nil
	})
}

func (r materialRepo) ListByAccount(ctx context.Context, accountID string) ([]*entity.Material, error) {
	return r.list(ctx, func(m *entity.Material) bool { return m.AccountID == accountID })
}

func (r materialRepo) ListBelowMinimum(ctx context.Context, accountID string) ([]*entity.Material, error) {
	return r.list(ctx, func(m *entity.Material) bool { return m.AccountID == accountID && m.IsLowStock() })
}

func (r materialRepo) Delete(ctx context.Context, id string) error {
	return r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if _, ok := t.material(id); !ok {
			return fmt.Errorf("%w: material %s", domain.ErrNotFound, id)
		}
		t.deletedMaterials[id] = true
		return nil
	})
}

func (r materialRepo) list(ctx context.Context, keep func(*entity.Material) bool) ([]*entity.Material, error) {
	var out []*entity.Material
	err := r.s.autocommit(ctx, r.tx, func(t *tx) error {
		r.s.mu.RLock()
		ids := make([]string, 0, len(r.s.materials)+len(t.materials))
		for id := range r.s.materials {
			ids = append(ids, id)
		}
		r.s.mu.RUnlock()
		for id, sm := range t.materials {
			if sm.created {
				ids = append(ids, id)
			}
		}
		for _, id := range ids {
			m, ok := t.material(id)
			if ok && keep(&m) {
				out = append(out, &m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// stage devuelve la escritura pendiente del material, creándola si no existe.
func (t *tx) stage(id string) *stagedMaterial {
	sm, ok := t.materials[id]
	if !ok {
		sm = &stagedMaterial{}
		t.materials[id] = sm
	}
	return sm
}

// ---------------------------------------------------------------------------
// Movimientos
// ---------------------------------------------------------------------------

type movementRepo struct {
	s  *Store
	tx *tx
}

func (r movementRepo) Create(ctx context.Context, movement *entity.Movement) error {
	return r.s.autocommit(ctx, r.tx, func(t *tx) error {
		t.movements = append(t.movements, *movement)
		return nil
	})
}

func (r movementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	match := func(m *entity.Movement) bool {
		return (filter.AccountID == "" || m.AccountID == filter.AccountID) &&
			(filter.MaterialID == "" || m.MaterialID == filter.MaterialID) &&
			(filter.SiteID == "" || m.SiteID == filter.SiteID)
	}
	var out []*entity.Movement
	err := r.s.autocommit(ctx, r.tx, func(t *tx) error {
		for i := len(t.movements) - 1; i >= 0; i-- {
			m := t.movements[i]
			if match(&m) {
				out = append(out, &m)
			}
		}
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
		for i := len(r.s.movements) - 1; i >= 0; i-- {
			m := r.s.movements[i].mov
			if match(&m) {
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r movementRepo) CountByMaterial(ctx context.Context, materialID string) (int, error) {
	list, err := r.List(ctx, repository.MovementFilter{MaterialID: materialID})
	return len(list), err
}

// ---------------------------------------------------------------------------
// Consumos
// ---------------------------------------------------------------------------

type consumptionRepo struct {
	s  *Store
	tx *tx
}

func (r consumptionRepo) Create(ctx context.Context, link *entity.ConsumptionLink) error {
	return r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if _, ok := t.link(link.ID); ok {
			return fmt.Errorf("%w: consumo %s ya existe", domain.ErrConflict, link.ID)
		}
		t.links[link.ID] = *link
		t.linkOrder = append(t.linkOrder, link.ID)
		return nil
	})
}

func (r consumptionRepo) GetByID(ctx context.Context, id string) (*entity.ConsumptionLink, error) {
	var out *entity.ConsumptionLink
	err := r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if l, ok := t.link(id); ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r consumptionRepo) Delete(ctx context.Context, id string) error {
	return r.s.autocommit(ctx, r.tx, func(t *tx) error {
		if _, ok := t.link(id); !ok {
			return fmt.Errorf("%w: consumo %s", domain.ErrNotFound, id)
		}
		t.deletedLinks[id] = true
		return nil
	})
}

func (r consumptionRepo) ListBySite(ctx context.Context, siteID string) ([]*entity.ConsumptionLink, error) {
	return r.live(ctx, func(l *entity.ConsumptionLink) bool { return l.SiteID == siteID })
}

func (r consumptionRepo) CountByMaterial(ctx context.Context, materialID string) (int, error) {
	list, err := r.live(ctx, func(l *entity.ConsumptionLink) bool { return l.MaterialID == materialID })
	return len(list), err
}

func (r consumptionRepo) CostLinesBySite(ctx context.Context, siteID string) ([]repository.SiteCostLine, error) {
	var out []repository.SiteCostLine
	err := r.s.autocommit(ctx, r.tx, func(t *tx) error {
		links, err := r.liveIn(t, func(l *entity.ConsumptionLink) bool { return l.SiteID == siteID })
		if err != nil {
			return err
		}
		byMaterial := map[string]int{}
		for _, l := range links {
			idx, ok := byMaterial[l.MaterialID]
			if !ok {
				m, found := t.material(l.MaterialID)
				if !found {
					continue
				}
				out = append(out, repository.SiteCostLine{
					MaterialID:   m.ID,
					MaterialName: m.Name,
					Unit:         m.Unit,
					Quantity:     decimal.Zero,
					UnitPrice:    m.UnitPrice,
				})
				idx = len(out) - 1
				byMaterial[l.MaterialID] = idx
			}
			out[idx].Quantity = out[idx].Quantity.Add(l.Quantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialName < out[j].MaterialName })
	return out, nil
}

func (r consumptionRepo) live(ctx context.Context, keep func(*entity.ConsumptionLink) bool) ([]*entity.ConsumptionLink, error) {
	var out []*entity.ConsumptionLink
	err := r.s.autocommit(ctx, r.tx, func(t *tx) error {
		var err error
		out, err = r.liveIn(t, keep)
		return err
	})
	return out, err
}

// liveIn vínculos visibles en la transacción, por fecha de uso descendente y luego los más recientes.
func (r consumptionRepo) liveIn(t *tx, keep func(*entity.ConsumptionLink) bool) ([]*entity.ConsumptionLink, error) {
	type ranked struct {
		seq  uint64
		link entity.ConsumptionLink
	}
	var all []ranked
	r.s.mu.RLock()
	for id, rec := range r.s.links {
		if t.deletedLinks[id] {
			continue
		}
		if keep(&rec.link) {
			all = append(all, ranked{seq: rec.seq, link: rec.link})
		}
	}
	next := r.s.seq
	r.s.mu.RUnlock()
	for _, id := range t.linkOrder {
		if t.deletedLinks[id] {
			continue
		}
		l := t.links[id]
		next++
		if keep(&l) {
			all = append(all, ranked{seq: next, link: l})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].link.UsedOn.Equal(all[j].link.UsedOn) {
			return all[i].link.UsedOn.After(all[j].link.UsedOn)
		}
		return all[i].seq > all[j].seq
	})
	out := make([]*entity.ConsumptionLink, 0, len(all))
	for i := range all {
		out = append(out, &all[i].link)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Obras
// ---------------------------------------------------------------------------

type siteRepo struct {
	s *Store
}

func (r siteRepo) Create(ctx context.Context, site *entity.Site) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sites[site.ID]; ok {
		return fmt.Errorf("%w: obra %s ya existe", domain.ErrConflict, site.ID)
	}
	r.s.sites[site.ID] = *site
	return nil
}

func (r siteRepo) GetByID(ctx context.Context, id string) (*entity.Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	site, ok := r.s.sites[id]
	if !ok {
		return nil, nil
	}
	return &site, nil
}

func (r siteRepo) Update(ctx context.Context, site *entity.Site) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sites[site.ID]; !ok {
		return fmt.Errorf("%w: obra %s", domain.ErrNotFound, site.ID)
	}
	r.s.sites[site.ID] = *site
	return nil
}

func (r siteRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	var all []*entity.Site
	for _, s := range r.s.sites {
		if s.AccountID == accountID {
			site := s
			all = append(all, &site)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return []*entity.Site{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
