// Package memory implementa el almacén del libro de inventario en memoria.
// Las transacciones acumulan escrituras y las publican juntas en el Commit;
// GetForUpdate bloquea el material hasta el fin de la transacción.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type movementRecord struct {
	seq uint64
	mov entity.Movement
}

type linkRecord struct {
	seq  uint64
	link entity.ConsumptionLink
}

// Store estado confirmado del almacén. Apto para pruebas y para STORE_DRIVER=memory.
type Store struct {
	mu        sync.RWMutex
	seq       uint64
	materials map[string]entity.Material
	movements []movementRecord
	links     map[string]linkRecord
	sites     map[string]entity.Site

	locks *keyedLocker
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		materials: map[string]entity.Material{},
		links:     map[string]linkRecord{},
		sites:     map[string]entity.Site{},
		locks:     newKeyedLocker(),
	}
}

// Run ejecuta fn con repositorios atados a una transacción nueva.
// Si fn falla o el contexto se cancela no se publica nada.
func (s *Store) Run(ctx context.Context, fn inventory.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.begin(ctx)
	defer t.release()
	if err := fn(materialRepo{s: s, tx: t}, movementRepo{s: s, tx: t}, consumptionRepo{s: s, tx: t}); err != nil {
		return err
	}
	return t.commit()
}

// Materials repositorio de materiales fuera de transacción (cada escritura se confirma sola).
func (s *Store) Materials() repository.MaterialRepository { return materialRepo{s: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() repository.MovementRepository { return movementRepo{s: s} }

// Consumptions repositorio de consumos fuera de transacción.
func (s *Store) Consumptions() repository.ConsumptionRepository { return consumptionRepo{s: s} }

// Sites repositorio de obras.
func (s *Store) Sites() repository.SiteRepository { return siteRepo{s: s} }

// autocommit corre fn en el tx recibido o en uno propio que se confirma al terminar.
func (s *Store) autocommit(ctx context.Context, t *tx, fn func(t *tx) error) error {
	if t != nil {
		return fn(t)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	own := s.begin(ctx)
	defer own.release()
	if err := fn(own); err != nil {
		return err
	}
	return own.commit()
}

// ---------------------------------------------------------------------------
// Transacción
// ---------------------------------------------------------------------------

type stagedMaterial struct {
	m           entity.Material
	created     bool
	fieldsDirty bool
	qtyDirty    bool
}

type tx struct {
	ctx   context.Context
	store *Store
	held  []string
	owned map[string]bool

	materials        map[string]*stagedMaterial
	deletedMaterials map[string]bool
	movements        []entity.Movement
	links            map[string]entity.ConsumptionLink
	linkOrder        []string
	deletedLinks     map[string]bool
}

func (s *Store) begin(ctx context.Context) *tx {
	return &tx{
		ctx:              ctx,
		store:            s,
		owned:            map[string]bool{},
		materials:        map[string]*stagedMaterial{},
		deletedMaterials: map[string]bool{},
		links:            map[string]entity.ConsumptionLink{},
		deletedLinks:     map[string]bool{},
	}
}

// lock toma el candado del material una sola vez por transacción.
func (t *tx) lock(ctx context.Context, id string) error {
	if t.owned[id] {
		return nil
	}
	if err := t.store.locks.acquire(ctx, id); err != nil {
		return err
	}
	t.owned[id] = true
	t.held = append(t.held, id)
	return nil
}

func (t *tx) release() {
	for _, id := range t.held {
		t.store.locks.release(id)
	}
	t.held = nil
	t.owned = map[string]bool{}
}

// material devuelve la vista del material dentro de la transacción.
func (t *tx) material(id string) (entity.Material, bool) {
	if t.deletedMaterials[id] {
		return entity.Material{}, false
	}
	s := t.store
	s.mu.RLock()
	cur, ok := s.materials[id]
	s.mu.RUnlock()
	sm, staged := t.materials[id]
	switch {
	case staged && sm.created:
		return sm.m, true
	case !ok:
		return entity.Material{}, false
	case staged:
		out := cur
		if sm.fieldsDirty {
			qty := out.Quantity
			out = sm.m
			out.Quantity = qty
		}
		if sm.qtyDirty {
			out.Quantity = sm.m.Quantity
			out.UpdatedAt = sm.m.UpdatedAt
		}
		return out, true
	default:
		return cur, true
	}
}

func (t *tx) link(id string) (entity.ConsumptionLink, bool) {
	if t.deletedLinks[id] {
		return entity.ConsumptionLink{}, false
	}
	if l, ok := t.links[id]; ok {
		return l, true
	}
	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.links[id]
	return rec.link, ok
}

// commit valida y publica todas las escrituras bajo el candado global: todo o nada.
func (t *tx) commit() error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sm := range t.materials {
		_, exists := s.materials[id]
		if sm.created && exists {
			return fmt.Errorf("%w: material %s ya existe", domain.ErrConflict, id)
		}
		if !sm.created && !exists && !t.deletedMaterials[id] {
			return fmt.Errorf("%w: material %s", domain.ErrNotFound, id)
		}
	}
	for id := range t.links {
		if _, exists := s.links[id]; exists {
			return fmt.Errorf("%w: consumo %s ya existe", domain.ErrConflict, id)
		}
	}
	for id := range t.deletedLinks {
		if _, staged := t.links[id]; staged {
			continue
		}
		if _, exists := s.links[id]; !exists {
			return fmt.Errorf("%w: consumo %s", domain.ErrNotFound, id)
		}
	}

	for id, sm := range t.materials {
		if t.deletedMaterials[id] {
			continue
		}
		if sm.created {
			s.materials[id] = sm.m
			continue
		}
		cur := s.materials[id]
		if sm.fieldsDirty {
			qty := cur.Quantity
			cur = sm.m
			cur.Quantity = qty
		}
		if sm.qtyDirty {
			cur.Quantity = sm.m.Quantity
			cur.UpdatedAt = sm.m.UpdatedAt
		}
		s.materials[id] = cur
	}
	for id := range t.deletedMaterials {
		delete(s.materials, id)
	}
	for _, m := range t.movements {
		s.seq++
		s.movements = append(s.movements, movementRecord{seq: s.seq, mov: m})
	}
	for _, id := range t.linkOrder {
		if t.deletedLinks[id] {
			continue
		}
		s.seq++
		s.links[id] = linkRecord{seq: s.seq, link: t.links[id]}
	}
	for id := range t.deletedLinks {
		delete(s.links, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Candados por material
// ---------------------------------------------------------------------------

// keyedLocker un semáforo de capacidad 1 por clave; materiales distintos no compiten.
// Cada entrada cuenta titular y esperas; se borra cuando nadie la usa.
type keyedLocker struct {
	mu   sync.Mutex
	sems map[string]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{sems: map[string]*lockEntry{}}
}

func (l *keyedLocker) ref(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.sems[key]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.sems[key] = e
	}
	e.refs++
	return e
}

func (l *keyedLocker) unref(key string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.sems, key)
	}
}

func (l *keyedLocker) acquire(ctx context.Context, key string) error {
	e := l.ref(key)
	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, e)
		return ctx.Err()
	}
}

func (l *keyedLocker) release(key string) {
	l.mu.Lock()
	e := l.sems[key]
	l.mu.Unlock()
	<-e.ch
	l.unref(key, e)
}

// size cantidad de claves con titular o esperas.
func (l *keyedLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sems)
}

func nowUTC() time.Time { return time.Now().UTC() }
