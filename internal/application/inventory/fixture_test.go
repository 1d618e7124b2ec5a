package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/infrastructure/memory"
)

const (
	accountID = "acc-1"
	userID    = "user-1"
)

type fixture struct {
	store        *memory.Store
	observer     *recordingObserver
	materials    *inventory.MaterialUseCase
	movements    *inventory.RegisterMovementUseCase
	consumptions *inventory.ConsumptionUseCase
	costs        *inventory.CostUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRunner(t, nil)
}

// newFixtureWithRunner permite envolver el TxRunner del almacén (p. ej. para inyectar fallas).
func newFixtureWithRunner(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner) *fixture {
	t.Helper()
	store := memory.NewStore()
	var runner inventory.TxRunner = store
	if wrap != nil {
		runner = wrap(store)
	}
	obs := &recordingObserver{results: map[string][]error{}}
	exec := inventory.NewExecutor(runner, inventory.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}, obs, nil)
	return &fixture{
		store:        store,
		observer:     obs,
		materials:    inventory.NewMaterialUseCase(exec, store.Materials(), language.Spanish),
		movements:    inventory.NewRegisterMovementUseCase(exec, store.Materials(), store.Movements(), store.Sites()),
		consumptions: inventory.NewConsumptionUseCase(exec, store.Consumptions(), store.Sites()),
		costs:        inventory.NewCostUseCase(exec, store.Consumptions(), store.Sites()),
	}
}

func (f *fixture) material(t *testing.T, name, qty, price string) *dto.MaterialResponse {
	t.Helper()
	m, err := f.materials.Create(context.Background(), accountID, dto.CreateMaterialRequest{
		Name:      name,
		Category:  entity.CategoryProduct,
		Quantity:  decimal.RequireFromString(qty),
		Unit:      "kg",
		UnitPrice: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) site(t *testing.T, account, id string) {
	t.Helper()
	require.NoError(t, f.store.Sites().Create(context.Background(), &entity.Site{
		ID: id, AccountID: account, Name: "Jardin " + id, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
}

func (f *fixture) quantity(t *testing.T, materialID string) decimal.Decimal {
	t.Helper()
	m, err := f.materials.GetByID(context.Background(), accountID, materialID)
	require.NoError(t, err)
	return m.Quantity
}

func (f *fixture) consume(ctx context.Context, siteID, materialID, qty string) (*dto.ConsumptionResponse, error) {
	return f.consumptions.Add(ctx, inventory.ConsumptionInputDTO{
		AccountID:  accountID,
		UserID:     userID,
		SiteID:     siteID,
		MaterialID: materialID,
		Quantity:   decimal.RequireFromString(qty),
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingObserver struct {
	mu      sync.Mutex
	results map[string][]error
	retries map[string]int
}

func (o *recordingObserver) ObserveOperation(operation string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results[operation] = append(o.results[operation], err)
}

func (o *recordingObserver) ObserveRetry(operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.retries == nil {
		o.retries = map[string]int{}
	}
	o.retries[operation]++
}

func (o *recordingObserver) retriesOf(operation string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.retries[operation]
}

// flakyRunner falla con ErrTransientStore las primeras `failures` veces.
type flakyRunner struct {
	inner    inventory.TxRunner
	mu       sync.Mutex
	failures int
	calls    int
}

func (r *flakyRunner) Run(ctx context.Context, fn inventory.TxFunc) error {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return domain.ErrTransientStore
	}
	return r.inner.Run(ctx, fn)
}
