package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/infrastructure/memory"
)

func seedMaterial(t *testing.T, store *memory.Store, id, qty string) {
	t.Helper()
	q := decimal.RequireFromString(qty)
	require.NoError(t, store.Materials().Create(context.Background(), &entity.Material{
		ID: id, AccountID: "acc-1", Name: id, Category: entity.CategoryOther,
		Quantity: q, InitialQuantity: q, Unit: "kg",
	}))
}

func quantity(t *testing.T, store *memory.Store, id string) decimal.Decimal {
	t.Helper()
	m, err := store.Materials().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m.Quantity
}

func TestRun_ErrorNoPublicaNada(t *testing.T) {
	store := memory.NewStore()
	seedMaterial(t, store, "mat-1", "10")
	boom := errors.New("boom")

	err := store.Run(context.Background(), func(mr repository.MaterialRepository, mv repository.MovementRepository, _ repository.ConsumptionRepository) error {
		require.NoError(t, mr.UpdateQuantity(context.Background(), "mat-1", decimal.NewFromInt(3)))
		require.NoError(t, mv.Create(context.Background(), &entity.Movement{ID: "mov-1", AccountID: "acc-1", MaterialID: "mat-1", Type: entity.MovementTypeOUT, Quantity: decimal.NewFromInt(7)}))
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.True(t, quantity(t, store, "mat-1").Equal(decimal.NewFromInt(10)))
	n, err := store.Movements().CountByMaterial(context.Background(), "mat-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRun_EscriturasVisiblesDentroDeLaTransaccion(t *testing.T) {
	store := memory.NewStore()
	seedMaterial(t, store, "mat-1", "10")

	err := store.Run(context.Background(), func(mr repository.MaterialRepository, mv repository.MovementRepository, _ repository.ConsumptionRepository) error {
		ctx := context.Background()
		require.NoError(t, mr.UpdateQuantity(ctx, "mat-1", decimal.NewFromInt(4)))
		m, err := mr.GetByID(ctx, "mat-1")
		require.NoError(t, err)
		assert.True(t, m.Quantity.Equal(decimal.NewFromInt(4)))
		// Fuera de la transacción todavía se ve el valor confirmado.
		assert.True(t, quantity(t, store, "mat-1").Equal(decimal.NewFromInt(10)))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, quantity(t, store, "mat-1").Equal(decimal.NewFromInt(4)))
}

func TestRun_ContextoCanceladoNoPublica(t *testing.T) {
	store := memory.NewStore()
	seedMaterial(t, store, "mat-1", "10")
	ctx, cancel := context.WithCancel(context.Background())

	err := store.Run(ctx, func(mr repository.MaterialRepository, _ repository.MovementRepository, _ repository.ConsumptionRepository) error {
		require.NoError(t, mr.UpdateQuantity(ctx, "mat-1", decimal.Zero))
		cancel()
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, quantity(t, store, "mat-1").Equal(decimal.NewFromInt(10)))
}

func TestGetForUpdate_BloqueaMismoMaterialHastaCommit(t *testing.T) {
	store := memory.NewStore()
	seedMaterial(t, store, "mat-1", "10")
	locked := make(chan struct{})
	releaseFirst := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- store.Run(context.Background(), func(mr repository.MaterialRepository, _ repository.MovementRepository, _ repository.ConsumptionRepository) error {
			if _, err := mr.GetForUpdate(context.Background(), "mat-1"); err != nil {
				return err
			}
			close(locked)
			<-releaseFirst
			return mr.UpdateQuantity(context.Background(), "mat-1", decimal.NewFromInt(1))
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := store.Run(ctx, func(mr repository.MaterialRepository, _ repository.MovementRepository, _ repository.ConsumptionRepository) error {
		_, err := mr.GetForUpdate(ctx, "mat-1")
		return err
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(releaseFirst)
	require.NoError(t, <-done)

	// Tras el commit el candado queda libre y se lee el valor publicado.
	err = store.Run(context.Background(), func(mr repository.MaterialRepository, _ repository.MovementRepository, _ repository.ConsumptionRepository) error {
		m, err := mr.GetForUpdate(context.Background(), "mat-1")
		require.NoError(t, err)
		assert.True(t, m.Quantity.Equal(decimal.NewFromInt(1)))
		return nil
	})
	require.NoError(t, err)
}

func TestGetForUpdate_MaterialesDistintosNoCompiten(t *testing.T) {
	store := memory.NewStore()
	seedMaterial(t, store, "mat-1", "10")
	seedMaterial(t, store, "mat-2", "10")
	locked := make(chan struct{})
	releaseFirst := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- store.Run(context.Background(), func(mr repository.MaterialRepository, _ repository.MovementRepository, _ repository.ConsumptionRepository) error {
			if _, err := mr.GetForUpdate(context.Background(), "mat-1"); err != nil {
				return err
			}
			close(locked)
			<-releaseFirst
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := store.Run(ctx, func(mr repository.MaterialRepository, _ repository.MovementRepository, _ repository.ConsumptionRepository) error {
		// Reentrante dentro de la misma transacción.
		if _, err := mr.GetForUpdate(ctx, "mat-2"); err != nil {
			return err
		}
		_, err := mr.GetForUpdate(ctx, "mat-2")
		return err
	})
	require.NoError(t, err)

	close(releaseFirst)
	require.NoError(t, <-done)
}

func TestConsumptionDelete_SegundaEliminacionEsNotFound(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	link := &entity.ConsumptionLink{ID: "link-1", AccountID: "acc-1", SiteID: "site-1", MaterialID: "mat-1", Quantity: decimal.NewFromInt(2)}
	require.NoError(t, store.Consumptions().Create(ctx, link))

	require.NoError(t, store.Consumptions().Delete(ctx, "link-1"))
	err := store.Consumptions().Delete(ctx, "link-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovementsList_MasRecientePrimero(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Movements().Create(ctx, &entity.Movement{ID: id, AccountID: "acc-1", MaterialID: "mat-1", Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(1)}))
	}
	require.NoError(t, store.Movements().Create(ctx, &entity.Movement{ID: "otro", AccountID: "acc-2", MaterialID: "mat-9", Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(1)}))

	list, err := store.Movements().List(ctx, repository.MovementFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestMaterialUpdate_NoPisaLaExistencia(t *testing.T) {
	store := memory.NewStore()
	seedMaterial(t, store, "mat-1", "10")
	ctx := context.Background()

	m, err := store.Materials().GetByID(ctx, "mat-1")
	require.NoError(t, err)
	require.NoError(t, store.Materials().UpdateQuantity(ctx, "mat-1", decimal.NewFromInt(2)))

	// m conserva la existencia vieja (10); el parche no debe reponerla.
	m.Name = "Mantillo"
	require.NoError(t, store.Materials().Update(ctx, m))

	fresh, err := store.Materials().GetByID(ctx, "mat-1")
	require.NoError(t, err)
	assert.Equal(t, "Mantillo", fresh.Name)
	assert.True(t, fresh.Quantity.Equal(decimal.NewFromInt(2)))
}

func TestSitesListByAccount_Pagina(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.Sites().Create(ctx, &entity.Site{ID: id, AccountID: "acc-1", Name: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	page, err := store.Sites().ListByAccount(ctx, "acc-1", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "s2", page[0].ID)
	assert.Equal(t, "s1", page[1].ID)

	empty, err := store.Sites().ListByAccount(ctx, "acc-1", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
