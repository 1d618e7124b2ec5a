package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/dto"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/application/inventory"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
)

func TestCrearMaterial_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]dto.CreateMaterialRequest{
		"nombre vacío":      {Name: "  ", Quantity: dec("1")},
		"cantidad negativa": {Name: "Terreau", Quantity: dec("-1")},
		"precio negativo":   {Name: "Terreau", UnitPrice: dec("-0.01")},
		"mínimo negativo":   {Name: "Terreau", MinQuantity: dec("-3")},
		"categoría rara":    {Name: "Terreau", Category: "mineral"},
		"cinco decimales":   {Name: "Terreau", Quantity: dec("1.00001")},
		"cantidad enorme":   {Name: "Terreau", Quantity: dec("1e14")},
		"precio diminuto":   {Name: "Terreau", UnitPrice: dec("0.00004")},
		"mínimo enorme":     {Name: "Terreau", MinQuantity: dec("100000000000000")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.materials.Create(ctx, accountID, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	list, err := f.materials.List(ctx, accountID)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestCrearMaterial_ValoresPorDefecto(t *testing.T) {
	f := newFixture(t)

	m, err := f.materials.Create(context.Background(), accountID, dto.CreateMaterialRequest{Name: " Sécateur ", Quantity: dec("3")})
	require.NoError(t, err)
	assert.Equal(t, "Sécateur", m.Name)
	assert.Equal(t, entity.CategoryOther, m.Category)
	assert.Equal(t, inventory.DefaultUnit, m.Unit)
	assert.True(t, m.Quantity.Equal(dec("3")))
	assert.Equal(t, accountID, m.AccountID)
}

func TestActualizarMaterial_NoTocaExistencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.material(t, "Terreau", "10", "5")

	name := "Terreau universel"
	minQty := dec("20")
	out, err := f.materials.Update(ctx, accountID, mat.ID, dto.UpdateMaterialRequest{Name: &name, MinQuantity: &minQty})
	require.NoError(t, err)
	assert.Equal(t, name, out.Name)
	assert.True(t, out.Quantity.Equal(dec("10")))
	assert.True(t, out.LowStock)

	_, err = f.materials.Update(ctx, accountID, "no-existe", dto.UpdateMaterialRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.materials.Update(ctx, "acc-2", mat.ID, dto.UpdateMaterialRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	empty := " "
	_, err = f.materials.Update(ctx, accountID, mat.ID, dto.UpdateMaterialRequest{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestActualizarMaterial_EscalaYRango(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.material(t, "Terreau", "10", "5")

	fine := dec("2.12345")
	huge := dec("1e14")
	cases := map[string]dto.UpdateMaterialRequest{
		"mínimo con cinco decimales": {MinQuantity: &fine},
		"precio con cinco decimales": {UnitPrice: &fine},
		"precio enorme":              {UnitPrice: &huge},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.materials.Update(ctx, accountID, mat.ID, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	got, err := f.materials.GetByID(ctx, accountID, mat.ID)
	require.NoError(t, err)
	assert.True(t, got.UnitPrice.Equal(dec("5")), "un parche rechazado no escribe nada")
}

func TestActualizarMaterial_ParchesConcurrentesNoSePisan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		mat := f.material(t, "Gravier", "1", "1")
		name := "Gravier concassé"
		price := dec("7.5")

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make([]error, 2)
		for j, in := range []dto.UpdateMaterialRequest{{Name: &name}, {UnitPrice: &price}} {
			wg.Add(1)
			go func(j int, in dto.UpdateMaterialRequest) {
				defer wg.Done()
				<-start
				_, errs[j] = f.materials.Update(ctx, accountID, mat.ID, in)
			}(j, in)
		}
		close(start)
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		got, err := f.materials.GetByID(ctx, accountID, mat.ID)
		require.NoError(t, err)
		assert.Equal(t, name, got.Name, "iteración %d", i)
		assert.True(t, got.UnitPrice.Equal(price), "iteración %d: precio %s", i, got.UnitPrice)
	}
}

func TestListarMateriales_OrdenAlfabeticoSinMayusculas(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"zinnia", "Érable", "abelia", "Buis", "eucalyptus"} {
		f.material(t, name, "1", "1")
	}
	// Material de otra cuenta: no debe aparecer.
	_, err := f.materials.Create(context.Background(), "acc-2", dto.CreateMaterialRequest{Name: "Aaa"})
	require.NoError(t, err)

	list, err := f.materials.List(context.Background(), accountID)
	require.NoError(t, err)
	var names []string
	for _, m := range list.Items {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"abelia", "Buis", "Érable", "eucalyptus", "zinnia"}, names)
}

func TestListarStockBajo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low, err := f.materials.Create(ctx, accountID, dto.CreateMaterialRequest{Name: "Engrais", Quantity: dec("2"), MinQuantity: dec("5")})
	require.NoError(t, err)
	_, err = f.materials.Create(ctx, accountID, dto.CreateMaterialRequest{Name: "Sable", Quantity: dec("5"), MinQuantity: dec("5")})
	require.NoError(t, err)

	list, err := f.materials.ListLowStock(ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, low.ID, list.Items[0].ID)
	assert.True(t, list.Items[0].LowStock)
}

func TestEliminarMaterial_ConReferenciasEsConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.site(t, accountID, "site-1")
	used := f.material(t, "Terreau", "10", "5")
	moved := f.material(t, "Sable", "10", "5")
	free := f.material(t, "Gravier", "10", "5")

	_, err := f.consume(ctx, "site-1", used.ID, "1")
	require.NoError(t, err)
	_, err = f.movements.RegisterMovement(ctx, inventory.MovementInputDTO{
		AccountID: accountID, MaterialID: moved.ID, Type: entity.MovementTypeIN, Quantity: dec("1"),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.materials.Delete(ctx, accountID, used.ID), domain.ErrConflict)
	assert.ErrorIs(t, f.materials.Delete(ctx, accountID, moved.ID), domain.ErrConflict)
	assert.ErrorIs(t, f.materials.Delete(ctx, "acc-2", free.ID), domain.ErrForbidden)
	require.NoError(t, f.materials.Delete(ctx, accountID, free.ID))
	_, err = f.materials.GetByID(ctx, accountID, free.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.materials.Delete(ctx, accountID, free.ID), domain.ErrNotFound)
}

func TestConciliar_AjusteReiniciaElTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := f.material(t, "Terreau", "10", "5")

	for _, mv := range []struct {
		kind string
		qty  string
	}{
		{entity.MovementTypeIN, "5"},
		{entity.MovementTypeOUT, "3"},
		{entity.MovementTypeADJUSTMENT, "7"},
		{entity.MovementTypeOUT, "2"},
	} {
		_, err := f.movements.RegisterMovement(ctx, inventory.MovementInputDTO{
			AccountID: accountID, MaterialID: mat.ID, Type: mv.kind, Quantity: decimal.RequireFromString(mv.qty),
		})
		require.NoError(t, err)
	}

	rec, err := f.materials.Reconcile(ctx, accountID, mat.ID)
	require.NoError(t, err)
	assert.True(t, rec.Expected.Equal(dec("5")))
	assert.True(t, rec.Actual.Equal(dec("5")))
	assert.True(t, rec.Drift.IsZero())
	assert.True(t, rec.InitialQuantity.Equal(dec("10")))
	assert.Equal(t, 4, rec.Movements)
	assert.True(t, rec.Consistent)
}
