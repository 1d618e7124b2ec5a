package inventory

import (
	"context"
	"time"

	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/repository"
)

// TxFunc recibe repositorios atados a una misma transacción.
type TxFunc func(
	materialRepo repository.MaterialRepository,
	movementRepo repository.MovementRepository,
	consumptionRepo repository.ConsumptionRepository,
) error

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando repositorios atados a esa tx.
// Si fn devuelve error o el contexto se cancela no queda ningún efecto visible (Rollback).
// GetForUpdate sobre un material lo bloquea hasta el Commit/Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn TxFunc) error
}

// Observer recibe la telemetría de las operaciones del libro de inventario.
type Observer interface {
	ObserveOperation(operation string, elapsed time.Duration, err error)
	ObserveRetry(operation string)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, time.Duration, error) {}
func (nopObserver) ObserveRetry(string) {}

// Nombres de operación usados en métricas y logs.
const (
	OpCreateMaterial    = "create_material"
	OpUpdateMaterial    = "update_material"
	OpDeleteMaterial    = "delete_material"
	OpReconcileMaterial = "reconcile_material"
	OpRecordMovement    = "record_movement"
	OpAddConsumption    = "add_consumption"
	OpRemoveConsumption = "remove_consumption"
	OpSiteMaterialCost  = "site_material_cost"
)
