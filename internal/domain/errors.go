package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Las capas externas agregan detalle con fmt.Errorf("%w: ...").
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrTransientStore indica que el almacén no estuvo disponible o la transacción
	// entró en conflicto; la operación completa se puede reintentar.
	ErrTransientStore = errors.New("almacén no disponible temporalmente")
)

// InsufficientStockError lleva los datos necesarios para informar el faltante exacto.
// errors.Is(err, ErrInsufficientStock) es verdadero para este tipo.
type InsufficientStockError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
	Unit      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %s %s, solicitado %s %s",
		e.Available.String(), e.Unit, e.Requested.String(), e.Unit)
}

// Is permite comparar contra el sentinel ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Shortfall devuelve la cantidad que falta para cubrir lo solicitado.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// Invalid construye un error de validación con el motivo indicado.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsRetryable indica si el error proviene de una falla transitoria del almacén.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
