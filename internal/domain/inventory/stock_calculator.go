package inventory

import (
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain"
	"github.com/gardeauarbres/jardin-chef-mobile-sub001/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AmountScale decimales que conservan las columnas NUMERIC(18,4) de cantidades y precios.
const AmountScale = 4

// maxAmount primer valor que no cabe en NUMERIC(18,4).
var maxAmount = decimal.New(1, 14)

// ValidateAmount rechaza valores con más de AmountScale decimales o que no caben en el almacén.
// field nombra el campo en el mensaje de error.
func ValidateAmount(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(AmountScale)) {
		return domain.Invalid("%s admite como máximo %d decimales", field, AmountScale)
	}
	if v.Abs().GreaterThanOrEqual(maxAmount) {
		return domain.Invalid("%s excede el máximo permitido", field)
	}
	return nil
}

// ValidateMovement verifica la cantidad según el tipo:
// in/out exigen cantidad > 0; adjustment exige cantidad >= 0 (nuevo valor absoluto).
func ValidateMovement(kind string, qty decimal.Decimal) error {
	if err := ValidateAmount("la cantidad", qty); err != nil {
		return err
	}
	switch kind {
	case entity.MovementTypeIN, entity.MovementTypeOUT:
		if !qty.GreaterThan(decimal.Zero) {
			return domain.Invalid("la cantidad debe ser mayor que cero")
		}
	case entity.MovementTypeADJUSTMENT:
		if qty.LessThan(decimal.Zero) {
			return domain.Invalid("la cantidad del ajuste no puede ser negativa")
		}
	default:
		return domain.Invalid("tipo de movimiento desconocido %q", kind)
	}
	return nil
}

// ApplyMovement calcula la existencia resultante (servicio de dominio).
//
//	in         → actual + cantidad
//	out        → actual - cantidad (InsufficientStockError si queda negativa)
//	adjustment → cantidad
func ApplyMovement(current decimal.Decimal, kind string, qty decimal.Decimal, unit string) (decimal.Decimal, error) {
	if err := ValidateMovement(kind, qty); err != nil {
		return current, err
	}
	switch kind {
	case entity.MovementTypeIN:
		next := current.Add(qty)
		if next.GreaterThanOrEqual(maxAmount) {
			return current, domain.Invalid("la existencia resultante excede el máximo permitido")
		}
		return next, nil
	case entity.MovementTypeOUT:
		if current.LessThan(qty) {
			return current, &domain.InsufficientStockError{Available: current, Requested: qty, Unit: unit}
		}
		return current.Sub(qty), nil
	default:
		return qty, nil
	}
}

// Replay recalcula la existencia desde la cantidad inicial aplicando los movimientos
// en orden cronológico (el más antiguo primero). Un ajuste reinicia el total.
// No valida suficiencia: sirve para conciliar lo registrado, no para decidir.
func Replay(initial decimal.Decimal, movements []*entity.Movement) decimal.Decimal {
	qty := initial
	for _, m := range movements {
		switch m.Type {
		case entity.MovementTypeIN:
			qty = qty.Add(m.Quantity)
		case entity.MovementTypeOUT:
			qty = qty.Sub(m.Quantity)
		case entity.MovementTypeADJUSTMENT:
			qty = m.Quantity
		}
	}
	return qty
}
