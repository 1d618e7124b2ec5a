package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeIN         = "in"         // entrada: suma
	MovementTypeOUT        = "out"        // salida: resta
	MovementTypeADJUSTMENT = "adjustment" // ajuste: fija el valor absoluto
)

// ReasonConsumptionReversed motivo del movimiento compensatorio al eliminar un consumo.
const ReasonConsumptionReversed = "consumption reversed"

// Movement es un asiento inmutable del libro de movimientos.
// Quantity siempre es la magnitud informada; el signo lo da Type.
type Movement struct {
	ID         string
	AccountID  string
	MaterialID string
	SiteID     string // vacío si el movimiento no está ligado a una obra
	Type       string
	Quantity   decimal.Decimal
	Reason     string
	CreatedAt  time.Time
	CreatedBy  string
}
