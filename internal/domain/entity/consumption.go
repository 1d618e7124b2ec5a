package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionLink asocia una cantidad consumida de un material a una obra.
// MovementID apunta a la salida (out) que descontó el stock; el vínculo nunca se edita,
// un cambio de cantidad es eliminar y volver a crear.
type ConsumptionLink struct {
	ID         string
	AccountID  string
	SiteID     string
	MaterialID string
	MovementID string
	Quantity   decimal.Decimal
	UsedOn     time.Time // fecha de uso
	Notes      string
	CreatedAt  time.Time
	CreatedBy  string
}
