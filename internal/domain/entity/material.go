package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de material.
const (
	CategoryPlant     = "plant"
	CategoryTool      = "tool"
	CategoryProduct   = "product"
	CategoryEquipment = "equipment"
	CategoryOther     = "other"
)

// ValidCategory indica si c es una categoría conocida.
func ValidCategory(c string) bool {
	switch c {
	case CategoryPlant, CategoryTool, CategoryProduct, CategoryEquipment, CategoryOther:
		return true
	}
	return false
}

// Material representa un insumo físico del catálogo con su existencia actual.
// Quantity solo cambia aplicando movimientos; InitialQuantity es la existencia con la que se creó.
type Material struct {
	ID              string
	AccountID       string
	Name            string
	Category        string
	Quantity        decimal.Decimal // existencia actual, nunca negativa
	InitialQuantity decimal.Decimal
	Unit            string          // kg, unidad, m2...
	MinQuantity     decimal.Decimal // umbral de stock bajo
	UnitPrice       decimal.Decimal
	Supplier        string // opcional
	Location        string // opcional
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLowStock indica si la existencia está por debajo del mínimo configurado.
func (m *Material) IsLowStock() bool {
	return m.Quantity.LessThan(m.MinQuantity)
}
