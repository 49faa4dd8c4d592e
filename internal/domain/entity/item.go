package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unidades de medida admitidas por el backend.
const (
	UnitPCS   = "pcs"
	UnitKG    = "kg"
	UnitLitre = "litre"
)

// Units lista ordenada para selects del formulario.
var Units = []string{UnitPCS, UnitKG, UnitLitre}

// UnitLabel etiqueta legible de una unidad.
func UnitLabel(unit string) string {
	switch unit {
	case UnitPCS:
		return "Pieces (pcs)"
	case UnitKG:
		return "Kilograms (kg)"
	case UnitLitre:
		return "Litres (litre)"
	}
	return unit
}

// ValidUnit indica si unit pertenece al enumerado.
func ValidUnit(unit string) bool {
	switch unit {
	case UnitPCS, UnitKG, UnitLitre:
		return true
	}
	return false
}

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Item representa un artículo del inventario. CurrentStock es el agregado que calcula el servidor
// a partir de sus movimientos; el cliente nunca lo modifica.
type Item struct {
	ID           int64
	Name         string
	SKU          string // único, en mayúsculas
	Unit         string
	CurrentStock decimal.Decimal
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// NormalizeSKU aplica la normalización de mayúsculas que hace el formulario en cada edición.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(sku)
}

// ValidSKU replica la regla del servidor: letras, dígitos, guion y guion bajo.
func ValidSKU(sku string) bool {
	return skuPattern.MatchString(sku)
}

// FormatQuantity representa una cantidad decimal con dos decimales fijos.
func FormatQuantity(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NewItem datos de alta de un artículo.
type NewItem struct {
	Name string
	SKU  string
	Unit string
}
