package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         = "IN"         // entrada
	MovementTypeOUT        = "OUT"        // salida
	MovementTypeADJUSTMENT = "ADJUSTMENT" // ajuste (semántica del servidor)
)

// MovementTypes orden de presentación en el formulario.
var MovementTypes = []string{MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT}

// MovementTypeLabel texto de cada opción del select.
func MovementTypeLabel(t string) string {
	switch t {
	case MovementTypeIN:
		return "IN - Add to stock"
	case MovementTypeOUT:
		return "OUT - Remove from stock"
	case MovementTypeADJUSTMENT:
		return "ADJUSTMENT - Adjust stock"
	}
	return t
}

// ValidMovementType indica si t pertenece al enumerado.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT:
		return true
	}
	return false
}

// ItemSummary resumen del artículo embebido en un movimiento (solo para mostrar).
type ItemSummary struct {
	ID   int64
	Name string
	SKU  string
	Unit string
}

// Movement representa un movimiento de stock. Solo se agrega; nunca se modifica ni elimina.
type Movement struct {
	ID        int64
	ItemID    int64
	Quantity  decimal.Decimal // siempre positiva
	Type      string
	CreatedAt time.Time
	Item      *ItemSummary
}

// NewMovement datos para registrar un movimiento; Quantity viaja como número.
type NewMovement struct {
	ItemID   int64
	Quantity decimal.Decimal
	Type     string
}
