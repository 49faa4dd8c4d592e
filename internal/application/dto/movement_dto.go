package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// CreateMovementRequest body para POST /api/movements. Quantity se envía como número JSON.
type CreateMovementRequest struct {
	ItemID       int64       `json:"item_id"`
	Quantity     json.Number `json:"quantity"`
	MovementType string      `json:"movement_type"`
}

// NewCreateMovementRequest arma el body desde la entrada de dominio.
func NewCreateMovementRequest(in entity.NewMovement) CreateMovementRequest {
	return CreateMovementRequest{
		ItemID:       in.ItemID,
		Quantity:     json.Number(in.Quantity.String()),
		MovementType: in.Type,
	}
}

// ItemSummaryResponse resumen del artículo embebido en un movimiento.
type ItemSummaryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
	Unit string `json:"unit"`
}

// MovementResponse movimiento tal como lo devuelve el backend.
type MovementResponse struct {
	ID           int64                `json:"id"`
	ItemID       int64                `json:"item_id"`
	Quantity     decimal.Decimal      `json:"quantity"`
	MovementType string               `json:"movement_type"`
	CreatedAt    Timestamp            `json:"created_at"`
	Item         *ItemSummaryResponse `json:"item,omitempty"`
}

// ToEntity convierte la respuesta en entidad de dominio.
func (r MovementResponse) ToEntity() entity.Movement {
	m := entity.Movement{
		ID:        r.ID,
		ItemID:    r.ItemID,
		Quantity:  r.Quantity,
		Type:      r.MovementType,
		CreatedAt: r.CreatedAt.Time,
	}
	if r.Item != nil {
		m.Item = &entity.ItemSummary{ID: r.Item.ID, Name: r.Item.Name, SKU: r.Item.SKU, Unit: r.Item.Unit}
	}
	return m
}

// MovementsToEntities convierte una lista preservando el orden del servidor.
func MovementsToEntities(in []MovementResponse) []entity.Movement {
	out := make([]entity.Movement, 0, len(in))
	for _, r := range in {
		out = append(out, r.ToEntity())
	}
	return out
}
