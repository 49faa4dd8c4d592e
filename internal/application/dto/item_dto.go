package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// CreateItemRequest body para POST /api/items.
type CreateItemRequest struct {
	Name string `json:"name"`
	SKU  string `json:"sku"`
	Unit string `json:"unit"`
}

// ItemResponse artículo tal como lo devuelve el backend; current_stock llega como string decimal.
type ItemResponse struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	InsertedAt   Timestamp       `json:"inserted_at"`
	UpdatedAt    Timestamp       `json:"updated_at"`
}

// ToEntity convierte la respuesta en entidad de dominio.
func (r ItemResponse) ToEntity() entity.Item {
	return entity.Item{
		ID:           r.ID,
		Name:         r.Name,
		SKU:          r.SKU,
		Unit:         r.Unit,
		CurrentStock: r.CurrentStock,
		InsertedAt:   r.InsertedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

// ItemsToEntities convierte una lista preservando el orden del servidor.
func ItemsToEntities(in []ItemResponse) []entity.Item {
	out := make([]entity.Item, 0, len(in))
	for _, r := range in {
		out = append(out, r.ToEntity())
	}
	return out
}
