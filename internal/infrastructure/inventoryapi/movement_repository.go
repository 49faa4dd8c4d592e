package inventoryapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jhoicas/inventario-web/internal/application/dto"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// MovementRepository implementa repository.MovementRepository.
type MovementRepository struct {
	c *Client
}

// NewMovementRepository construye el repositorio.
func NewMovementRepository(c *Client) *MovementRepository {
	return &MovementRepository{c: c}
}

// List GET /movements (todos los artículos, con resumen embebido).
func (r *MovementRepository) List(ctx context.Context) ([]entity.Movement, error) {
	out, err := call[[]dto.MovementResponse](ctx, r.c, "list_movements", http.MethodGet, "/movements", nil)
	if err != nil {
		return nil, err
	}
	return dto.MovementsToEntities(out), nil
}

// ListByItem GET /items/{id}/movements.
func (r *MovementRepository) ListByItem(ctx context.Context, itemID int64) ([]entity.Movement, error) {
	path := fmt.Sprintf("/items/%d/movements", itemID)
	out, err := call[[]dto.MovementResponse](ctx, r.c, "list_item_movements", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return dto.MovementsToEntities(out), nil
}

// Create POST /movements. Un OUT/ADJUSTMENT que deje stock negativo vuelve como InsufficientStock.
func (r *MovementRepository) Create(ctx context.Context, in entity.NewMovement) (*entity.Movement, error) {
	body := dto.NewCreateMovementRequest(in)
	out, err := call[dto.MovementResponse](ctx, r.c, "create_movement", http.MethodPost, "/movements", body)
	if err != nil {
		return nil, err
	}
	m := out.ToEntity()
	return &m, nil
}
