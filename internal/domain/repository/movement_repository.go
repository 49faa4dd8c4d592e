package repository

import (
	"context"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// MovementRepository define el puerto hacia /movements y /items/{id}/movements.
type MovementRepository interface {
	List(ctx context.Context) ([]entity.Movement, error)
	ListByItem(ctx context.Context, itemID int64) ([]entity.Movement, error)
	Create(ctx context.Context, in entity.NewMovement) (*entity.Movement, error)
}
