package repository

import (
	"context"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// ItemRepository define el puerto hacia el recurso /items del backend (DIP).
// Los errores devueltos son siempre *domain.APIError.
type ItemRepository interface {
	List(ctx context.Context) ([]entity.Item, error)
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	Create(ctx context.Context, in entity.NewItem) (*entity.Item, error)
}
