package inventoryapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jhoicas/inventario-web/internal/application/dto"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// ItemRepository implementa repository.ItemRepository sobre /items.
type ItemRepository struct {
	c *Client
}

// NewItemRepository construye el repositorio.
func NewItemRepository(c *Client) *ItemRepository {
	return &ItemRepository{c: c}
}

// List GET /items. Sin paginación; respeta el orden del servidor.
func (r *ItemRepository) List(ctx context.Context) ([]entity.Item, error) {
	out, err := call[[]dto.ItemResponse](ctx, r.c, "list_items", http.MethodGet, "/items", nil)
	if err != nil {
		return nil, err
	}
	return dto.ItemsToEntities(out), nil
}

// GetByID GET /items/{id}; un id inexistente produce un error de tipo NotFound.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	out, err := call[dto.ItemResponse](ctx, r.c, "get_item", http.MethodGet, fmt.Sprintf("/items/%d", id), nil)
	if err != nil {
		return nil, err
	}
	item := out.ToEntity()
	return &item, nil
}

// Create POST /items. El servidor valida nombre, patrón y unicidad del SKU.
func (r *ItemRepository) Create(ctx context.Context, in entity.NewItem) (*entity.Item, error) {
	body := dto.CreateItemRequest{Name: in.Name, SKU: in.SKU, Unit: in.Unit}
	out, err := call[dto.ItemResponse](ctx, r.c, "create_item", http.MethodPost, "/items", body)
	if err != nil {
		return nil, err
	}
	item := out.ToEntity()
	return &item, nil
}
