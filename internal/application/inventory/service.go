package inventory

import (
	"context"

	"github.com/jhoicas/inventario-web/internal/application/querycache"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
	"github.com/jhoicas/inventario-web/internal/domain/repository"
	"github.com/jhoicas/inventario-web/pkg/logger"
)

// Service lecturas cacheadas de inventario y reglas de invalidación tras mutaciones exitosas.
// Es el observador que notifican los formularios; una mutación fallida nunca llega aquí.
type Service struct {
	items     repository.ItemRepository
	movements repository.MovementRepository
	cache     *querycache.Cache
	log       *logger.Logger
}

// NewService construye el servicio sobre la caché compartida de la aplicación.
func NewService(
	items repository.ItemRepository,
	movements repository.MovementRepository,
	cache *querycache.Cache,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		items:     items,
		movements: movements,
		cache:     cache,
		log:       log.Component("inventory"),
	}
}

// Items lista de artículos, desde caché si está fresca.
func (s *Service) Items(ctx context.Context) ([]entity.Item, error) {
	return querycache.Fetch(ctx, s.cache, ItemsKey(), s.items.List)
}

// ItemMovements historial de un artículo. Primero confirma que el artículo existe, así un id
// inexistente se reporta como NotFound y no como lista vacía.
func (s *Service) ItemMovements(ctx context.Context, itemID int64) ([]entity.Movement, error) {
	return querycache.Fetch(ctx, s.cache, ItemMovementsKey(itemID), func(ctx context.Context) ([]entity.Movement, error) {
		if _, err := s.items.GetByID(ctx, itemID); err != nil {
			return nil, err
		}
		return s.movements.ListByItem(ctx, itemID)
	})
}

// Movements movimientos recientes de todos los artículos.
func (s *Service) Movements(ctx context.Context) ([]entity.Movement, error) {
	return querycache.Fetch(ctx, s.cache, MovementsKey(), s.movements.List)
}

// ItemCreated un artículo nuevo solo cambia la lista de artículos.
func (s *Service) ItemCreated(item entity.Item) {
	s.log.Info().Int64("item_id", item.ID).Str("sku", item.SKU).Msg("artículo creado")
	s.cache.Invalidate(ItemsKey())
}

// MovementRecorded un movimiento cambia el stock del artículo y su historial.
func (s *Service) MovementRecorded(m entity.Movement) {
	s.log.Info().
		Int64("item_id", m.ItemID).
		Str("type", m.Type).
		Str("quantity", entity.FormatQuantity(m.Quantity)).
		Msg("movimiento registrado")
	s.cache.Invalidate(ItemsKey(), ItemMovementsKey(m.ItemID), MovementsKey())
}

// ItemsState estado de la lista en caché, sin disparar fetch.
func (s *Service) ItemsState() querycache.State {
	return s.cache.Peek(ItemsKey())
}

// ItemMovementsState estado del historial de un artículo en caché.
func (s *Service) ItemMovementsState(itemID int64) querycache.State {
	return s.cache.Peek(ItemMovementsKey(itemID))
}

// MovementsState estado de los movimientos recientes en caché.
func (s *Service) MovementsState() querycache.State {
	return s.cache.Peek(MovementsKey())
}
