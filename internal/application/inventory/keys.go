package inventory

import "github.com/jhoicas/inventario-web/internal/application/querycache"

// Recursos de la caché. Ninguna clave mezcla recursos.
const (
	ResourceItems     = "items"
	ResourceMovements = "movements"
)

// ItemsKey todos los artículos.
func ItemsKey() querycache.Key { return querycache.Key{Resource: ResourceItems} }

// ItemMovementsKey movimientos de un artículo.
func ItemMovementsKey(itemID int64) querycache.Key {
	return querycache.Key{Resource: ResourceMovements, ID: itemID}
}

// MovementsKey movimientos recientes de todos los artículos.
func MovementsKey() querycache.Key { return querycache.Key{Resource: ResourceMovements} }
