// Package view arma los modelos de vista de la lista de artículos, su panel de historial y los
// movimientos recientes, a partir de las lecturas cacheadas.
package view

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/inventario-web/internal/application/querycache"
	"github.com/jhoicas/inventario-web/internal/domain"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// DefaultRenderWait espera máxima de un render por un fetch antes de mostrar "cargando".
const DefaultRenderWait = 2 * time.Second

// DefaultTimeLayout formato de fecha de los movimientos.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Reader lecturas cacheadas que necesita la vista (inventory.Service las implementa).
type Reader interface {
	Items(ctx context.Context) ([]entity.Item, error)
	ItemMovements(ctx context.Context, itemID int64) ([]entity.Movement, error)
	Movements(ctx context.Context) ([]entity.Movement, error)
	ItemsState() querycache.State
	ItemMovementsState(itemID int64) querycache.State
	MovementsState() querycache.State
}

// Options presentación.
type Options struct {
	RenderWait time.Duration
	Location   *time.Location
	TimeLayout string
}

func (o Options) withDefaults() Options {
	if o.RenderWait <= 0 {
		o.RenderWait = DefaultRenderWait
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.TimeLayout == "" {
		o.TimeLayout = DefaultTimeLayout
	}
	return o
}

// PanelStatus qué muestra un panel.
type PanelStatus int

const (
	PanelLoading PanelStatus = iota
	PanelError
	PanelEmpty
	PanelReady
)

func (s PanelStatus) IsLoading() bool { return s == PanelLoading }
func (s PanelStatus) IsError() bool   { return s == PanelError }
func (s PanelStatus) IsEmpty() bool   { return s == PanelEmpty }

// ItemRow fila de la tabla de artículos.
type ItemRow struct {
	ID       int64
	Name     string
	SKU      string
	Unit     string
	Stock    string
	Expanded bool
}

// ToggleLabel texto del botón de historial.
func (r ItemRow) ToggleLabel() string {
	if r.Expanded {
		return "Hide History"
	}
	return "View History"
}

// MovementRow fila de un historial de movimientos.
type MovementRow struct {
	ID       int64
	Date     string
	Type     string
	Badge    string // clase css: badge-in, badge-out, badge-adjustment
	Quantity string
	ItemID   int64
	ItemName string
	ItemSKU  string
	Unit     string
}

// ItemsPanel panel principal.
type ItemsPanel struct {
	Status PanelStatus
	Error  string
	Rows   []ItemRow
	Items  []entity.Item // para el formulario de movimientos
}

// MovementsPanel historial de un artículo o movimientos recientes.
type MovementsPanel struct {
	ItemID int64
	Status PanelStatus
	Error  string
	Rows   []MovementRow
}

// Model lo que se pinta en la página principal. Refresh pide recargar la página porque
// algún panel quedó cargando.
type Model struct {
	Items   ItemsPanel
	Detail  *MovementsPanel
	Refresh bool
}

// ItemList estado de la lista por sesión: qué artículo tiene el historial abierto.
type ItemList struct {
	reader Reader
	opts   Options

	mu       sync.Mutex
	expanded int64
}

// NewItemList construye la vista.
func NewItemList(reader Reader, opts Options) *ItemList {
	return &ItemList{reader: reader, opts: opts.withDefaults()}
}

// Toggle el mismo id cierra el panel; otro id lo reemplaza.
func (l *ItemList) Toggle(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.expanded == id {
		l.expanded = 0
		return
	}
	l.expanded = id
}

// Expanded id con el historial abierto, 0 si ninguno.
func (l *ItemList) Expanded() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expanded
}

// Render arma el modelo de la página. Cada lectura espera a lo sumo RenderWait; si el fetch sigue en
// vuelo el panel queda cargando y el fetch continúa poblando la caché.
func (l *ItemList) Render(ctx context.Context) Model {
	expanded := l.Expanded()
	var m Model

	items, st, err := await(ctx, l.opts.RenderWait, l.reader.Items, l.reader.ItemsState)
	m.Items = itemsPanel(items, st, err, expanded)
	if st == PanelLoading {
		m.Refresh = true
	}

	if expanded != 0 {
		movs, st, err := await(ctx, l.opts.RenderWait, func(ctx context.Context) ([]entity.Movement, error) {
			return l.reader.ItemMovements(ctx, expanded)
		}, func() querycache.State {
			return l.reader.ItemMovementsState(expanded)
		})
		panel := movementsPanel(movs, st, err, l.opts)
		panel.ItemID = expanded
		m.Detail = &panel
		if st == PanelLoading {
			m.Refresh = true
		}
	}
	return m
}

// MovementLog página de movimientos recientes.
type MovementLog struct {
	reader Reader
	opts   Options
}

// NewMovementLog construye la vista de movimientos recientes.
func NewMovementLog(reader Reader, opts Options) *MovementLog {
	return &MovementLog{reader: reader, opts: opts.withDefaults()}
}

// Render movimientos de todos los artículos, más recientes primero.
func (v *MovementLog) Render(ctx context.Context) (MovementsPanel, bool) {
	movs, st, err := await(ctx, v.opts.RenderWait, v.reader.Movements, v.reader.MovementsState)
	return movementsPanel(movs, st, err, v.opts), st == PanelLoading
}

// await espera la lectura hasta budget. Si vence, devuelve el dato previo en caché (si lo hay)
// con estado PanelLoading; el error de la lectura acompaña al dato previo que siga visible.
func await[T any](
	ctx context.Context,
	budget time.Duration,
	read func(context.Context) ([]T, error),
	peek func() querycache.State,
) ([]T, PanelStatus, error) {
	wctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	data, err := read(wctx)
	if err == nil {
		if len(data) == 0 {
			return data, PanelEmpty, nil
		}
		return data, PanelReady, nil
	}

	prev, _ := peek().Data.([]T)
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return prev, PanelLoading, nil
	}
	return prev, PanelError, err
}

func itemsPanel(items []entity.Item, st PanelStatus, err error, expanded int64) ItemsPanel {
	p := ItemsPanel{Status: st, Items: items}
	if err != nil {
		p.Error = domain.AsAPIError(err).Message
	}
	for _, it := range items {
		p.Rows = append(p.Rows, ItemRow{
			ID:       it.ID,
			Name:     it.Name,
			SKU:      it.SKU,
			Unit:     it.Unit,
			Stock:    entity.FormatQuantity(it.CurrentStock),
			Expanded: it.ID == expanded,
		})
	}
	return p
}

func movementsPanel(movs []entity.Movement, st PanelStatus, err error, opts Options) MovementsPanel {
	p := MovementsPanel{Status: st}
	if err != nil {
		p.Error = domain.AsAPIError(err).Message
	}
	for _, m := range movs {
		row := MovementRow{
			ID:       m.ID,
			Date:     FormatTime(m.CreatedAt, opts.Location, opts.TimeLayout),
			Type:     m.Type,
			Badge:    "badge-" + strings.ToLower(m.Type),
			Quantity: entity.FormatQuantity(m.Quantity),
			ItemID:   m.ItemID,
		}
		if m.Item != nil {
			row.ItemName = m.Item.Name
			row.ItemSKU = m.Item.SKU
			row.Unit = m.Item.Unit
		} else {
			row.ItemName = "#" + strconv.FormatInt(m.ItemID, 10)
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

// FormatTime fecha en la zona y formato de presentación; vacío si es cero.
func FormatTime(t time.Time, loc *time.Location, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(layout)
}
