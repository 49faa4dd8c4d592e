package forms

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// Mensajes del formulario de movimientos.
const (
	MsgSelectItem       = "Please select an item"
	MsgQuantityPositive = "Quantity must be a positive number"
	MsgMovementRecorded = "Movement recorded successfully!"
	msgMovementFailed   = "Failed to record movement"
)

// MovementDraft borrador del movimiento. ItemID 0 = sin seleccionar; Quantity es texto libre.
type MovementDraft struct {
	ItemID   int64
	Quantity string
	Type     string
}

// MovementFormState instantánea para renderizar.
type MovementFormState struct {
	Draft   MovementDraft
	Pending bool
	Err     *FormError
	Notice  string
}

// MovementForm controlador del registro de movimientos.
type MovementForm struct {
	movements MovementCreator
	observer  Observer

	mu      sync.Mutex
	draft   MovementDraft
	pending bool
	err     *FormError
	notice  string
}

// NewMovementForm construye el formulario con tipo IN y sin artículo seleccionado.
func NewMovementForm(movements MovementCreator, observer Observer) *MovementForm {
	return &MovementForm{
		movements: movements,
		observer:  observer,
		draft:     MovementDraft{Type: entity.MovementTypeIN},
	}
}

func (f *MovementForm) edit(fn func(d *MovementDraft)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return ErrPending
	}
	fn(&f.draft)
	return nil
}

// SetItem selecciona el artículo.
func (f *MovementForm) SetItem(id int64) error {
	return f.edit(func(d *MovementDraft) { d.ItemID = id })
}

// SetQuantity guarda el texto tal cual; se interpreta al enviar.
func (f *MovementForm) SetQuantity(v string) error {
	return f.edit(func(d *MovementDraft) { d.Quantity = v })
}

// SetType selecciona el tipo de movimiento.
func (f *MovementForm) SetType(v string) error {
	return f.edit(func(d *MovementDraft) { d.Type = v })
}

// SyncItems se llama cada vez que se conoce la lista de artículos.
func (f *MovementForm) SyncItems(items []entity.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	autoSelectFirstItem(&f.draft, items)
}

// autoSelectFirstItem preselecciona el primer artículo si no hay ninguno elegido.
// Es una comodidad de la interfaz; no sustituye la validación de Submit.
func autoSelectFirstItem(d *MovementDraft, items []entity.Item) {
	if d.ItemID == 0 && len(items) > 0 {
		d.ItemID = items[0].ID
	}
}

// Disabled el select de artículo y el botón se deshabilitan sin artículos.
func Disabled(items []entity.Item) bool {
	return len(items) == 0
}

// SelectedItem artículo elegido dentro de items, o nil.
func (f *MovementForm) SelectedItem(items []entity.Item) *entity.Item {
	f.mu.Lock()
	id := f.draft.ItemID
	f.mu.Unlock()
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// parseQuantity acepta solo decimales estrictamente positivos.
func parseQuantity(s string) (decimal.Decimal, bool) {
	q, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !q.IsPositive() {
		return decimal.Zero, false
	}
	return q, true
}

// Submit valida y registra el movimiento. Tras un éxito solo se limpia la cantidad: artículo y tipo
// se conservan para cargar varios movimientos seguidos.
func (f *MovementForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return ErrPending
	}
	f.err = nil
	draft := f.draft
	if draft.ItemID == 0 {
		f.err = precheckError(MsgSelectItem)
		f.mu.Unlock()
		return f.err
	}
	qty, ok := parseQuantity(draft.Quantity)
	if !ok {
		f.err = precheckError(MsgQuantityPositive)
		f.mu.Unlock()
		return f.err
	}
	f.pending = true
	f.mu.Unlock()

	m, err := f.movements.Create(ctx, entity.NewMovement{ItemID: draft.ItemID, Quantity: qty, Type: draft.Type})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil {
		f.err = failureError(err, msgMovementFailed)
		return f.err
	}
	f.draft.Quantity = ""
	f.notice = MsgMovementRecorded
	if f.observer != nil {
		f.observer.MovementRecorded(*m)
	}
	return nil
}

// State instantánea del formulario.
func (f *MovementForm) State() MovementFormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return MovementFormState{Draft: f.draft, Pending: f.pending, Err: f.err, Notice: f.notice}
}

// AckNotice el usuario cerró el aviso de éxito.
func (f *MovementForm) AckNotice() {
	f.mu.Lock()
	f.notice = ""
	f.mu.Unlock()
}
