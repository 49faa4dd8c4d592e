package forms

import (
	"context"
	"strings"
	"sync"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// Mensajes del formulario de artículos.
const (
	MsgNameRequired = "Name is required"
	MsgSKURequired  = "SKU is required"
	MsgItemCreated  = "Item created successfully."
	msgItemFailed   = "Failed to create item"
)

// ItemDraft borrador del alta.
type ItemDraft struct {
	Name string
	SKU  string
	Unit string
}

func defaultItemDraft() ItemDraft {
	return ItemDraft{Unit: entity.UnitPCS}
}

// ItemFormState instantánea para renderizar.
type ItemFormState struct {
	Draft   ItemDraft
	Pending bool
	Err     *FormError
	Notice  string
}

// ItemForm controlador del alta de artículos.
type ItemForm struct {
	items    ItemCreator
	observer Observer

	mu      sync.Mutex
	draft   ItemDraft
	pending bool
	err     *FormError
	notice  string
}

// NewItemForm construye el formulario con el borrador por defecto (unidad pcs).
func NewItemForm(items ItemCreator, observer Observer) *ItemForm {
	return &ItemForm{items: items, observer: observer, draft: defaultItemDraft()}
}

func (f *ItemForm) edit(fn func(d *ItemDraft)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return ErrPending
	}
	fn(&f.draft)
	return nil
}

// SetName actualiza el nombre.
func (f *ItemForm) SetName(v string) error {
	return f.edit(func(d *ItemDraft) { d.Name = v })
}

// SetSKU actualiza el SKU, siempre en mayúsculas.
func (f *ItemForm) SetSKU(v string) error {
	return f.edit(func(d *ItemDraft) { d.SKU = entity.NormalizeSKU(v) })
}

// SetUnit actualiza la unidad.
func (f *ItemForm) SetUnit(v string) error {
	return f.edit(func(d *ItemDraft) { d.Unit = v })
}

// Submit valida y envía el borrador. Devuelve nil si el artículo se creó, *FormError si falló la
// validación previa o el servidor lo rechazó, y ErrPending si ya había un envío en curso.
func (f *ItemForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return ErrPending
	}
	f.err = nil
	draft := f.draft
	switch {
	case strings.TrimSpace(draft.Name) == "":
		f.err = precheckError(MsgNameRequired)
	case strings.TrimSpace(draft.SKU) == "":
		f.err = precheckError(MsgSKURequired)
	}
	if f.err != nil {
		err := f.err
		f.mu.Unlock()
		return err
	}
	f.pending = true
	f.mu.Unlock()

	created, err := f.items.Create(ctx, entity.NewItem{Name: draft.Name, SKU: draft.SKU, Unit: draft.Unit})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil {
		f.err = failureError(err, msgItemFailed)
		return f.err
	}
	f.draft = defaultItemDraft()
	f.notice = MsgItemCreated
	if f.observer != nil {
		f.observer.ItemCreated(*created)
	}
	return nil
}

// State instantánea del formulario.
func (f *ItemForm) State() ItemFormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ItemFormState{Draft: f.draft, Pending: f.pending, Err: f.err, Notice: f.notice}
}

// AckNotice el usuario cerró el aviso de éxito.
func (f *ItemForm) AckNotice() {
	f.mu.Lock()
	f.notice = ""
	f.mu.Unlock()
}
