package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-web/internal/application/forms"
	"github.com/jhoicas/inventario-web/internal/application/view"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
	"github.com/jhoicas/inventario-web/pkg/logger"
)

// PageHandler páginas HTML de inventario: formularios, lista con historial y movimientos recientes.
type PageHandler struct {
	movements *view.MovementLog
	appName   string
	log       *logger.Logger
}

// NewPageHandler construye el handler.
func NewPageHandler(movements *view.MovementLog, appName string, log *logger.Logger) *PageHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &PageHandler{movements: movements, appName: appName, log: log.Component("pages")}
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type indexPage struct {
	Title            string
	AppName          string
	Refresh          bool
	Items            view.ItemsPanel
	Detail           *view.MovementsPanel
	ItemForm         forms.ItemFormState
	MovementForm     forms.MovementFormState
	MovementDisabled bool
	ItemOptions      []option
	SelectedItem     *entity.Item
	Units            []option
	Types            []option
	Notice           string
}

type movementsPage struct {
	Title   string
	AppName string
	Refresh bool
	Panel   view.MovementsPanel
}

// Index GET /: formularios, lista de artículos y el historial abierto.
func (h *PageHandler) Index(c *fiber.Ctx) error {
	ui := GetUI(c)
	model := ui.List.Render(c.UserContext())

	items := model.Items.Items
	ui.MovementForm.SyncItems(items)
	itemState := ui.ItemForm.State()
	movState := ui.MovementForm.State()

	page := indexPage{
		Title:            "Inventory Management",
		AppName:          h.appName,
		Refresh:          model.Refresh,
		Items:            model.Items,
		Detail:           model.Detail,
		ItemForm:         itemState,
		MovementForm:     movState,
		MovementDisabled: forms.Disabled(items),
		SelectedItem:     ui.MovementForm.SelectedItem(items),
		Notice:           firstNonEmpty(itemState.Notice, movState.Notice),
	}
	for _, it := range items {
		page.ItemOptions = append(page.ItemOptions, option{
			Value:    strconv.FormatInt(it.ID, 10),
			Label:    ItemOptionLabel(it),
			Selected: it.ID == movState.Draft.ItemID,
		})
	}
	for _, u := range entity.Units {
		page.Units = append(page.Units, option{Value: u, Label: entity.UnitLabel(u), Selected: u == itemState.Draft.Unit})
	}
	for _, t := range entity.MovementTypes {
		page.Types = append(page.Types, option{Value: t, Label: entity.MovementTypeLabel(t), Selected: t == movState.Draft.Type})
	}
	return render(c, fiber.StatusOK, "index", page)
}

// ItemOptionLabel "Widget A (WGT-001) - Stock: 10.00 pcs".
func ItemOptionLabel(it entity.Item) string {
	return fmt.Sprintf("%s (%s) - Stock: %s %s", it.Name, it.SKU, entity.FormatQuantity(it.CurrentStock), it.Unit)
}

// CreateItem POST /items. El resultado (error o aviso) queda en el formulario de la sesión.
func (h *PageHandler) CreateItem(c *fiber.Ctx) error {
	f := GetUI(c).ItemForm
	if err := firstErr(
		f.SetName(c.FormValue("name")),
		f.SetSKU(c.FormValue("sku")),
		f.SetUnit(c.FormValue("unit", entity.UnitPCS)),
	); err != nil {
		return h.afterSubmit(c, "create_item", err)
	}
	return h.afterSubmit(c, "create_item", f.Submit(c.UserContext()))
}

// RecordMovement POST /movements.
func (h *PageHandler) RecordMovement(c *fiber.Ctx) error {
	f := GetUI(c).MovementForm
	itemID, _ := strconv.ParseInt(strings.TrimSpace(c.FormValue("item_id")), 10, 64)
	if err := firstErr(
		f.SetItem(itemID),
		f.SetQuantity(c.FormValue("quantity")),
		f.SetType(c.FormValue("movement_type", entity.MovementTypeIN)),
	); err != nil {
		return h.afterSubmit(c, "record_movement", err)
	}
	return h.afterSubmit(c, "record_movement", f.Submit(c.UserContext()))
}

// afterSubmit PRG: siempre vuelve a "/"; el error ya está guardado en el formulario.
func (h *PageHandler) afterSubmit(c *fiber.Ctx, op string, err error) error {
	var fe *forms.FormError
	switch {
	case err == nil:
	case errors.Is(err, forms.ErrPending):
		h.log.Debug().Str("op", op).Msg("envío ignorado: hay otro en curso")
	case errors.As(err, &fe):
		h.log.Info().Str("op", op).Bool("marked", fe.Marked).Strs("lines", fe.Lines).Msg("formulario rechazado")
	default:
		h.log.Error().Err(err).Str("op", op).Msg("envío de formulario")
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// ToggleItem POST /items/:id/toggle: abre o cierra el historial del artículo.
func (h *PageHandler) ToggleItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "id inválido")
	}
	GetUI(c).List.Toggle(int64(id))
	return c.Redirect("/", fiber.StatusSeeOther)
}

// AckNotice POST /notice/ack: cierra el aviso de éxito.
func (h *PageHandler) AckNotice(c *fiber.Ctx) error {
	ui := GetUI(c)
	ui.ItemForm.AckNotice()
	ui.MovementForm.AckNotice()
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Movements GET /movements: movimientos recientes de todos los artículos.
func (h *PageHandler) Movements(c *fiber.Ctx) error {
	panel, loading := h.movements.Render(c.UserContext())
	return render(c, fiber.StatusOK, "movements", movementsPage{
		Title:   "Recent Movements",
		AppName: h.appName,
		Refresh: loading,
		Panel:   panel,
	})
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
