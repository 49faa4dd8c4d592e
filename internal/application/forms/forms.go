// Package forms contiene los controladores de formularios (alta de artículo, registro de movimiento):
// borrador, validación previa, envío y presentación de errores. Cada sesión de navegador tiene los suyos.
package forms

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jhoicas/inventario-web/internal/domain"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// ErrPending se devuelve al editar o reenviar mientras hay un envío en curso.
var ErrPending = errors.New("forms: envío en curso")

// FormError error visible en el formulario: una línea por campo o un único mensaje.
// Marked distingue el rechazo por stock insuficiente.
type FormError struct {
	Lines  []string
	Marked bool
}

func (e *FormError) Error() string {
	return strings.Join(e.Lines, "\n")
}

func precheckError(msg string) *FormError {
	return &FormError{Lines: []string{msg}}
}

// ItemCreator puerto de alta de artículos (repository.ItemRepository lo cumple).
type ItemCreator interface {
	Create(ctx context.Context, in entity.NewItem) (*entity.Item, error)
}

// MovementCreator puerto de registro de movimientos.
type MovementCreator interface {
	Create(ctx context.Context, in entity.NewMovement) (*entity.Movement, error)
}

// Observer recibe las mutaciones exitosas; las usa para invalidar la caché.
type Observer interface {
	ItemCreated(item entity.Item)
	MovementRecorded(m entity.Movement)
}

// failureError traduce un error del cliente API a líneas del formulario.
func failureError(err error, fallback string) *FormError {
	apiErr := domain.AsAPIError(err)
	if apiErr.Kind == domain.KindInsufficientStock {
		return &FormError{Lines: []string{apiErr.Message}, Marked: true}
	}
	if apiErr.HasDetails() {
		return &FormError{Lines: detailLines(apiErr.Details)}
	}
	msg := apiErr.Message
	if msg == "" {
		msg = fallback
	}
	return &FormError{Lines: []string{msg}}
}

// detailLines "campo: m1, m2", ordenadas por campo.
func detailLines(details map[string][]string) []string {
	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f+": "+strings.Join(details[f], ", "))
	}
	return lines
}
