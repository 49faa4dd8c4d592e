package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrTransport         = errors.New("fallo de transporte")
	ErrServer            = errors.New("error del servidor")
)

// CodeInsufficientStock código estable que el backend envía cuando un OUT/ADJUSTMENT dejaría stock negativo.
const CodeInsufficientStock = "insufficient_stock"

// MsgUnexpected mensaje genérico para fallos de transporte (timeout, red, respuesta malformada).
const MsgUnexpected = "An unexpected error occurred"

// ErrorKind variante del error normalizado; se decide una sola vez en el borde del cliente API.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindValidation
	KindInsufficientStock
	KindNotFound
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindNotFound:
		return "not_found"
	default:
		return "server"
	}
}

// APIError forma única de error que expone el cliente: mensaje, código opcional y detalles por campo.
type APIError struct {
	Kind    ErrorKind
	Status  int // 0 en fallos de transporte
	Code    string
	Message string
	Details map[string][]string
	cause   error
}

// NewTransportError envuelve un fallo de red/timeout/decodificación. No lleva código ni detalles.
func NewTransportError(cause error) *APIError {
	return &APIError{Kind: KindTransport, Message: MsgUnexpected, cause: cause}
}

// NewResponseError clasifica una respuesta no-2xx con su envelope de error ya decodificado.
func NewResponseError(status int, code, message string, details map[string][]string) *APIError {
	if message == "" {
		message = MsgUnexpected
	}
	e := &APIError{Status: status, Code: code, Message: message, Details: details}
	switch {
	case code == CodeInsufficientStock:
		e.Kind = KindInsufficientStock
		e.Details = nil
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case len(details) > 0 || status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	return e
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap expone la causa de transporte (p. ej. context.DeadlineExceeded).
func (e *APIError) Unwrap() error { return e.cause }

// Is permite errors.Is(err, domain.ErrNotFound) y similares según Kind.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrInsufficientStock:
		return e.Kind == KindInsufficientStock
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}

// HasDetails indica si el error trae violaciones por campo.
func (e *APIError) HasDetails() bool { return len(e.Details) > 0 }

// AsAPIError normaliza cualquier error a *APIError; lo desconocido se trata como transporte.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewTransportError(err)
}

// IsTransport indica si el error es de transporte (candidato a reintento).
func IsTransport(err error) bool {
	return AsAPIError(err).Kind == KindTransport
}
