package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope cuerpo de éxito del backend: {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// ErrorEnvelope cuerpo de error del backend: {"error": {code, message, details?}}.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody detalle del error; Details mapea campo -> lista de violaciones.
type ErrorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Layouts aceptados para marcas de tiempo (RFC3339 o NaiveDateTime de Ecto, interpretado en UTC).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp acepta fechas con o sin zona horaria.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parsea el string de fecha; null deja el valor cero.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: formato no reconocido %q", s)
}

// MarshalJSON emite RFC3339 en UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
