// Package inventoryapi implementa los puertos de repositorio contra el backend REST de inventario
// (JSON sobre HTTP, prefijo /api). Todo error sale normalizado como *domain.APIError.
package inventoryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-web/internal/application/dto"
	"github.com/jhoicas/inventario-web/internal/domain"
	"github.com/jhoicas/inventario-web/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-web/pkg/logger"
)

// DefaultTimeout timeout fijo por petición; excederlo es fallo de transporte.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes límite de lectura de respuestas.
const maxBodyBytes = 8 << 20

// Options configuración del cliente.
type Options struct {
	BaseURL    string // ej. http://localhost:4000/api
	Timeout    time.Duration
	HTTPClient *http.Client // opcional; se le aplica Timeout
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

// Client cliente HTTP del backend. Seguro para uso concurrente.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient construye el cliente con timeout fijo (10 s por defecto).
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	hc.Timeout = timeout

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: hc,
		log:        log.Component("inventoryapi"),
		metrics:    opts.Metrics,
	}
}

// call ejecuta la petición y decodifica {"data": T}. Los fallos se normalizan aquí y solo aquí.
func call[T any](ctx context.Context, c *Client, op, method, path string, in any) (T, error) {
	var zero T

	var body io.Reader
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return zero, domain.NewTransportError(fmt.Errorf("codificar body: %w", err))
		}
		payload = b
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return zero, domain.NewTransportError(fmt.Errorf("crear petición: %w", err))
	}
	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		RawJSON("body", nonNilJSON(payload)).
		Msg("petición API")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(op, 0, time.Since(start))
		c.log.Warn().Err(err).Str("request_id", reqID).Str("path", path).Msg("fallo de transporte")
		return zero, domain.NewTransportError(err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPI(op, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, domain.NewTransportError(fmt.Errorf("leer respuesta: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, raw)
		c.log.Warn().
			Str("request_id", reqID).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("kind", apiErr.Kind.String()).
			Str("code", apiErr.Code).
			Msg(apiErr.Message)
		return zero, apiErr
	}

	var env dto.Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, domain.NewTransportError(fmt.Errorf("respuesta malformada: %w", err))
	}
	c.log.Debug().Str("request_id", reqID).Int("status", resp.StatusCode).Msg("respuesta API")
	return env.Data, nil
}

// decodeError lee {"error": {...}}; si el cuerpo no trae envelope se usa el mensaje genérico.
func decodeError(status int, raw []byte) *domain.APIError {
	var env dto.ErrorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.NewResponseError(status, "", "", nil)
	}
	return domain.NewResponseError(status, env.Error.Code, env.Error.Message, env.Error.Details)
}

func nonNilJSON(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
