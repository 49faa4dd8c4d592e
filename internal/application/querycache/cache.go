// Package querycache implementa la caché de lecturas del cliente: entradas por clave con ventana de
// frescura, una sola petición en vuelo por clave (singleflight), reintento automático e invalidación
// explícita tras mutaciones exitosas.
//
// La caché se construye una vez al arrancar la aplicación y se inyecta en quien la necesite; Close la
// desmonta al terminar la sesión. Nadie modifica entradas directamente: solo Get e Invalidate.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/inventario-web/internal/domain"
	"github.com/jhoicas/inventario-web/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-web/pkg/logger"
)

// Valores por defecto (equivalentes a staleTime 5000 y retry 1).
const (
	DefaultStaleTime  = 5 * time.Second
	DefaultRetryDelay = time.Second
)

// ErrClosed se devuelve al leer de una caché ya desmontada.
var ErrClosed = errors.New("querycache: caché cerrada")

// Key identifica una consulta: tipo de recurso más un id de ámbito opcional (0 = sin ámbito).
type Key struct {
	Resource string
	ID       int64
}

func (k Key) String() string {
	if k.ID == 0 {
		return k.Resource
	}
	return k.Resource + "/" + strconv.FormatInt(k.ID, 10)
}

// Status estado de carga de una entrada.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State instantánea de solo lectura de una entrada.
type State struct {
	Data      any
	HasData   bool
	Status    Status
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

// FetchFunc obtiene los datos de una clave desde el servidor.
type FetchFunc func(ctx context.Context) (any, error)

// RetryPolicy decide si un fallo merece el único reintento automático.
type RetryPolicy func(err error) bool

// RetryAlways reintenta cualquier error una vez (comportamiento histórico del cliente).
func RetryAlways(error) bool { return true }

// RetryTransportOnly reintenta solo fallos de transporte; NotFound o validación se propagan al momento.
func RetryTransportOnly(err error) bool { return domain.IsTransport(err) }

// Options parámetros de la caché.
type Options struct {
	StaleTime  time.Duration
	RetryDelay time.Duration // negativo = sin espera
	Retry      RetryPolicy
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// Stats contadores acumulados.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Fetches uint64 `json:"fetches"`
	Errors  uint64 `json:"errors"`
}

type entry struct {
	data        any
	hasData     bool
	status      Status
	err         error
	updatedAt   time.Time
	invalidated bool
	version     uint64
}

// Cache caché de consultas. Segura para uso concurrente.
type Cache struct {
	opts Options
	log  *logger.Logger

	mu      sync.Mutex
	entries map[Key]*entry
	epoch   uint64
	group   singleflight.Group
	done    chan struct{}
	closed  bool

	hits, misses, fetches, errs atomic.Uint64
}

// New construye la caché aplicando valores por defecto.
func New(opts Options) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Retry == nil {
		opts.Retry = RetryAlways
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		opts:    opts,
		log:     log.Component("querycache"),
		entries: make(map[Key]*entry),
		done:    make(chan struct{}),
	}
}

// Get devuelve el dato en caché si está fresco; si no, dispara (o se une a) el único fetch en vuelo
// de la clave. Todos los que esperan el mismo fetch observan el mismo resultado o el mismo error.
// Cancelar ctx solo abandona la espera: el fetch continúa y puebla la caché.
func (c *Cache) Get(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	if c.freshLocked(e) {
		data := e.data
		c.mu.Unlock()
		c.hits.Add(1)
		c.opts.Metrics.CacheLookup(key.Resource, true)
		return data, nil
	}
	version, epoch := e.version, c.epoch
	e.status = StatusLoading
	c.mu.Unlock()

	c.misses.Add(1)
	c.opts.Metrics.CacheLookup(key.Resource, false)

	// La versión forma parte de la clave: tras una invalidación el siguiente Get no se une al fetch viejo.
	sfKey := key.String() + "@" + strconv.FormatUint(epoch, 10) + "." + strconv.FormatUint(version, 10)
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(sfKey, func() (any, error) {
		return c.run(fetchCtx, key, version, epoch, fetch)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run ejecuta el fetch con el reintento único y guarda el resultado.
func (c *Cache) run(ctx context.Context, key Key, version, epoch uint64, fetch FetchFunc) (any, error) {
	c.fetches.Add(1)
	data, err := fetch(ctx)
	if err != nil && c.opts.Retry(err) {
		c.opts.Metrics.CacheFetch(key.Resource, "retry")
		c.log.Debug().Err(err).Str("key", key.String()).Msg("reintentando fetch")
		if !c.wait(c.opts.RetryDelay) {
			return nil, ErrClosed
		}
		c.fetches.Add(1)
		data, err = fetch(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch {
		// Resultado de una sesión ya desmontada.
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	e := c.entryLocked(key)
	if err != nil {
		c.errs.Add(1)
		c.opts.Metrics.CacheFetch(key.Resource, "error")
		c.log.Warn().Err(err).Str("key", key.String()).Msg("fetch fallido")
		e.err = err
		e.status = StatusError
		return nil, err
	}
	c.opts.Metrics.CacheFetch(key.Resource, "ok")
	e.data = data
	e.hasData = true
	e.err = nil
	e.status = StatusSuccess
	e.updatedAt = c.opts.Now()
	// Invalidado mientras estaba en vuelo: el dato se muestra pero el próximo Get vuelve a pedirlo.
	e.invalidated = e.version != version
	return data, nil
}

func (c *Cache) wait(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.done:
		return false
	}
}

// Invalidate marca las claves como obsoletas; el próximo Get de cada una vuelve a consultar.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		e, ok := c.entries[k]
		if !ok {
			continue
		}
		e.invalidated = true
		e.version++
		c.log.Debug().Str("key", k.String()).Msg("clave invalidada")
	}
}

// Peek devuelve el estado actual de una clave sin disparar fetch.
func (c *Cache) Peek(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State{Status: StatusIdle, Stale: true}
	}
	return State{
		Data:      e.data,
		HasData:   e.hasData,
		Status:    e.status,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     !c.freshLocked(e),
	}
}

// Stats instantánea de contadores.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
		Errors:  c.errs.Load(),
	}
}

// Close desmonta la caché: descarta entradas, corta esperas de reintento y rechaza lecturas futuras.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.epoch++
	c.entries = make(map[Key]*entry)
	close(c.done)
	return nil
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) freshLocked(e *entry) bool {
	return e.hasData && e.err == nil && !e.invalidated && c.opts.Now().Sub(e.updatedAt) < c.opts.StaleTime
}

// Fetch envoltorio tipado de Get.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: tipo inesperado %T para %s", v, key)
	}
	return out, nil
}

// PeekAs lee el dato de una clave con su tipo; ok es false si no hay dato o el tipo no coincide.
func PeekAs[T any](c *Cache, key Key) (T, State, bool) {
	st := c.Peek(key)
	out, ok := st.Data.(T)
	return out, st, ok && st.HasData
}
