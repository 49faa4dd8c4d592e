package querycache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-web/internal/application/querycache"
	"github.com/jhoicas/inventario-web/internal/domain"
)

var itemsKey = querycache.Key{Resource: "items"}

// fakeClock reloj manual para controlar la ventana de frescura.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newCache(t *testing.T, clock *fakeClock, retry querycache.RetryPolicy) *querycache.Cache {
	t.Helper()
	c := querycache.New(querycache.Options{
		StaleTime:  5 * time.Second,
		RetryDelay: -1,
		Retry:      retry,
		Now:        clock.Now,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// counter devuelve un fetch que cuenta llamadas y responde la secuencia dada.
func counter(calls *atomic.Int32, results ...func() (any, error)) querycache.FetchFunc {
	return func(context.Context) (any, error) {
		n := int(calls.Add(1)) - 1
		if n >= len(results) {
			n = len(results) - 1
		}
		return results[n]()
	}
}

func ok(v any) func() (any, error)       { return func() (any, error) { return v, nil } }
func fail(err error) func() (any, error) { return func() (any, error) { return nil, err } }

func TestGet_DatoFrescoNoVuelveAConsultar(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)
	var calls atomic.Int32
	fetch := counter(&calls, ok("v1"), ok("v2"))

	v, err := c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	clock.Advance(4 * time.Second)
	v, err = c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.EqualValues(t, 1, calls.Load())

	clock.Advance(2 * time.Second)
	v, err = c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "v2", v, "pasada la ventana de 5 s se vuelve a consultar")
	assert.EqualValues(t, 2, calls.Load())

	st := c.Stats()
	assert.EqualValues(t, 1, st.Hits)
	assert.EqualValues(t, 2, st.Misses)
}

func TestGet_LecturasConcurrentesCompartenUnFetch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return []string{"a", "b"}, nil
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), itemsKey, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Esperar a que todos estén bloqueados en el mismo fetch.
	require.Eventually(t, func() bool { return c.Stats().Misses == callers }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load(), "una sola petición de red por clave")
	for _, r := range results {
		assert.Equal(t, []string{"a", "b"}, r)
	}
}

func TestGet_LecturasConcurrentesCompartenElFallo(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)

	release := make(chan struct{})
	boom := domain.NewTransportError(errors.New("connection refused"))
	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return nil, boom
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), itemsKey, fetch)
		}(i)
	}
	require.Eventually(t, func() bool { return c.Stats().Misses == 4 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.Same(t, boom, err)
	}
	assert.EqualValues(t, 2, calls.Load(), "primer intento más un reintento, compartidos")
}

func TestInvalidate_ForzaNuevaConsulta(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)
	var calls atomic.Int32
	fetch := counter(&calls, ok("antes"), ok("después"))

	_, err := c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.False(t, c.Peek(itemsKey).Stale)

	c.Invalidate(itemsKey, querycache.Key{Resource: "movements", ID: 7})
	assert.True(t, c.Peek(itemsKey).Stale)

	v, err := c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "después", v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestInvalidate_NoMezclaClaves(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)
	k1 := querycache.Key{Resource: "movements", ID: 1}
	k2 := querycache.Key{Resource: "movements", ID: 2}
	var calls atomic.Int32
	fetch := counter(&calls, ok("x"))

	_, _ = c.Get(context.Background(), k1, fetch)
	_, _ = c.Get(context.Background(), k2, fetch)
	c.Invalidate(k1)

	assert.True(t, c.Peek(k1).Stale)
	assert.False(t, c.Peek(k2).Stale)
	assert.Equal(t, "movements/1", k1.String())
	assert.Equal(t, "items", itemsKey.String())
}

func TestGet_FalloTransitorioSeReintentaUnaVez(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)
	var calls atomic.Int32
	fetch := counter(&calls, fail(errors.New("temporal")), ok("bien"))

	v, err := c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "bien", v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGet_FalloRepetidoConservaDatoPrevio(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)
	var calls atomic.Int32
	boom := errors.New("caído")
	fetch := counter(&calls, ok("previo"), fail(boom))

	_, err := c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)

	c.Invalidate(itemsKey)
	_, err = c.Get(context.Background(), itemsKey, fetch)
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 3, calls.Load(), "1 inicial + intento + reintento")

	data, st, found := querycache.PeekAs[string](c, itemsKey)
	assert.True(t, found)
	assert.Equal(t, "previo", data)
	assert.Equal(t, querycache.StatusError, st.Status)
	assert.ErrorIs(t, st.Err, boom)
	assert.EqualValues(t, 1, c.Stats().Errors)
}

func TestRetryTransportOnly_NoReintentaNotFound(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, querycache.RetryTransportOnly)
	var calls atomic.Int32
	notFound := domain.NewResponseError(404, "not_found", "Item not found", nil)
	fetch := counter(&calls, fail(notFound))

	_, err := c.Get(context.Background(), itemsKey, fetch)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())

	c.Invalidate(itemsKey)
	calls.Store(0)
	transport := domain.NewTransportError(context.DeadlineExceeded)
	fetch = counter(&calls, fail(transport), ok("ok"))
	v, err := c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGet_CancelarEsperaNoCancelaElFetch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)

	release := make(chan struct{})
	done := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		defer close(done)
		<-release
		return "tarde", ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Get(ctx, itemsKey, fetch)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
	require.Eventually(t, func() bool {
		return c.Peek(itemsKey).Status == querycache.StatusSuccess
	}, time.Second, 5*time.Millisecond)

	v, err := c.Get(context.Background(), itemsKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, "tarde", v, "el resultado abandonado igual pobló la caché")
}

func TestFetch_Tipado(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newCache(t, clock, nil)

	got, err := querycache.Fetch(context.Background(), c, itemsKey, func(context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	_, err = querycache.Fetch(context.Background(), c, itemsKey, func(context.Context) (string, error) {
		return "", nil
	})
	assert.Error(t, err, "el dato en caché es []int, no string")
}

func TestClose_RechazaLecturas(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := querycache.New(querycache.Options{Now: clock.Now})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Get(context.Background(), itemsKey, counter(new(atomic.Int32), ok(1)))
	assert.ErrorIs(t, err, querycache.ErrClosed)
	assert.Equal(t, querycache.StatusIdle, c.Peek(itemsKey).Status)
}
