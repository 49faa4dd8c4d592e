package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/jhoicas/inventario-web/internal/application/forms"
	"github.com/jhoicas/inventario-web/internal/application/view"
)

// LocalUI key en Locals con el estado de interfaz de la sesión.
const LocalUI = "ui_state"

const sessionKeyUI = "ui"

// DefaultSessionTTL vida de una sesión de navegador inactiva.
const DefaultSessionTTL = 2 * time.Hour

// UIState formularios y vista de una sesión de navegador.
type UIState struct {
	ItemForm     *forms.ItemForm
	MovementForm *forms.MovementForm
	List         *view.ItemList

	lastSeen time.Time
}

// Sessions registro de estados de interfaz por id de sesión.
type Sessions struct {
	mu      sync.Mutex
	states  map[string]*UIState
	factory func() *UIState
	ttl     time.Duration
	now     func() time.Time
}

// NewSessions construye el registro; factory crea el estado de una sesión nueva.
func NewSessions(factory func() *UIState, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{states: make(map[string]*UIState), factory: factory, ttl: ttl, now: time.Now}
}

// Get devuelve (o crea) el estado de la sesión id. De paso descarta sesiones vencidas.
func (s *Sessions) Get(id string) *UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, st := range s.states {
		if now.Sub(st.lastSeen) > s.ttl {
			delete(s.states, k)
		}
	}
	st, ok := s.states[id]
	if !ok {
		st = s.factory()
		s.states[id] = st
	}
	st.lastSeen = now
	return st
}

// Len número de sesiones vivas.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Reset descarta todas las sesiones.
func (s *Sessions) Reset() {
	s.mu.Lock()
	s.states = make(map[string]*UIState)
	s.mu.Unlock()
}

// NewSessionStore store de sesiones de Fiber con cookie propia.
func NewSessionStore(ttl time.Duration) *session.Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return session.New(session.Config{
		Expiration:     ttl,
		KeyLookup:      "cookie:inventario_session",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
}

// SessionMiddleware resuelve la sesión del navegador y carga su UIState en Locals.
func SessionMiddleware(store *session.Store, sessions *Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "sesión inválida")
		}
		id := sess.ID()
		sess.Set(sessionKeyUI, true)
		if err := sess.Save(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "guardar sesión")
		}
		c.Locals(LocalUI, sessions.Get(id))
		return c.Next()
	}
}

// GetUI devuelve el UIState del contexto (después de SessionMiddleware).
func GetUI(c *fiber.Ctx) *UIState {
	st, _ := c.Locals(LocalUI).(*UIState)
	return st
}

// InventoryPort lecturas cacheadas más los avisos de mutación que las invalidan.
type InventoryPort interface {
	view.Reader
	forms.Observer
}

// NewUIFactory devuelve el constructor de UIState para NewSessions.
func NewUIFactory(items forms.ItemCreator, movements forms.MovementCreator, inv InventoryPort, opts view.Options) func() *UIState {
	return func() *UIState {
		return &UIState{
			ItemForm:     forms.NewItemForm(items, inv),
			MovementForm: forms.NewMovementForm(movements, inv),
			List:         view.NewItemList(inv, opts),
		}
	}
}
