// Package apitest levanta un backend de inventario en memoria con las mismas reglas y envelopes
// que el servidor real, para tests de integración del cliente, la caché y la UI.
package apitest

import (
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/shopspring/decimal"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

type item struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Unit         string `json:"unit"`
	CurrentStock string `json:"current_stock"`
	InsertedAt   string `json:"inserted_at"`
	UpdatedAt    string `json:"updated_at"`
	stock        decimal.Decimal
}

type itemSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
	Unit string `json:"unit"`
}

type movement struct {
	ID           int64        `json:"id"`
	ItemID       int64        `json:"item_id"`
	Quantity     string       `json:"quantity"`
	MovementType string       `json:"movement_type"`
	CreatedAt    string       `json:"created_at"`
	Item         *itemSummary `json:"item,omitempty"`
}

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Server backend falso. Los contadores permiten verificar deduplicación y reintentos.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	items     []*item
	movements []*movement
	nextItem  int64
	nextMov   int64
	failNext  map[string]int
	delay     time.Duration
	hits      map[string]*atomic.Int64
	now       func() time.Time
}

// New arranca el backend; el cliente debe usar URL()+"/api".
func New() *Server {
	s := &Server{
		nextItem: 1,
		nextMov:  1,
		failNext: map[string]int{},
		hits:     map[string]*atomic.Int64{},
		now:      func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) },
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	api := app.Group("/api", s.middleware)
	api.Get("/items", s.listItems)
	api.Post("/items", s.createItem)
	api.Get("/items/:id", s.getItem)
	api.Get("/items/:id/movements", s.listItemMovements)
	api.Get("/movements", s.listMovements)
	api.Post("/movements", s.createMovement)

	s.Server = httptest.NewServer(adaptor.FiberApp(app))
	return s
}

// BaseURL URL base con el prefijo /api.
func (s *Server) BaseURL() string { return s.URL + "/api" }

// Hits número de peticiones recibidas para "METHOD /ruta".
func (s *Server) Hits(route string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.hits[route]; ok {
		return c.Load()
	}
	return 0
}

// FailNext hace que las próximas n peticiones a route respondan 500.
func (s *Server) FailNext(route string, n int) {
	s.mu.Lock()
	s.failNext[route] = n
	s.mu.Unlock()
}

// SetDelay agrega latencia artificial a todas las respuestas.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// SeedItem da de alta un artículo con stock inicial (registrado como movimiento IN).
func (s *Server) SeedItem(name, sku, unit, stock string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.insertItem(name, strings.ToUpper(sku), unit)
	q := decimal.RequireFromString(stock)
	if q.IsPositive() {
		s.applyMovement(it, q, "IN")
	}
	return it.ID
}

// Stock stock actual de un artículo, con dos decimales.
func (s *Server) Stock(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it := s.find(id); it != nil {
		return it.CurrentStock
	}
	return ""
}

func (s *Server) middleware(c *fiber.Ctx) error {
	route := c.Method() + " " + routeOf(c.Path())
	s.mu.Lock()
	counter, ok := s.hits[route]
	if !ok {
		counter = &atomic.Int64{}
		s.hits[route] = counter
	}
	counter.Add(1)
	fail := s.failNext[route] > 0
	if fail {
		s.failNext[route]--
	}
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": errorBody{Code: "internal", Message: "Internal server error"},
		})
	}
	return c.Next()
}

// routeOf reemplaza ids numéricos por :id para agrupar contadores.
func routeOf(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func (s *Server) listItems(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	return c.JSON(fiber.Map{"data": out})
}

func (s *Server) getItem(c *fiber.Ctx) error {
	id, _ := strconv.ParseInt(c.Params("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.find(id)
	if it == nil {
		return notFound(c)
	}
	return c.JSON(fiber.Map{"data": *it})
}

func (s *Server) createItem(c *fiber.Ctx) error {
	var in struct {
		Name string `json:"name"`
		SKU  string `json:"sku"`
		Unit string `json:"unit"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errorBody{Code: "bad_request", Message: "Invalid JSON body"},
		})
	}
	sku := strings.ToUpper(strings.TrimSpace(in.SKU))

	s.mu.Lock()
	defer s.mu.Unlock()

	details := map[string][]string{}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = append(details["name"], "can't be blank")
	}
	switch {
	case sku == "":
		details["sku"] = append(details["sku"], "can't be blank")
	case !skuPattern.MatchString(sku):
		details["sku"] = append(details["sku"], "must contain only letters, numbers, hyphens, and underscores")
	default:
		for _, it := range s.items {
			if it.SKU == sku {
				details["sku"] = append(details["sku"], "has already been taken")
				break
			}
		}
	}
	switch in.Unit {
	case "pcs", "kg", "litre":
	default:
		details["unit"] = append(details["unit"], "is invalid")
	}
	if len(details) > 0 {
		return validationFailed(c, details)
	}

	it := s.insertItem(strings.TrimSpace(in.Name), sku, in.Unit)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": *it})
}

func (s *Server) listMovements(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]movement, 0, len(s.movements))
	for i := len(s.movements) - 1; i >= 0; i-- {
		out = append(out, *s.movements[i])
	}
	return c.JSON(fiber.Map{"data": out})
}

func (s *Server) listItemMovements(c *fiber.Ctx) error {
	id, _ := strconv.ParseInt(c.Params("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(id) == nil {
		return notFound(c)
	}
	out := make([]movement, 0)
	for i := len(s.movements) - 1; i >= 0; i-- {
		if s.movements[i].ItemID == id {
			out = append(out, *s.movements[i])
		}
	}
	return c.JSON(fiber.Map{"data": out})
}

func (s *Server) createMovement(c *fiber.Ctx) error {
	var in struct {
		ItemID       int64           `json:"item_id"`
		Quantity     decimal.Decimal `json:"quantity"`
		MovementType string          `json:"movement_type"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errorBody{Code: "bad_request", Message: "Invalid JSON body"},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	details := map[string][]string{}
	it := s.find(in.ItemID)
	if it == nil {
		details["item_id"] = []string{"does not exist"}
	}
	if !in.Quantity.IsPositive() {
		details["quantity"] = []string{"must be greater than 0"}
	}
	switch in.MovementType {
	case "IN", "OUT", "ADJUSTMENT":
	default:
		details["movement_type"] = []string{"is invalid"}
	}
	if len(details) > 0 {
		return validationFailed(c, details)
	}

	if in.MovementType != "IN" && it.stock.LessThan(in.Quantity) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": errorBody{
				Code: "insufficient_stock",
				Message: "Insufficient stock. Current stock: " + it.stock.StringFixed(2) +
					", requested: " + in.Quantity.StringFixed(2),
			},
		})
	}
	m := s.applyMovement(it, in.Quantity, in.MovementType)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": *m})
}

func (s *Server) insertItem(name, sku, unit string) *item {
	ts := s.now().Format(time.RFC3339)
	it := &item{
		ID:           s.nextItem,
		Name:         name,
		SKU:          sku,
		Unit:         unit,
		CurrentStock: "0.00",
		InsertedAt:   ts,
		UpdatedAt:    ts,
		stock:        decimal.Zero,
	}
	s.nextItem++
	s.items = append(s.items, it)
	return it
}

// applyMovement IN suma; OUT y ADJUSTMENT restan (ya validado contra stock negativo).
func (s *Server) applyMovement(it *item, q decimal.Decimal, typ string) *movement {
	if typ == "IN" {
		it.stock = it.stock.Add(q)
	} else {
		it.stock = it.stock.Sub(q)
	}
	it.CurrentStock = it.stock.StringFixed(2)
	it.UpdatedAt = s.now().Format(time.RFC3339)

	m := &movement{
		ID:           s.nextMov,
		ItemID:       it.ID,
		Quantity:     q.StringFixed(2),
		MovementType: typ,
		CreatedAt:    s.now().Format("2006-01-02T15:04:05"),
		Item:         &itemSummary{ID: it.ID, Name: it.Name, SKU: it.SKU, Unit: it.Unit},
	}
	s.nextMov++
	s.movements = append(s.movements, m)
	return m
}

func (s *Server) find(id int64) *item {
	for _, it := range s.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": errorBody{Code: "not_found", Message: "Item not found"},
	})
}

func validationFailed(c *fiber.Ctx, details map[string][]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error": errorBody{Code: "validation_error", Message: "Validation failed", Details: details},
	})
}
