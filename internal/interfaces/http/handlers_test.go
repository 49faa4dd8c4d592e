package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-web/internal/application/inventory"
	"github.com/jhoicas/inventario-web/internal/application/querycache"
	"github.com/jhoicas/inventario-web/internal/application/reports"
	"github.com/jhoicas/inventario-web/internal/application/view"
	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi"
	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi/apitest"
	"github.com/jhoicas/inventario-web/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-web/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-web/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/inventario-web/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testAppName = "inventario-web-test"

// browser app de prueba contra el backend falso, con la cookie de sesión de un navegador.
type browser struct {
	t       *testing.T
	app     *fiber.App
	srv     *apitest.Server
	cookies []*http.Cookie
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	m := metrics.New()
	client := inventoryapi.NewClient(inventoryapi.Options{BaseURL: srv.BaseURL(), Metrics: m})
	items := inventoryapi.NewItemRepository(client)
	movements := inventoryapi.NewMovementRepository(client)
	cache := querycache.New(querycache.Options{StaleTime: time.Minute, RetryDelay: -1, Metrics: m})
	t.Cleanup(func() { _ = cache.Close() })

	svc := inventory.NewService(items, movements, cache, nil)
	opts := view.Options{RenderWait: 2 * time.Second, Location: time.UTC}
	sessions := apphttp.NewSessions(apphttp.NewUIFactory(items, movements, svc, opts), time.Hour)

	app := apphttp.NewApp(testAppName, nil)
	apphttp.Router(app, apphttp.RouterDeps{
		Reader:   svc,
		Reports:  reports.NewService(svc, pdf.NewMarotoStockReport(testAppName), xlsx.NewMovementExporter(time.UTC, ""), nil),
		Sessions: sessions,
		Store:    apphttp.NewSessionStore(time.Hour),
		Cache:    cache,
		View:     opts,
		Metrics:  m,
		AppName:  testAppName,
	})
	return &browser{t: t, app: app, srv: srv}
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	if got := resp.Cookies(); len(got) > 0 {
		b.cookies = got
	}
	return resp
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp := b.do(httptest.NewRequest(http.MethodGet, path, nil))
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, string(body)
}

// post envía el formulario y verifica el redirect PRG a "/".
func (b *browser) post(path string, form url.Values) {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp := b.do(req)
	defer resp.Body.Close()
	require.Equal(b.t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(b.t, "/", resp.Header.Get(fiber.HeaderLocation))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests de páginas
// ──────────────────────────────────────────────────────────────────────────────

func TestIndex_SinArticulos(t *testing.T) {
	b := newBrowser(t)

	status, body := b.get("/")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "No items yet. Create one to get started!")
	assert.Contains(t, body, `<select id="item" name="item_id" disabled>`)
	assert.Contains(t, body, "No items available")
	assert.Contains(t, body, `<button type="submit" class="btn-primary" disabled>Record Movement</button>`)
}

func TestCreateItem_RedirigeYMuestraAviso(t *testing.T) {
	b := newBrowser(t)
	b.get("/")

	b.post("/items", url.Values{"name": {"Widget A"}, "sku": {"wgt-001"}, "unit": {"pcs"}})

	_, body := b.get("/")
	assert.Contains(t, body, `<dialog open class="notice">`)
	assert.Contains(t, body, "Item created successfully.")
	assert.Contains(t, body, "<code>WGT-001</code>")
	assert.Contains(t, body, "Widget A (WGT-001) - Stock: 0.00 pcs")
	assert.NotContains(t, body, "No items available")

	// el aviso se cierra y no vuelve
	b.post("/notice/ack", nil)
	_, body = b.get("/")
	assert.NotContains(t, body, `<dialog open class="notice">`)
}

func TestCreateItem_CamposVaciosNoLlamanAlBackend(t *testing.T) {
	b := newBrowser(t)

	b.post("/items", url.Values{"name": {"  "}, "sku": {"WGT-001"}})

	_, body := b.get("/")
	assert.Contains(t, body, "Name is required")
	assert.EqualValues(t, 0, b.srv.Hits("POST /api/items"))
}

func TestRecordMovement_StockInsuficienteMarcado(t *testing.T) {
	b := newBrowser(t)
	id := b.srv.SeedItem("Widget A", "WGT-001", "pcs", "10")
	b.get("/")

	b.post("/movements", url.Values{
		"item_id":       {strconv.FormatInt(id, 10)},
		"quantity":      {"15"},
		"movement_type": {"OUT"},
	})

	_, body := b.get("/")
	assert.Contains(t, body, `<div class="error-message marked">`)
	assert.Contains(t, body, "&#10060; Insufficient stock. Current stock: 10.00, requested: 15.00")
	assert.Contains(t, body, "<strong>10.00</strong>")
	assert.Equal(t, "10.00", b.srv.Stock(id))
}

func TestRecordMovement_ActualizaStockEHistorial(t *testing.T) {
	b := newBrowser(t)
	id := b.srv.SeedItem("Widget A", "WGT-001", "pcs", "10")
	b.get("/")
	b.post("/items/"+strconv.FormatInt(id, 10)+"/toggle", nil)

	b.post("/movements", url.Values{
		"item_id":       {strconv.FormatInt(id, 10)},
		"quantity":      {"2.5"},
		"movement_type": {"IN"},
	})

	_, body := b.get("/")
	assert.Contains(t, body, "Movement recorded successfully!")
	assert.Contains(t, body, "<strong>12.50</strong>")
	assert.Contains(t, body, "Movement History")
	assert.Contains(t, body, "Hide History")
}

func TestToggleItem_AbreYCierraHistorial(t *testing.T) {
	b := newBrowser(t)
	id := b.srv.SeedItem("Widget A", "WGT-001", "pcs", "10")
	path := "/items/" + strconv.FormatInt(id, 10) + "/toggle"

	b.post(path, nil)
	_, body := b.get("/")
	assert.Contains(t, body, "Movement History")
	assert.Contains(t, body, "Hide History")
	assert.EqualValues(t, 1, b.srv.Hits("GET /api/items/:id/movements"))

	b.post(path, nil)
	_, body = b.get("/")
	assert.NotContains(t, body, "Movement History")
	assert.Contains(t, body, "View History")
}

func TestToggleItem_IDInvalido(t *testing.T) {
	b := newBrowser(t)

	resp := b.do(httptest.NewRequest(http.MethodPost, "/items/abc/toggle", nil))
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSesiones_EstadoSeparadoPorNavegador(t *testing.T) {
	b := newBrowser(t)
	id := b.srv.SeedItem("Widget A", "WGT-001", "pcs", "10")
	b.get("/")
	b.post("/items/"+strconv.FormatInt(id, 10)+"/toggle", nil)

	other := &browser{t: t, app: b.app, srv: b.srv}
	_, body := other.get("/")

	assert.NotContains(t, body, "Movement History")
}

func TestMovements_ListaReciente(t *testing.T) {
	b := newBrowser(t)
	b.srv.SeedItem("Widget A", "WGT-001", "pcs", "10")

	status, body := b.get("/movements")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "Recent Movements")
	assert.Contains(t, body, "Widget A")
	assert.Contains(t, body, "<code>WGT-001</code>")
}

// ──────────────────────────────────────────────────────────────────────────────
// Reportes, health y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestReports_TiposDeContenido(t *testing.T) {
	b := newBrowser(t)
	b.srv.SeedItem("Widget A", "WGT-001", "pcs", "10")

	cases := []struct {
		path, contentType, prefix string
	}{
		{"/reports/stock.pdf", "application/pdf", `attachment; filename="stock_`},
		{"/reports/movements.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", `attachment; filename="movements_`},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp := b.do(httptest.NewRequest(http.MethodGet, tc.path, nil))
			defer resp.Body.Close()
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tc.contentType, resp.Header.Get(fiber.HeaderContentType))
			assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentDisposition), tc.prefix))
		})
	}
}

func TestReports_BackendCaidoDevuelve502(t *testing.T) {
	b := newBrowser(t)
	b.srv.FailNext("GET /api/items", 2)

	status, body := b.get("/reports/stock.pdf")

	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Contains(t, body, "Something went wrong")
}

func TestHealth(t *testing.T) {
	b := newBrowser(t)

	status, body := b.get("/health")

	require.Equal(t, fiber.StatusOK, status)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, testAppName, out["service"])
}

func TestMetrics_ExponeContadores(t *testing.T) {
	b := newBrowser(t)
	b.srv.SeedItem("Widget A", "WGT-001", "pcs", "10")
	b.get("/")

	status, body := b.get("/metrics")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "inventario_web_api_requests_total")
}
