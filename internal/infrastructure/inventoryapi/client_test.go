package inventoryapi_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-web/internal/domain"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi"
	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi/apitest"
)

func newRepos(t *testing.T, baseURL string, timeout time.Duration) (*inventoryapi.ItemRepository, *inventoryapi.MovementRepository) {
	t.Helper()
	c := inventoryapi.NewClient(inventoryapi.Options{BaseURL: baseURL, Timeout: timeout})
	return inventoryapi.NewItemRepository(c), inventoryapi.NewMovementRepository(c)
}

func TestCreateItem_SKUEnMayusculasYListado(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	items, _ := newRepos(t, srv.BaseURL(), 0)
	ctx := context.Background()

	created, err := items.Create(ctx, entity.NewItem{Name: "Widget A", SKU: "wgt-001", Unit: entity.UnitPCS})
	require.NoError(t, err)
	assert.Equal(t, "WGT-001", created.SKU)
	assert.NotZero(t, created.ID)
	assert.False(t, created.InsertedAt.IsZero())
	assert.True(t, created.CurrentStock.IsZero())

	list, err := items.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "WGT-001", list[0].SKU)
}

func TestCreateItem_ErrorDeValidacionConDetalles(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.SeedItem("Widget A", "WGT-001", "pcs", "0")
	items, _ := newRepos(t, srv.BaseURL(), 0)

	_, err := items.Create(context.Background(), entity.NewItem{Name: "Otro", SKU: "WGT-001", Unit: "box"})
	require.Error(t, err)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, domain.KindValidation, apiErr.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, []string{"has already been taken"}, apiErr.Details["sku"])
	assert.Equal(t, []string{"is invalid"}, apiErr.Details["unit"])
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetItem_NotFound(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	items, _ := newRepos(t, srv.BaseURL(), 0)

	_, err := items.GetByID(context.Background(), 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Item not found", domain.AsAPIError(err).Message)
}

func TestCreateMovement_InStockSeSuma(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	id := srv.SeedItem("Widget A", "WGT-001", "pcs", "10.00")
	items, movements := newRepos(t, srv.BaseURL(), 0)
	ctx := context.Background()

	m, err := movements.Create(ctx, entity.NewMovement{
		ItemID: id, Quantity: decimal.RequireFromString("2.5"), Type: entity.MovementTypeIN,
	})
	require.NoError(t, err)
	assert.Equal(t, "2.50", entity.FormatQuantity(m.Quantity))
	require.NotNil(t, m.Item)
	assert.Equal(t, "WGT-001", m.Item.SKU)
	assert.False(t, m.CreatedAt.IsZero(), "las fechas sin zona se interpretan en UTC")

	it, err := items.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "12.50", entity.FormatQuantity(it.CurrentStock))

	history, err := movements.ListByItem(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	all, err := movements.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateMovement_StockInsuficiente(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	id := srv.SeedItem("Widget A", "WGT-001", "pcs", "10.00")
	_, movements := newRepos(t, srv.BaseURL(), 0)

	_, err := movements.Create(context.Background(), entity.NewMovement{
		ItemID: id, Quantity: decimal.NewFromInt(15), Type: entity.MovementTypeOUT,
	})
	require.Error(t, err)

	apiErr := domain.AsAPIError(err)
	assert.Equal(t, domain.KindInsufficientStock, apiErr.Kind)
	assert.Equal(t, domain.CodeInsufficientStock, apiErr.Code)
	assert.Empty(t, apiErr.Details)
	assert.Contains(t, apiErr.Message, "Insufficient stock")
	assert.Equal(t, "10.00", srv.Stock(id), "el stock no cambia tras el rechazo")
}

func TestCall_TimeoutEsErrorDeTransporte(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.SetDelay(300 * time.Millisecond)
	items, _ := newRepos(t, srv.BaseURL(), 50*time.Millisecond)

	_, err := items.List(context.Background())
	require.Error(t, err)

	apiErr := domain.AsAPIError(err)
	assert.Equal(t, domain.KindTransport, apiErr.Kind)
	assert.Equal(t, domain.MsgUnexpected, apiErr.Message)
	assert.Empty(t, apiErr.Code)
	assert.Empty(t, apiErr.Details)
}

func TestCall_RespuestaMalformadaEsErrorDeTransporte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"id": "no-numérico"`))
	}))
	defer srv.Close()
	items, _ := newRepos(t, srv.URL, 0)

	_, err := items.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestCall_ErrorSinEnvelopeUsaMensajeGenerico(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()
	items, _ := newRepos(t, srv.URL, 0)

	_, err := items.List(context.Background())
	apiErr := domain.AsAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, domain.KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, domain.MsgUnexpected, apiErr.Message)
}

func TestCall_EnviaCantidadComoNumeroYRequestID(t *testing.T) {
	var gotBody string
	var gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		gotReqID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":1,"item_id":3,"quantity":"1.50","movement_type":"IN","created_at":"2024-05-01T10:00:00Z"}}`))
	}))
	defer srv.Close()
	_, movements := newRepos(t, srv.URL, 0)

	_, err := movements.Create(context.Background(), entity.NewMovement{
		ItemID: 3, Quantity: decimal.RequireFromString("1.5"), Type: entity.MovementTypeIN,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"item_id":3,"quantity":1.5,"movement_type":"IN"}`, gotBody)
	assert.Len(t, gotReqID, 36)
}
