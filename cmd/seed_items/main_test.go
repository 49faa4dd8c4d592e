package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi"
	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi/apitest"
)

func newRepo(t *testing.T) (*apitest.Server, *inventoryapi.ItemRepository) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	client := inventoryapi.NewClient(inventoryapi.Options{BaseURL: srv.BaseURL()})
	return srv, inventoryapi.NewItemRepository(client)
}

func TestSeed_CreaArticulosYReportaErroresPorFila(t *testing.T) {
	srv, repo := newRepo(t)
	csv := "name,sku,unit\n" +
		"Widget A,wgt-001,pcs\n" +
		"Harina,HAR-01,kg\n" +
		"Duplicado,WGT-001,pcs\n" +
		"Malo,bad sku,box\n" +
		"Sin unidad,SU-1\n"

	results, err := seed(context.Background(), strings.NewReader(csv), false, repo)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "WGT-001", results[0].SKU)
	assert.Equal(t, 2, results[0].Line)
	assert.NoError(t, results[1].Err)

	require.Error(t, results[2].Err)
	assert.Equal(t, "sku: has already been taken", describe(results[2].Err))

	require.Error(t, results[3].Err)
	assert.Equal(t, "sku: must contain only letters, numbers, hyphens, and underscores; unit: is invalid", describe(results[3].Err))

	assert.NoError(t, results[4].Err, "unidad por defecto pcs")
	assert.EqualValues(t, 5, srv.Hits("POST /api/items"))
}

func TestSeed_Latin1(t *testing.T) {
	_, repo := newRepo(t)
	csv := "name,sku,unit\nCaf\xe9 molido,CAF-01,kg\n"

	results, err := seed(context.Background(), strings.NewReader(csv), true, repo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Café molido", items[0].Name)
}

func TestSeed_FilaIncompleta(t *testing.T) {
	_, repo := newRepo(t)

	results, err := seed(context.Background(), strings.NewReader("name,sku\nSolo nombre\n"), false, repo)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestSeed_ArchivoVacio(t *testing.T) {
	_, repo := newRepo(t)

	_, err := seed(context.Background(), strings.NewReader(""), false, repo)
	assert.Error(t, err)
}
