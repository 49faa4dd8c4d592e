// seed_items da de alta artículos en el backend a partir de un CSV (name,sku,unit).
//
// Uso: go run ./cmd/seed_items [-latin1] [-api http://localhost:4000/api] [ruta/items.csv]
// Por defecto lee items.csv en el directorio actual. Con -latin1 el archivo se decodifica como
// ISO-8859-1 (exportaciones de Excel en Windows).
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-web/internal/domain"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi"
)

type itemCreator interface {
	Create(ctx context.Context, in entity.NewItem) (*entity.Item, error)
}

// rowResult resultado de una fila del CSV (línea 1-based, incluyendo encabezado).
type rowResult struct {
	Line int
	SKU  string
	ID   int64
	Err  error
}

func main() {
	latin1 := flag.Bool("latin1", false, "decodificar el CSV como ISO-8859-1")
	baseURL := flag.String("api", envOr("API_BASE_URL", "http://localhost:4000/api"), "URL base del backend (con /api)")
	flag.Parse()

	csvPath := "items.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	client := inventoryapi.NewClient(inventoryapi.Options{BaseURL: strings.TrimRight(*baseURL, "/")})
	results, err := seed(context.Background(), f, *latin1, inventoryapi.NewItemRepository(client))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "línea %d (%s): %s\n", r.Line, r.SKU, describe(r.Err))
			continue
		}
		fmt.Printf("línea %d: %s -> id %d\n", r.Line, r.SKU, r.ID)
	}
	fmt.Printf("Procesadas %d filas: %d creadas, %d con error\n", len(results), len(results)-failed, failed)
	if failed > 0 {
		os.Exit(2)
	}
}

// seed lee el CSV y crea un artículo por fila. Un fallo de fila no detiene la carga;
// solo un CSV ilegible devuelve error.
func seed(ctx context.Context, r io.Reader, latin1 bool, items itemCreator) ([]rowResult, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("archivo vacío")
	}

	var out []rowResult
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < 2 {
			out = append(out, rowResult{Line: line, Err: fmt.Errorf("se esperaban name,sku[,unit]")})
			continue
		}
		in := entity.NewItem{
			Name: strings.TrimSpace(rec[0]),
			SKU:  strings.ToUpper(strings.TrimSpace(rec[1])),
			Unit: entity.UnitPCS,
		}
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			in.Unit = strings.TrimSpace(rec[2])
		}
		res := rowResult{Line: line, SKU: in.SKU}
		item, err := items.Create(ctx, in)
		if err != nil {
			res.Err = err
		} else {
			res.ID = item.ID
		}
		out = append(out, res)
	}
	return out, nil
}

// describe "sku: has already been taken; unit: is invalid" o el mensaje del backend.
func describe(err error) string {
	apiErr := domain.AsAPIError(err)
	if !apiErr.HasDetails() {
		return apiErr.Message
	}
	fields := make([]string, 0, len(apiErr.Details))
	for field := range apiErr.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(apiErr.Details[field], ", "))
	}
	return strings.Join(parts, "; ")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
