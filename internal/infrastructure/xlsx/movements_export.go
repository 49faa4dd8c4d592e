// Package xlsx exporta movimientos de inventario a Excel con excelize.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// SheetName hoja de la exportación.
const SheetName = "Movements"

var header = []interface{}{
	"movement_id",
	"created_at",
	"item_id",
	"item_name",
	"sku",
	"unit",
	"movement_type",
	"quantity",
}

// MovementExporter implementa reports.MovementSheetExporter.
type MovementExporter struct {
	loc    *time.Location
	layout string
}

// NewMovementExporter fechas en la zona y formato de presentación.
func NewMovementExporter(loc *time.Location, layout string) *MovementExporter {
	if loc == nil {
		loc = time.UTC
	}
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return &MovementExporter{loc: loc, layout: layout}
}

// ExportMovements arma el libro con una fila por movimiento. La cantidad va como texto con dos
// decimales para no pasar por float64.
func (e *MovementExporter) ExportMovements(_ context.Context, movements []entity.Movement) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, SheetName); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: encabezado: %w", err)
	}

	rowNum := 2
	for _, m := range movements {
		var name, sku, unit string
		if m.Item != nil {
			name, sku, unit = m.Item.Name, m.Item.SKU, m.Item.Unit
		}
		created := ""
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.In(e.loc).Format(e.layout)
		}
		excelRow := []interface{}{
			m.ID,
			created,
			m.ItemID,
			name,
			sku,
			unit,
			m.Type,
			entity.FormatQuantity(m.Quantity),
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, fmt.Errorf("xlsx: celda: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", rowNum, err)
		}
		rowNum++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}
