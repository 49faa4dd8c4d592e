// Package reports arma los archivos descargables (PDF de existencias, Excel de movimientos) a partir
// de las lecturas cacheadas de inventario.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

// StockPDFGenerator genera el PDF de existencias.
type StockPDFGenerator interface {
	GenerateStockReport(ctx context.Context, items []entity.Item, generatedAt time.Time) ([]byte, error)
}

// MovementSheetExporter genera el libro Excel de movimientos.
type MovementSheetExporter interface {
	ExportMovements(ctx context.Context, movements []entity.Movement) ([]byte, error)
}

// Source lecturas que alimentan los reportes (inventory.Service las implementa).
type Source interface {
	Items(ctx context.Context) ([]entity.Item, error)
	Movements(ctx context.Context) ([]entity.Movement, error)
}

// Service casos de uso de reportes.
type Service struct {
	source Source
	pdf    StockPDFGenerator
	sheet  MovementSheetExporter
	now    func() time.Time
}

// NewService construye el servicio inyectando lectura y generadores.
func NewService(source Source, pdf StockPDFGenerator, sheet MovementSheetExporter, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, pdf: pdf, sheet: sheet, now: now}
}

// StockReport devuelve (pdfBytes, filename). Los errores del backend se propagan tal cual.
func (s *Service) StockReport(ctx context.Context) ([]byte, string, error) {
	items, err := s.source.Items(ctx)
	if err != nil {
		return nil, "", err
	}
	now := s.now()
	out, err := s.pdf.GenerateStockReport(ctx, items, now)
	if err != nil {
		return nil, "", fmt.Errorf("reports: stock pdf: %w", err)
	}
	return out, "stock_" + now.Format("20060102_150405") + ".pdf", nil
}

// MovementsWorkbook devuelve (xlsxBytes, filename) con todos los movimientos.
func (s *Service) MovementsWorkbook(ctx context.Context) ([]byte, string, error) {
	movs, err := s.source.Movements(ctx)
	if err != nil {
		return nil, "", err
	}
	out, err := s.sheet.ExportMovements(ctx, movs)
	if err != nil {
		return nil, "", fmt.Errorf("reports: movements xlsx: %w", err)
	}
	return out, "movements_" + s.now().Format("20060102_150405") + ".xlsx", nil
}
