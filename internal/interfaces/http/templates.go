package http

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-web/internal/application/view"
	"github.com/jhoicas/inventario-web/internal/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

type movementTable struct {
	Rows     []view.MovementRow
	WithItem bool
}

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"stock": func(d decimal.Decimal) string { return entity.FormatQuantity(d) },
	"rows": func(rows []view.MovementRow, withItem bool) movementTable {
		return movementTable{Rows: rows, WithItem: withItem}
	},
}).ParseFS(templateFS, "templates/*.html"))

// render ejecuta la plantilla en un buffer para no enviar HTML a medias si falla.
func render(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

type errorPage struct {
	Title   string
	AppName string
	Message string
	Refresh bool
}
