package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/jhoicas/inventario-web/internal/application/querycache"
	"github.com/jhoicas/inventario-web/internal/application/reports"
	"github.com/jhoicas/inventario-web/internal/application/view"
	"github.com/jhoicas/inventario-web/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-web/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Reader   view.Reader
	Reports  *reports.Service
	Sessions *Sessions
	Store    *session.Store
	Cache    *querycache.Cache // solo para /health
	View     view.Options
	Metrics  *metrics.Metrics // nil = sin /metrics
	AppName  string
	Logger   *logger.Logger
}

// NewApp construye la aplicación Fiber con recover, request id, log de peticiones y página de error.
func NewApp(appName string, log *logger.Logger) *fiber.App {
	if log == nil {
		log = logger.Nop()
	}
	httpLog := log.Component("http")
	app := fiber.New(fiber.Config{
		AppName:               appName,
		ReadTimeout:           time.Second * 10,
		WriteTimeout:          time.Second * 30,
		IdleTimeout:           time.Second * 60,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(appName, httpLog),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(requestLogger(httpLog))
	return app
}

// Router registra las rutas de la interfaz web.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok", "service": deps.AppName}
		if deps.Cache != nil {
			body["cache"] = deps.Cache.Stats()
		}
		if deps.Sessions != nil {
			body["sessions"] = deps.Sessions.Len()
		}
		return c.JSON(body)
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	// Reportes (sin estado de sesión)
	if deps.Reports != nil {
		reportHandler := NewReportHandler(deps.Reports)
		app.Get("/reports/stock.pdf", reportHandler.StockPDF)
		app.Get("/reports/movements.xlsx", reportHandler.MovementsXLSX)
	}

	// Páginas con estado por sesión de navegador
	pageHandler := NewPageHandler(view.NewMovementLog(deps.Reader, deps.View), deps.AppName, deps.Logger)
	ui := app.Group("/", SessionMiddleware(deps.Store, deps.Sessions))
	ui.Get("/", pageHandler.Index)
	ui.Post("/items", pageHandler.CreateItem)
	ui.Post("/items/:id/toggle", pageHandler.ToggleItem)
	ui.Post("/movements", pageHandler.RecordMovement)
	ui.Post("/notice/ack", pageHandler.AckNotice)
	ui.Get("/movements", pageHandler.Movements)
}

func errorHandler(appName string, log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "An unexpected error occurred"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}
		ev := log.Warn()
		if code >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Err(err).Int("status", code).Str("path", c.Path()).Msg("petición fallida")
		return render(c, code, "error", errorPage{Title: "Error", AppName: appName, Message: msg})
	}
}

func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Msg("petición")
		return err
	}
}
