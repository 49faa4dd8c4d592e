package main

import (
	"context"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/jhoicas/inventario-web/internal/application/inventory"
	"github.com/jhoicas/inventario-web/internal/application/querycache"
	"github.com/jhoicas/inventario-web/internal/application/reports"
	"github.com/jhoicas/inventario-web/internal/application/view"
	"github.com/jhoicas/inventario-web/internal/infrastructure/inventoryapi"
	"github.com/jhoicas/inventario-web/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/inventario-web/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-web/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/inventario-web/internal/interfaces/http"
	"github.com/jhoicas/inventario-web/pkg/config"
	"github.com/jhoicas/inventario-web/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("api", cfg.API.BaseURL).
		Msg("iniciando aplicación")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	client := inventoryapi.NewClient(inventoryapi.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  log,
		Metrics: m,
	})
	itemRepo := inventoryapi.NewItemRepository(client)
	movementRepo := inventoryapi.NewMovementRepository(client)

	retry := querycache.RetryAlways
	if cfg.Cache.RetryPolicy == config.RetryPolicyTransport {
		retry = querycache.RetryTransportOnly
	}
	cache := querycache.New(querycache.Options{
		StaleTime:  cfg.Cache.StaleTime,
		RetryDelay: cfg.Cache.RetryDelay,
		Retry:      retry,
		Logger:     log,
		Metrics:    m,
	})
	inventorySvc := inventory.NewService(itemRepo, movementRepo, cache, log)

	loc := cfg.App.Location()
	viewOpts := view.Options{
		RenderWait: cfg.View.RenderWait,
		Location:   loc,
		TimeLayout: cfg.View.TimeLayout,
	}

	// Reportes: PDF de existencias y Excel de movimientos
	reportSvc := reports.NewService(
		inventorySvc,
		infrapdf.NewMarotoStockReport(cfg.App.Name),
		xlsx.NewMovementExporter(loc, cfg.View.TimeLayout),
		nil,
	)

	sessions := httpRouter.NewSessions(
		httpRouter.NewUIFactory(itemRepo, movementRepo, inventorySvc, viewOpts),
		httpRouter.DefaultSessionTTL,
	)

	app := httpRouter.NewApp(cfg.App.Name, log)
	httpRouter.Router(app, httpRouter.RouterDeps{
		Reader:   inventorySvc,
		Reports:  reportSvc,
		Sessions: sessions,
		Store:    httpRouter.NewSessionStore(httpRouter.DefaultSessionTTL),
		Cache:    cache,
		View:     viewOpts,
		Metrics:  m,
		AppName:  cfg.App.Name,
		Logger:   log,
	})

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				log.Info().Msg("señal de apagado recibida, cerrando servidor...")
				return app.ShutdownWithContext(ctx)
			},
			"cache": func(context.Context) error {
				return cache.Close()
			},
			"sessions": func(context.Context) error {
				sessions.Reset()
				return nil
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("exit_code", exitCode).Msg("aplicación detenida")
	os.Exit(exitCode)
}
