package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/application/barcode"
	"github.com/jhoicas/Paqueteo-api/internal/application/consistency"
	"github.com/jhoicas/Paqueteo-api/internal/application/contents"
	"github.com/jhoicas/Paqueteo-api/internal/application/location"
	"github.com/jhoicas/Paqueteo-api/internal/application/packages"
	"github.com/jhoicas/Paqueteo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Paqueteo-api/internal/infrastructure/sapb1"
	"github.com/jhoicas/Paqueteo-api/internal/infrastructure/wms"
	httpRouter "github.com/jhoicas/Paqueteo-api/internal/interfaces/http"
	"github.com/jhoicas/Paqueteo-api/pkg/config"
	"github.com/jhoicas/Paqueteo-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	pkgRepo := postgres.NewPackageRepository(pool)
	contentRepo := postgres.NewPackageContentRepository(pool)
	txnRepo := postgres.NewPackageTransactionRepository(pool)
	locRepo := postgres.NewPackageLocationRepository(pool)
	incRepo := postgres.NewInconsistencyRepository(pool)
	seqRepo := postgres.NewBarcodeSequenceRepository(pool)
	attrRepo := postgres.NewAttributeDefinitionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	allocator := barcode.NewAllocator(barcode.Settings{
		Prefix: cfg.Barcode.Prefix,
		Length: cfg.Barcode.Length,
		Suffix: cfg.Barcode.Suffix,
		Start:  cfg.Barcode.Start,
	}, seqRepo, pkgRepo)
	if last, err := allocator.LastAssigned(); err != nil {
		log.Warn().Err(err).Msg("leer secuencia de barcodes")
	} else {
		log.Info().Str("prefix", cfg.Barcode.Prefix).Int64("last_value", last).Msg("secuencia de barcodes")
	}

	erpClient := sapb1.NewClient(sapb1.Config{
		BaseURL:   cfg.SAPB1.BaseURL,
		CompanyDB: cfg.SAPB1.CompanyDB,
		Username:  cfg.SAPB1.Username,
		Password:  cfg.SAPB1.Password,
		Timeout:   cfg.SAPB1.Timeout,
	})
	wmsClient := wms.NewClient(wms.Config{
		BaseURL: cfg.WMS.BaseURL,
		APIKey:  cfg.WMS.APIKey,
		Timeout: cfg.WMS.Timeout,
	})

	lifecycleUC := packages.NewLifecycleUseCase(txRunner, pkgRepo, attrRepo, allocator, erpClient)
	contentUC := contents.NewContentUseCase(txRunner, pkgRepo, contentRepo, txnRepo, erpClient)
	trackerUC := location.NewTrackerUseCase(txRunner, pkgRepo, locRepo, erpClient)

	policy := consistency.Policy{
		WarningThreshold:  decimal.NewFromInt(cfg.Consistency.WarningThreshold),
		CriticalThreshold: decimal.NewFromInt(cfg.Consistency.CriticalThreshold),
		CriticalAge:       time.Duration(cfg.Consistency.CriticalAgeHours) * time.Hour,
		SweepConcurrency:  cfg.Consistency.SweepConcurrency,
	}
	engine := consistency.NewEngine(pkgRepo, contentRepo, txnRepo, incRepo, erpClient, wmsClient, allocator, policy)

	// Barrido periódico opcional de conciliación.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.Consistency.SweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Consistency.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					if _, err := engine.DetectInconsistencies(sweepCtx, ""); err != nil {
						log.Error().Err(err).Msg("barrido de conciliación")
					}
				}
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Paqueteo API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LifecycleUC:   lifecycleUC,
		ContentUC:     contentUC,
		TrackerUC:     trackerUC,
		ConsistencyEC: engine,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
