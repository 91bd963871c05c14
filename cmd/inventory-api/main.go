package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/khanhtranq/inventory-service/internal/config"
	"github.com/khanhtranq/inventory-service/internal/http"
	"github.com/khanhtranq/inventory-service/internal/log"
	appmetric "github.com/khanhtranq/inventory-service/internal/metric"
	"github.com/khanhtranq/inventory-service/internal/repository"
	"github.com/khanhtranq/inventory-service/internal/service"
	"github.com/khanhtranq/inventory-service/internal/storage/db"
	"github.com/khanhtranq/inventory-service/internal/storage/docstore"
	"github.com/khanhtranq/inventory-service/internal/telemetry"
	"github.com/khanhtranq/inventory-service/pkg/cmdutil"
	"github.com/khanhtranq/inventory-service/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running inventory api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Import   config.Import
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)
	store := docstore.NewPg(dbClient)

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	productRepository := repository.NewProductRepository(store)

	svcs := http.Services{
		Product:   service.NewProductService(productRepository, v),
		Import:    service.NewImportService(productRepository, v),
		Dashboard: service.NewDashboardService(productRepository),
	}

	sink := appmetric.NewSink()

	svc := http.New(cfg.HTTP, cfg.Import, logger, sink, svcs, dbClient)
	cleanup, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running http service: %w", err)
	}

	logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

	<-cmdutil.InterruptChan()

	logger.InfoContext(ctx, "http service is shutting down")
	if err := cleanup(ctx); err != nil {
		logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "http service is stopped")

	return nil
}
