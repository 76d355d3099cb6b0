package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"caixa/internal/backend"
	"caixa/internal/balance"
	"caixa/internal/catalog"
	"caixa/internal/cli"
	"caixa/internal/events"
	"caixa/internal/flow"
	apphttp "caixa/internal/http"
	"caixa/internal/log"
	"caixa/internal/report"
	"caixa/internal/services"
	"caixa/internal/users"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	store := result.Backend

	// Event publishing is optional; the ledger works without a broker.
	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentEvents))
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			publisher = client
			defer client.Close()
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	engine := balance.New(store, store, logger.WithComponent(log.ComponentBalance))
	catalogSvc := catalog.NewService(store, store, store, logger.WithComponent(log.ComponentCatalog))

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Movements:  services.NewMovementService(store, engine, publisher, logger.WithComponent(log.ComponentLedger)),
		Catalog:    catalogSvc,
		Aggregator: flow.New(catalogSvc, engine, store, logger.WithComponent(log.ComponentFlow)),
		Reports:    report.New(store, store, logger.WithComponent(log.ComponentReport)),
		Users:      users.NewService(store, users.NewFSPhotoStore(cfg.UploadDir), logger.WithComponent(log.ComponentUsers)),
		Logger:     logger.WithComponent(log.ComponentHTTP),
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting caixa server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
