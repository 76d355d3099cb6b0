package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"caixa/internal/balance"
	"caixa/internal/catalog"
	"caixa/internal/cli"
	"caixa/internal/events"
	"caixa/internal/export"
	"caixa/internal/export/google"
	"caixa/internal/flow"
	"caixa/internal/log"
	"caixa/internal/worker"
)

// The worker consumes ledger events from the broker, recomputes carried
// balances and pushes the year view to Google Sheets. It shares the SQLite
// database with the server, so it only runs against the sqlite backend.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting caixa-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var exporter export.YearViewExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(context.Background(), logger.WithComponent(log.ComponentExport))
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentEvents))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	engine := balance.New(repo, repo, logger.WithComponent(log.ComponentBalance))
	catalogSvc := catalog.NewService(repo, repo, repo, logger.WithComponent(log.ComponentCatalog))
	aggregator := flow.New(catalogSvc, engine, repo, logger.WithComponent(log.ComponentFlow))

	w := worker.New(engine, aggregator, exporter, client, logger)
	w.RefreshInterval = cfg.RefreshInterval

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
