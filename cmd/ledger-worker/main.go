package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"groupledger/internal/amqp"
	"groupledger/internal/backend"
	"groupledger/internal/cli"
	"groupledger/internal/config"
	"groupledger/internal/core"
	"groupledger/internal/ledger"
	applog "groupledger/internal/log"
	"groupledger/internal/sheets"
	"groupledger/internal/sheets/csvfile"
	gsheet "groupledger/internal/sheets/google"
	"groupledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info", applog.ComponentWorker, os.Stdout).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker, os.Stdout)
	logger.Info("Starting ledger-worker", applog.FieldBackend, cfg.DataBackend)

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := cli.GracefulShutdown(logger, 30*time.Second)
	defer stop()

	writer, err := exportTarget(ctx, cfg)
	if err != nil {
		return err
	}

	// The worker is assigned before any snapshot is applied.
	var w *worker.ExportWorker
	svc, res, err := cli.OpenLedger(ctx, cfg, logger, ledger.WithOnApply(func(v core.View) { w.OnApply(v) }))
	if err != nil {
		return err
	}
	defer res.Close()
	w = worker.NewExportWorker(svc, writer, cfg.ExportOptions(), logger.WithComponent(applog.ComponentWorker).Slog())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(gctx, cfg.ExportInterval)
	})

	switch {
	case cfg.DataBackend == string(backend.MongoBackend):
		// Change streams replace broker notifications for the document store.
		g.Go(func() error {
			return w.Follow(gctx, res.Feed)
		})
	case cfg.AMQPURL != "":
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on periodic export", "error", err)
			break
		}
		defer client.Close()
		g.Go(func() error {
			return client.ConsumeChanges(gctx, w.HandleChange)
		})
	default:
		logger.Info("No change notifications configured, relying on periodic export",
			"interval", cfg.ExportInterval)
	}

	err = g.Wait()
	logger.Info("Export worker stopped", "last_ref", w.LastRef())
	return err
}

// exportTarget prefers the configured Google Sheet and falls back to a CSV
// file next to the data.
func exportTarget(ctx context.Context, cfg *config.Config) (sheets.RowWriter, error) {
	if cfg.GoogleSpreadsheetID != "" {
		return gsheet.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	}
	return csvfile.New(cfg.ExportCSVPath), nil
}
