package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/amqp"
	"kharcha/internal/backend"
	"kharcha/internal/cli"
	"kharcha/internal/config"
	"kharcha/internal/log"
	"kharcha/internal/store"
	"kharcha/internal/store/google"
	"kharcha/internal/store/memory"
	"kharcha/internal/store/sqlite"
	"kharcha/internal/worker"
)

// reconcileInterval is how often the SQLite source is compared against the
// sheet to recover events lost while the worker was down.
const reconcileInterval = 15 * time.Minute

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Warn("Ignoring unreadable .env file", log.FieldError, err)
	}
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	sheet, err := google.New(ctx, backend.SheetsConfig(cfg))
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	var source store.ExpenseReader
	if backend.BackendType(cfg.DataBackend) == backend.SQLiteBackend {
		db, err := sqlite.Open(ctx, cfg.SQLiteDBPath, memory.SeedVocabulary(cfg.DataDir))
		if err != nil {
			return err
		}
		defer db.Close()
		source = db
	} else {
		logger.Info("Skipping reconciliation: the API does not use SQLite", "backend", cfg.DataBackend)
	}

	mirror := worker.NewMirrorWorker(sheet, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming events", "queue", cfg.AMQPQueue)
		err := client.Consume(gctx, mirror.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if source != nil {
		g.Go(func() error {
			reconcileLoop(gctx, logger, mirror, source)
			return nil
		})
	}

	return g.Wait()
}

// reconcileLoop runs once at start-up and then every reconcileInterval.
// Failures are logged and retried on the next tick.
func reconcileLoop(ctx context.Context, logger *log.Logger, mirror *worker.MirrorWorker, source store.ExpenseReader) {
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()
	for {
		n, err := mirror.Reconcile(ctx, source)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("Reconciliation failed", log.FieldError, err, log.FieldOperation, log.OpSync)
		case n > 0:
			logger.Info("Reconciliation appended missing rows", "count", n, log.FieldOperation, log.OpSync)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
