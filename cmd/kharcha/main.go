package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/amqp"
	"kharcha/internal/backend"
	"kharcha/internal/cache"
	"kharcha/internal/cli"
	"kharcha/internal/config"
	apphttp "kharcha/internal/http"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
	"kharcha/internal/services"
	"kharcha/internal/snapshot"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Warn("Ignoring unreadable .env file", log.FieldError, err)
	}
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).Create(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend close failed", log.FieldError, err)
		}
	}()

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sheets mirroring disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	m := metrics.New()
	holder := snapshot.NewHolder()
	reports := services.NewReportService(holder, res.Store, cfg.ReportCacheSize, cfg.ReportCacheTTL, m)
	expenses := services.NewExpenseService(res.Store, publisher, m)

	srv := apphttp.NewServer(":"+cfg.Port, expenses, reports, apphttp.Options{
		Logger:  logger,
		Metrics: m,
		Storage: res,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := services.RunFeed(gctx, res.Store, holder)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		cache.RunCleanup(gctx, cfg.ReportCacheTTL, reports.Cache())
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting kharcha server", "port", cfg.Port, "backend", bcfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
