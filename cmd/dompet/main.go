package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dompet/internal/auth"
	"dompet/internal/backend"
	"dompet/internal/cli"
	"dompet/internal/core"
	apphttp "dompet/internal/http"
	"dompet/internal/log"
	"dompet/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, cfgErr := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	if cfgErr != nil {
		cli.Fatal(logger, "Configuration validation failed", cfgErr)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	collector := metrics.New()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	backendCfg.OnBreakerChange = collector.RecordBreakerState

	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	authenticator, err := auth.New(cfg.AuthMode, cfg.AuthJWTSecret)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize authentication", err, "mode", cfg.AuthMode)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Store:              res.Store,
		Publisher:          res.Publisher,
		Auth:               authenticator,
		Metrics:            collector,
		Logger:             logger,
		Catalog:            core.DefaultCatalog(),
		DailyLimit:         cfg.DailyLimit,
		NotificationTTL:    cfg.NotificationTTL,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize HTTP server", err)
	}
	srv.MaxHeaderBytes = 1 << 16

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting dompet server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"auth_mode", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Failure(shutdownCtx, "Server shutdown error", log.OpShutdown, err)
	}
	logger.Info("Server stopped gracefully")
}
