package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"dompet/internal/amqp"
	"dompet/internal/backend"
	"dompet/internal/cli"
	"dompet/internal/config"
	"dompet/internal/log"
	"dompet/internal/metrics"
	"dompet/internal/services"
	gsheet "dompet/internal/sheets/google"
	"dompet/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, cfgErr := cli.LoadConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	if cfgErr != nil {
		cli.Fatal(logger, "Configuration validation failed", cfgErr)
	}
	logger.Info("Starting dompet-worker")

	ctx, stop := cli.SignalContext()
	defer stop()

	collector := metrics.New()

	// The worker consumes from AMQP directly; the backend only opens the store.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	backendCfg.AMQPURL = ""

	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	sink, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, collector.RecordBreakerState)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(res.Store, sink, collector)

	processor := services.NewExportProcessor(exportWorker, services.ExportProcessorConfig{
		PollInterval: cfg.ExportInterval,
		BatchSize:    cfg.ExportBatchSize,
	})
	if err := processor.Start(ctx); err != nil {
		cli.Fatal(logger, "Failed to start export processor", err)
	}

	go func() {
		err := amqpClient.ConsumeTransactionCreated(ctx, exportWorker.HandleTransactionCreated)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Failure(ctx, "Message consumption failed", log.OpExport, err)
		}
		stop()
	}()

	router := mux.NewRouter()
	router.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", log.FieldError, err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Export processor stop failed", log.FieldError, err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Metrics server shutdown failed", log.FieldError, err)
	}
	logger.Info("Worker shutdown complete")
}
