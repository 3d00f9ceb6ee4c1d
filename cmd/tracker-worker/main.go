package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/export"
	applog "tracker/internal/log"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger("info").Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentWorker)
	logger.Info("Starting tracker-worker")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Failed to close backend", "error", err)
			}
		}
	}()

	sinks, err := buildSinks(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize mirror sinks", "error", err)
		os.Exit(1)
	}
	if len(sinks) == 0 {
		logger.Warn("No mirror sinks configured; set GOOGLE_SPREADSHEET_ID, EXPORT_PATH or S3_BUCKET")
	}

	mirror := worker.NewMirrorWorker(result.Store, cfg.SyncInterval, sinks...)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(gctx)
	})

	if client := backend.NewPublisher(logger.Logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); client != nil {
		defer client.Close()
		g.Go(func() error {
			return client.Consume(gctx, mirror.HandleEvent)
		})
	} else {
		logger.Info("Change events disabled, relying on periodic sync", "interval", cfg.SyncInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

func buildSinks(ctx context.Context, cfg *config.Config, logger *applog.Logger) ([]worker.Sink, error) {
	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return nil, err
	}

	var sinks []worker.Sink

	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, worker.NewSheetsSink(client))
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	}

	if cfg.ExportPath != "" {
		sinks = append(sinks, worker.NewFileSink(cfg.ExportPath, format))
		logger.Info("File mirror enabled", "path", cfg.ExportPath, "format", format)
	}

	if cfg.S3Bucket != "" {
		uploader, err := export.NewS3UploaderFromEnv(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, worker.NewS3Sink(uploader, format))
		logger.Info("S3 archive enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}

	return sinks, nil
}
