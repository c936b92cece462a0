package main

import (
	"context"
	"errors"
	"time"

	"donghaeng/internal/amqp"
	"donghaeng/internal/cli"
	"donghaeng/internal/config"
	applog "donghaeng/internal/log"
	"donghaeng/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentWorker)
	logger.Info("Starting donghaeng-worker", applog.FieldOperation, applog.OpStartup)

	if err := cfg.ValidateWorker(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	// The worker only consumes, so the store is opened without a publisher.
	result, cleanup, err := cli.OpenBackend(ctx, cfg, false, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer cleanup()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cleanup()
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	gapWorker := worker.NewGapWorker(result.Store, logger)

	go func() {
		ticker := time.NewTicker(cfg.GapReportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := gapWorker.ReportGaps(ctx); err != nil {
					logger.Error("Gap report failed", applog.FieldError, err.Error())
				}
			}
		}
	}()

	// Blocks until shutdown or an unrecoverable broker failure.
	if err := amqpClient.ConsumeTransactionEvents(ctx, gapWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err.Error(), applog.FieldOperation, applog.OpConsume)
	}
	logger.Info("Worker shutdown complete")
}
