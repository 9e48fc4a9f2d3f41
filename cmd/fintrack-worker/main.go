package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(applog.ComponentWorker, cfg.LogLevel)

	logger.Info("Starting fintrack-worker", "backend", cfg.DataBackend, "queue", cfg.AMQPQueue)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	rt, err := cli.NewRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize runtime", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Runtime cleanup failed", "error", err)
		}
	}()

	if err := rt.Service.Ready(ctx); err != nil {
		logger.Error("Storage not reachable", "error", err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	dashboards := worker.NewDashboardWorker(rt.Service)

	start := time.Now()
	err = client.ConsumeTransactionEvents(ctx, dashboards.HandleTransactionEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped",
		"processed", dashboards.Processed(),
		"uptime", time.Since(start).Round(time.Second).String())
}
