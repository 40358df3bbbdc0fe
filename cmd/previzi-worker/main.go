package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maicon-romano/previzi/internal/amqp"
	"github.com/maicon-romano/previzi/internal/backend"
	"github.com/maicon-romano/previzi/internal/config"
	applog "github.com/maicon-romano/previzi/internal/log"
	"github.com/maicon-romano/previzi/internal/services"
	"github.com/maicon-romano/previzi/internal/worker"
)

// previzi-worker pre-materializes upcoming months of every infinite
// recurring series so the API never has to generate instances on the
// request path.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting previzi-worker")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	// Initialize the data backend shared with the API server
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(nil).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend",
			applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}
	}()

	// Initialize AMQP publisher so prefilled instances emit series events (optional)
	var events *amqp.Publisher
	if cfg.AMQPURL != "" {
		events, err = amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP publisher, continuing without events",
				applog.FieldError, err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	series := services.NewMaterializer(result.Store, events)

	// Keep the current month plus one ahead filled in
	prefiller := worker.NewPrefiller(result.Store, series, 1)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Prefill worker configured",
		"interval", cfg.WorkerInterval,
		"backend", cfg.DataBackend)

	// Setup periodic processing ticker
	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	// Run initial prefill on startup
	logger.Info("Running initial prefill...")
	if count, err := prefiller.Run(ctx, time.Now()); err != nil {
		logger.Error("Initial prefill failed", applog.FieldError, err)
	} else {
		logger.Info("Initial prefill complete", "instances_created", count)
	}

	// Start periodic processing
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := prefiller.Run(ctx, now)
				if err != nil {
					logger.Error("Periodic prefill failed", applog.FieldError, err)
				} else {
					logger.Info("Periodic prefill complete",
						"instances_created", count,
						"next_check", now.Add(cfg.WorkerInterval).Format("15:04:05"))
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down previzi-worker...")
	cancel()
	logger.Info("Previzi-worker shutdown complete")
}
