package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	server "taskmanagement/internal/adapter/http"
	. "taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := Load(envFiles()...)

	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := NewLokiLogger(config.ServiceName, config.Telemetry.LokiURL)

	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	defer logger.Sync()

	var registry prometheus.Registerer = prometheus.NewRegistry()

	if config.Telemetry.Enabled {
		telemetry, err := tracing.InitTelemetry(ctx, tracing.TelemetryConfig{
			ServiceName:    config.ServiceName,
			ServiceVersion: config.ServiceVersion,
			Environment:    config.Environment,
			MetricsPort:    config.Telemetry.MetricsPort,
			OTLPEndpoint:   config.Telemetry.OTLPEndpoint,
		})

		if err != nil {
			log.Fatal("Failed to initialize telemetry: ", err)
		}

		defer telemetry.Shutdown(context.Background())

		registry = telemetry.PrometheusRegistry
	}

	metrics := tracing.NewAppMetrics(registry)

	if err := server.StartServer(ctx, config, metrics, logger); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}

// envFiles returns .env when it exists.
func envFiles() []string {
	if _, err := os.Stat(".env"); err == nil {
		return []string{".env"}
	}

	return nil
}
