package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"golang.org/x/time/rate"

	httpadapter "github.com/couchcryptid/marine-watch/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/marine-watch/internal/adapter/kafka"
	"github.com/couchcryptid/marine-watch/internal/config"
	"github.com/couchcryptid/marine-watch/internal/hazard"
	"github.com/couchcryptid/marine-watch/internal/observability"
	"github.com/couchcryptid/marine-watch/internal/pipeline"
	"github.com/couchcryptid/marine-watch/internal/throttle"
)

// alwaysReady is used when no hazard publisher runs.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	aggregator := hazard.New(
		hazard.WithLogger(logger),
		hazard.WithMetrics(metrics),
	)
	gate := throttle.New(
		throttle.WithWindow(cfg.ThrottleWindow),
		throttle.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Publish hazard changes to Kafka (feature-flagged via KAFKA_ENABLED).
	var (
		ready  sharedobs.ReadinessChecker = alwaysReady{}
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher := pipeline.New(writer, logger, metrics, cfg.PublishBatchSize, cfg.PublishBuffer)
		aggregator.Subscribe(publisher.Notify)
		ready = publisher
		logger.Info("hazard publishing enabled", "topic", cfg.KafkaHazardTopic, "brokers", cfg.KafkaBrokers)

		go func() {
			if err := publisher.Run(ctx); err != nil {
				logger.Error("hazard publisher error", "error", err)
			}
		}()
	} else {
		logger.Info("hazard publishing disabled")
	}

	api := httpadapter.NewAPI(httpadapter.APIConfig{
		Hazards:        aggregator,
		Gate:           gate,
		Metrics:        metrics,
		Logger:         logger,
		Limiter:        rate.NewLimiter(rate.Limit(cfg.APIRateLimit), cfg.APIRateBurst),
		NearbyRadiusKm: cfg.NearbyRadiusKm,
	})
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete", "hazards", aggregator.Len())
}
