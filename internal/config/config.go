package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Hazard update publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaHazardTopic string
	PublishBatchSize int
	PublishBuffer    int

	// Core behaviour.
	NearbyRadiusKm float64
	ThrottleWindow time.Duration

	// Mutating API routes.
	APIRateLimit float64
	APIRateBurst int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	throttleWindow, err := time.ParseDuration(sharedcfg.EnvOrDefault("THROTTLE_WINDOW", "5m"))
	if err != nil || throttleWindow <= 0 {
		return nil, errors.New("invalid THROTTLE_WINDOW")
	}

	batchSize, err := parseIntInRange("PUBLISH_BATCH_SIZE", "50", 1, 1000)
	if err != nil {
		return nil, err
	}

	buffer, err := parseIntInRange("PUBLISH_BUFFER", "256", 1, 100000)
	if err != nil {
		return nil, err
	}

	radius, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NEARBY_RADIUS_KM", "50"), 64)
	if err != nil || radius <= 0 {
		return nil, errors.New("invalid NEARBY_RADIUS_KM")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("API_RATE_LIMIT", "20"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid API_RATE_LIMIT")
	}

	rateBurst, err := parseIntInRange("API_RATE_BURST", "40", 1, 100000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaHazardTopic: sharedcfg.EnvOrDefault("KAFKA_HAZARD_TOPIC", "hazard-updates"),
		PublishBatchSize: batchSize,
		PublishBuffer:    buffer,
		NearbyRadiusKm:   radius,
		ThrottleWindow:   throttleWindow,
		APIRateLimit:     rateLimit,
		APIRateBurst:     rateBurst,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaHazardTopic == "" {
			return nil, errors.New("KAFKA_HAZARD_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseIntInRange(key, def string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}
