// Package config loads relay settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedMode     domain.FeedMode
	FeedTimeout  time.Duration
	PollInterval time.Duration

	// Meshtastic CLI configuration.
	MeshtasticHost    string
	MeshtasticTimeout time.Duration

	// Dispatch pacing and retry configuration.
	MinSendInterval time.Duration
	SendRetries     int
	SendRetryDelay  time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka dispatch mirror configuration.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is folded in first so
// local runs need no exported environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	feedMode, err := domain.ParseFeedMode(envOrDefault("FEED_MODE", string(domain.FeedLive)))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_MODE: %w", err)
	}

	feedTimeout, err := parsePositiveDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}
	minSendInterval, err := parsePositiveDuration("SEND_MIN_INTERVAL", "10s")
	if err != nil {
		return nil, err
	}
	sendRetryDelay, err := parsePositiveDuration("SEND_RETRY_DELAY", "5s")
	if err != nil {
		return nil, err
	}
	meshtasticTimeout, err := parsePositiveDuration("MESHTASTIC_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	sendRetries, err := parseSendRetries()
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		FeedMode:     feedMode,
		FeedTimeout:  feedTimeout,
		PollInterval: pollInterval,

		MeshtasticHost:    os.Getenv("MESHTASTIC_HOST"),
		MeshtasticTimeout: meshtasticTimeout,

		MinSendInterval: minSendInterval,
		SendRetries:     sendRetries,
		SendRetryDelay:  sendRetryDelay,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "dispatched-alerts"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseSendRetries() (int, error) {
	s := envOrDefault("SEND_RETRIES", "3")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 10 {
		return 0, errors.New("invalid SEND_RETRIES")
	}
	return n, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
