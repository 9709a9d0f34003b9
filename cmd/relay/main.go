package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/alert-mesh-relay/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/alert-mesh-relay/internal/adapter/kafka"
	"github.com/couchcryptid/alert-mesh-relay/internal/adapter/meshtastic"
	"github.com/couchcryptid/alert-mesh-relay/internal/adapter/oref"
	"github.com/couchcryptid/alert-mesh-relay/internal/config"
	"github.com/couchcryptid/alert-mesh-relay/internal/dispatch"
	"github.com/couchcryptid/alert-mesh-relay/internal/gazetteer"
	"github.com/couchcryptid/alert-mesh-relay/internal/observability"
	"github.com/couchcryptid/alert-mesh-relay/internal/poller"
)

func main() {
	host := flag.String("host", "", "meshtastic radio hostname (overrides MESHTASTIC_HOST; empty uses serial)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.MeshtasticHost = *host
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	gaz, err := gazetteer.Load()
	if err != nil {
		logger.Error("failed to load gazetteer", "error", err)
		os.Exit(1)
	}
	logger.Info("gazetteer loaded", "localities", gaz.Len())

	radio := meshtastic.NewCLI(cfg.MeshtasticHost, cfg.MeshtasticTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The relay is useless without a reachable radio, so a failed probe is
	// fatal rather than retried.
	if err := radio.Probe(ctx); err != nil {
		logger.Error("radio probe failed", "error", err)
		os.Exit(1)
	}

	clk := clockwork.NewRealClock()
	feed := oref.NewClient(cfg.FeedTimeout, logger, metrics)
	engine := dispatch.New(radio, dispatch.Config{
		MinSendInterval: cfg.MinSendInterval,
		Retries:         cfg.SendRetries,
		RetryDelay:      cfg.SendRetryDelay,
	}, clk, logger, metrics)

	// Dispatch mirroring (feature-flagged via KAFKA_ENABLED).
	var recorder poller.Recorder
	var mirror *kafkaadapter.Recorder
	if cfg.KafkaEnabled {
		mirror = kafkaadapter.NewRecorder(cfg, logger)
		recorder = mirror
		logger.Info("kafka dispatch mirror enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka dispatch mirror disabled")
	}

	p := poller.New(feed, gaz, engine, recorder, cfg.FeedMode, cfg.PollInterval, clk, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	// Start admin HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server error", "error", err)
		}
	}()

	// Start the feed poller.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("poller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", "error", err)
	}
	if mirror != nil {
		if err := mirror.Close(); err != nil {
			logger.Error("kafka recorder close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
