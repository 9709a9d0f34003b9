// Package dispatch turns normalized alerts into mesh broadcasts.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
	"github.com/couchcryptid/alert-mesh-relay/internal/observability"
)

const (
	// BroadcastChannel is the mesh-wide channel used when an alert spans
	// more zones than are worth addressing individually.
	BroadcastChannel = 0

	// broadcastThreshold is the zone count above which per-zone sends
	// collapse into a single broadcast.
	broadcastThreshold = 6
)

// Suppression reasons recorded on a DispatchRecord.
const (
	ReasonNoAlert = "no_alert"
	ReasonDrill   = "drill"
	ReasonTest    = "test"
	ReasonNoZones = "no_zones"
)

// Transport delivers one text message to one mesh channel.
type Transport interface {
	Send(ctx context.Context, channel int, text string) error
}

// Config tunes dispatch pacing and retry behavior.
type Config struct {
	// MinSendInterval is the floor between the starts of two consecutive
	// mesh sends. The radio firmware drops messages queued faster than
	// its duty cycle allows, so the engine waits out the remainder.
	MinSendInterval time.Duration

	// Retries is how many additional attempts follow a failed send.
	Retries int

	// RetryDelay is the pause before each retry.
	RetryDelay time.Duration
}

// Engine relays alerts over the mesh with pacing and retries. It is not
// safe for concurrent use; the poller drives it from a single goroutine.
type Engine struct {
	transport Transport
	cfg       Config
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	lastSend time.Time
}

// New creates a dispatch engine.
func New(transport Transport, cfg Config, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		transport: transport,
		cfg:       cfg,
		clock:     clk,
		logger:    logger,
		metrics:   metrics,
	}
}

// Dispatch relays one alert to every zone it covers. The returned record
// describes what was sent where. A failed channel does not stop the
// remaining channels; a non-nil error means at least one channel did not
// get the message after all retries.
func (e *Engine) Dispatch(ctx context.Context, alert domain.Alert, zones domain.ZoneSet) (domain.DispatchRecord, error) {
	rec := domain.DispatchRecord{
		AlertType:    alert.Type,
		Localities:   alert.Localities,
		Zones:        zones.Zones(),
		DispatchedAt: e.clock.Now(),
	}

	if alert.Type == domain.TypeNone {
		rec.Suppressed = true
		rec.Reason = ReasonNoAlert
		return rec, nil
	}

	if reason := suppressReason(alert.Type); reason != "" {
		e.logger.Info("alert suppressed", "type", alert.Type, "reason", reason)
		e.metrics.DispatchSuppressed.WithLabelValues(reason).Inc()
		rec.Suppressed = true
		rec.Reason = reason
		return rec, nil
	}

	if zones.Len() == 0 {
		e.logger.Warn("active alert matches no zones", "type", alert.Type, "localities", len(alert.Localities))
		e.metrics.DispatchSuppressed.WithLabelValues(ReasonNoZones).Inc()
		rec.Suppressed = true
		rec.Reason = ReasonNoZones
		return rec, nil
	}

	rec.Message = formatMessage(alert)
	rec.Channels = zones.Zones()
	if zones.Len() > broadcastThreshold {
		// A country-wide alert floods every channel anyway; one broadcast
		// reaches everyone sooner.
		rec.Channels = []int{BroadcastChannel}
	}

	e.logger.Info("dispatching alert", "type", alert.Type, "zones", zones, "channels", rec.Channels)

	var errs []error
	for _, ch := range rec.Channels {
		if err := e.waitForWindow(ctx); err != nil {
			rec.FailedChannels = append(rec.FailedChannels, ch)
			errs = append(errs, err)
			return rec, errors.Join(errs...)
		}
		start := e.clock.Now()
		if err := e.sendWithRetry(ctx, ch, rec.Message); err != nil {
			e.logger.Error("channel dispatch failed", "channel", ch, "error", err)
			rec.FailedChannels = append(rec.FailedChannels, ch)
			errs = append(errs, err)
			if ctx.Err() != nil {
				return rec, errors.Join(errs...)
			}
			continue
		}
		// The pacing floor runs from the start of the send, not its end,
		// so slow CLI invocations do not stretch the gap.
		e.lastSend = start
	}
	return rec, errors.Join(errs...)
}

// waitForWindow blocks until MinSendInterval has passed since the start
// of the previous successful send.
func (e *Engine) waitForWindow(ctx context.Context) error {
	if e.lastSend.IsZero() {
		return nil
	}
	elapsed := e.clock.Since(e.lastSend)
	if elapsed >= e.cfg.MinSendInterval {
		return nil
	}

	wait := e.cfg.MinSendInterval - elapsed
	e.metrics.PacingWaitSeconds.Observe(wait.Seconds())
	e.logger.Debug("pacing mesh send", "wait", wait)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clock.After(wait):
		return nil
	}
}

func (e *Engine) sendWithRetry(ctx context.Context, channel int, text string) error {
	attempts := e.cfg.Retries + 1
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := e.transport.Send(ctx, channel, text)
		if err == nil {
			e.metrics.SendAttempts.WithLabelValues("ok").Inc()
			return nil
		}
		e.metrics.SendAttempts.WithLabelValues("error").Inc()
		last = err
		if attempt == attempts {
			break
		}
		e.logger.Warn("mesh send failed, retrying",
			"channel", channel, "attempt", attempt, "retry_in", e.cfg.RetryDelay, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("channel %d: %w", channel, ctx.Err())
		case <-e.clock.After(e.cfg.RetryDelay):
		}
	}
	return fmt.Errorf("channel %d after %d attempts: %w", channel, attempts, last)
}

// formatMessage renders the on-air text. Instructions are quoted verbatim
// when present; the siren emoji leads so the alert stands out in a mesh
// client's message list.
func formatMessage(alert domain.Alert) string {
	if alert.Instructions == "" {
		return "🚨" + alert.Type
	}
	return fmt.Sprintf("🚨%s - %q", alert.Type, alert.Instructions)
}

// suppressReason classifies alert types that must never reach the mesh.
func suppressReason(alertType string) string {
	lower := strings.ToLower(alertType)
	switch {
	case strings.Contains(lower, "drill"):
		return ReasonDrill
	case strings.Contains(lower, "test"):
		return ReasonTest
	default:
		return ""
	}
}
