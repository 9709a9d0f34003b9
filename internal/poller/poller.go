// Package poller drives the fetch-normalize-dispatch cycle.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/alert-mesh-relay/internal/domain"
	"github.com/couchcryptid/alert-mesh-relay/internal/observability"
)

// Fetcher retrieves the raw feed document for one cycle.
type Fetcher interface {
	Fetch(ctx context.Context, mode domain.FeedMode) (json.RawMessage, error)
}

// ZoneResolver maps alerted localities to broadcast zones, reporting the
// names it could not place.
type ZoneResolver interface {
	Resolve(localities []string) (domain.ZoneSet, []string)
}

// Dispatcher relays one alert over the mesh.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert domain.Alert, zones domain.ZoneSet) (domain.DispatchRecord, error)
}

// Recorder mirrors dispatch records to an external audit sink.
type Recorder interface {
	Record(ctx context.Context, rec domain.DispatchRecord) error
}

// Poller orchestrates the polling loop. Each cycle is independent: a
// failure in one cycle is logged and counted, and the next tick starts
// clean.
type Poller struct {
	fetcher    Fetcher
	resolver   ZoneResolver
	dispatcher Dispatcher
	recorder   Recorder // nil when the audit mirror is disabled

	mode     domain.FeedMode
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Poller. recorder may be nil to disable dispatch mirroring.
func New(f Fetcher, r ZoneResolver, d Dispatcher, rec Recorder, mode domain.FeedMode, interval time.Duration,
	clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		fetcher:    f,
		resolver:   r,
		dispatcher: d,
		recorder:   rec,
		mode:       mode,
		interval:   interval,
		clock:      clk,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once the poller has completed at least one
// cycle, or an error describing why the service is not yet ready.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("poller has not completed a cycle yet")
	}
	return nil
}

// Run executes the polling loop until the context is cancelled. The first
// cycle starts immediately; later cycles follow the configured interval.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "mode", p.mode, "interval", p.interval)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		default:
		}

		p.runCycle(ctx)
		p.ready.Store(true)

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// runCycle performs one fetch-normalize-dispatch pass. Errors never
// propagate: they are logged, counted, and contained to this cycle.
func (p *Poller) runCycle(ctx context.Context) {
	p.metrics.PollCycles.Inc()

	raw, err := p.fetcher.Fetch(ctx, p.mode)
	if err != nil {
		p.logger.Warn("feed fetch failed, skipping cycle", "error", err)
		p.metrics.CycleErrors.WithLabelValues("fetch").Inc()
		return
	}

	payload, err := domain.DecodePayload(raw)
	if err != nil {
		p.logger.Error("feed document not recognized, skipping cycle", "error", err)
		p.metrics.CycleErrors.WithLabelValues("schema").Inc()
		return
	}

	alert := domain.NormalizeAlert(payload)
	if alert.Type != domain.TypeNone {
		p.logger.Info("alert detected", "type", alert.Type, "localities", len(alert.Localities))
		p.metrics.AlertsDetected.WithLabelValues(alert.Type).Inc()
	}

	zones, unresolved := p.resolver.Resolve(alert.Localities)
	if len(unresolved) > 0 {
		p.logger.Warn("localities with no zone mapping", "count", len(unresolved), "first", unresolved[0])
		p.metrics.LocalitiesUnresolved.Add(float64(len(unresolved)))
	}

	rec, err := p.dispatcher.Dispatch(ctx, alert, zones)
	if err != nil {
		p.logger.Error("dispatch failed", "type", alert.Type, "error", err)
		p.metrics.CycleErrors.WithLabelValues("dispatch").Inc()
	}

	if p.recorder == nil || rec.Suppressed {
		return
	}
	if err := p.recorder.Record(ctx, rec); err != nil {
		p.logger.Warn("mirror dispatch record failed", "error", err)
		p.metrics.CycleErrors.WithLabelValues("record").Inc()
		p.metrics.RecorderPublishes.WithLabelValues("error").Inc()
		return
	}
	p.metrics.RecorderPublishes.WithLabelValues("ok").Inc()
}
