package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the relay.
type Metrics struct {
	PollCycles    prometheus.Counter
	CycleErrors   *prometheus.CounterVec // labels: stage={fetch,schema,dispatch,record}
	PollerRunning prometheus.Gauge

	// Feed metrics.
	FeedRequests *prometheus.CounterVec // labels: outcome={ok,idle,empty_body,bad_status,transport_error,malformed}
	FeedDuration prometheus.Histogram

	// Alert and zone resolution metrics.
	AlertsDetected       *prometheus.CounterVec // labels: type
	LocalitiesUnresolved prometheus.Counter

	// Mesh dispatch metrics.
	DispatchSuppressed *prometheus.CounterVec // labels: reason={drill,test,no_zones}
	SendAttempts       *prometheus.CounterVec // labels: outcome={ok,error}
	PacingWaitSeconds  prometheus.Histogram

	// Kafka mirror metrics.
	RecorderPublishes *prometheus.CounterVec // labels: outcome={ok,error}
}

// NewMetrics creates and registers all relay metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "poll_cycles_total",
			Help:      "Total feed polling cycles started.",
		}),
		CycleErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "cycle_errors_total",
			Help:      "Polling cycles that failed, by pipeline stage.",
		}, []string{"stage"}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alert_relay",
			Name:      "poller_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "feed_requests_total",
			Help:      "Feed endpoint requests by outcome.",
		}, []string{"outcome"}),
		FeedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alert_relay",
			Name:      "feed_request_duration_seconds",
			Help:      "Feed endpoint request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		AlertsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "alerts_detected_total",
			Help:      "Active alerts observed in the feed, by alert type.",
		}, []string{"type"}),
		LocalitiesUnresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "localities_unresolved_total",
			Help:      "Alerted localities with no gazetteer zone mapping.",
		}),
		DispatchSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "dispatch_suppressed_total",
			Help:      "Alerts withheld from the mesh, by suppression reason.",
		}, []string{"reason"}),
		SendAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "send_attempts_total",
			Help:      "Mesh CLI send attempts by outcome, retries included.",
		}, []string{"outcome"}),
		PacingWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alert_relay",
			Name:      "pacing_wait_seconds",
			Help:      "Time spent waiting for the minimum send interval.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RecorderPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_relay",
			Name:      "recorder_publishes_total",
			Help:      "Dispatch records mirrored to Kafka, by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.PollCycles,
		m.CycleErrors,
		m.PollerRunning,
		m.FeedRequests,
		m.FeedDuration,
		m.AlertsDetected,
		m.LocalitiesUnresolved,
		m.DispatchSuppressed,
		m.SendAttempts,
		m.PacingWaitSeconds,
		m.RecorderPublishes,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PollCycles:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_relay", Name: "poll_cycles_total"}),
		CycleErrors:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_relay", Name: "cycle_errors_total"}, []string{"stage"}),
		PollerRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "alert_relay", Name: "poller_running"}),
		FeedRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_relay", Name: "feed_requests_total"}, []string{"outcome"}),
		FeedDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "alert_relay", Name: "feed_request_duration_seconds"}),
		AlertsDetected:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_relay", Name: "alerts_detected_total"}, []string{"type"}),
		LocalitiesUnresolved: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_relay", Name: "localities_unresolved_total"}),
		DispatchSuppressed:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_relay", Name: "dispatch_suppressed_total"}, []string{"reason"}),
		SendAttempts:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_relay", Name: "send_attempts_total"}, []string{"outcome"}),
		PacingWaitSeconds:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "alert_relay", Name: "pacing_wait_seconds"}),
		RecorderPublishes:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_relay", Name: "recorder_publishes_total"}, []string{"outcome"}),
	}
}
