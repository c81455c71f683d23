package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisory pipeline.
type Metrics struct {
	AdvisoriesSynthesized  *prometheus.CounterVec // labels: severity
	NotificationsDelivered *prometheus.CounterVec // labels: channel={primary,fallback}
	NotificationsDeduped   prometheus.Counter
	NotificationsMuted     prometheus.Counter
	NotificationsQueued    prometheus.Counter
	RemindersSent          prometheus.Counter

	// Offline queue metrics.
	QueueDepth        prometheus.Gauge
	QueueEvictions    prometheus.Counter
	QueueStaleDropped prometheus.Counter
	SyncRetries       prometheus.Counter

	EngineRunning        prometheus.Gauge
	EvaluationDuration   prometheus.Histogram
	WeatherFetchFailures prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.AdvisoriesSynthesized,
		m.NotificationsDelivered,
		m.NotificationsDeduped,
		m.NotificationsMuted,
		m.NotificationsQueued,
		m.RemindersSent,
		m.QueueDepth,
		m.QueueEvictions,
		m.QueueStaleDropped,
		m.SyncRetries,
		m.EngineRunning,
		m.EvaluationDuration,
		m.WeatherFetchFailures,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AdvisoriesSynthesized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "advisories_synthesized_total",
			Help:      "Advisories produced by the synthesizer, by severity.",
		}, []string{"severity"}),
		NotificationsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "notifications_delivered_total",
			Help:      "Notifications handed to a delivery channel, by channel.",
		}, []string{"channel"}),
		NotificationsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "notifications_deduped_total",
			Help:      "Dispatch calls suppressed because the advisory key was already notified.",
		}),
		NotificationsMuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "notifications_muted_total",
			Help:      "Dispatch calls short-circuited by a category opt-out.",
		}),
		NotificationsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "notifications_queued_total",
			Help:      "Notifications placed on the offline queue.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "harvest_reminders_sent_total",
			Help:      "Harvest reminders dispatched.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_advisory",
			Name:      "offline_queue_depth",
			Help:      "Entries currently held in the offline queue.",
		}),
		QueueEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "offline_queue_evictions_total",
			Help:      "Oldest-first evictions caused by the queue size cap.",
		}),
		QueueStaleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "offline_queue_stale_dropped_total",
			Help:      "Entries silently discarded for exceeding the queue max age.",
		}),
		SyncRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "sync_retries_total",
			Help:      "Failed sync attempts recorded on pending actions.",
		}),
		EngineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_advisory",
			Name:      "engine_running",
			Help:      "1 when the evaluation engine is active, 0 when shut down.",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_advisory",
			Name:      "evaluation_cycle_duration_seconds",
			Help:      "Duration of a complete fetch-score-synthesize-dispatch cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		WeatherFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisory",
			Name:      "weather_fetch_failures_total",
			Help:      "Evaluation cycles skipped because the weather fetch failed.",
		}),
	}
}
