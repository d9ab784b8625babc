package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andres10976/homework-bot/internal/failure"
)

const namespace = "homework_bot"

// Metrics holds the poller's Prometheus collectors.
type Metrics struct {
	cycles        *prometheus.CounterVec
	failures      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	suppressed    prometheus.Counter
	cursor        prometheus.Gauge
	cycleDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "Total number of poll cycles by outcome",
			},
			[]string{"outcome"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_failures_total",
				Help:      "Total number of failed poll cycles by error kind",
			},
			[]string{"kind"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_sent_total",
				Help:      "Total number of chat messages delivered by type",
			},
			[]string{"type"},
		),
		suppressed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "error_notifications_suppressed_total",
				Help:      "Total number of error notifications skipped as duplicates",
			},
		),
		cursor: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cursor_timestamp_seconds",
				Help:      "Lower bound of the next status query window",
			},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_cycle_duration_seconds",
				Help:      "Duration of poll cycles excluding the sleep",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(m.cycles, m.failures, m.notifications, m.suppressed, m.cursor, m.cycleDuration)
	return m
}

func (m *Metrics) ObserveCycle(d time.Duration, err error) {
	m.cycleDuration.Observe(d.Seconds())
	if err == nil {
		m.cycles.WithLabelValues("success").Inc()
		return
	}
	m.cycles.WithLabelValues("failure").Inc()
	m.failures.WithLabelValues(failure.KindOf(err).String()).Inc()
}

// NotificationSent counts a delivered message; typ is "status" or "error".
func (m *Metrics) NotificationSent(typ string) {
	m.notifications.WithLabelValues(typ).Inc()
}

func (m *Metrics) NotificationSuppressed() {
	m.suppressed.Inc()
}

func (m *Metrics) SetCursor(cursor int64) {
	m.cursor.Set(float64(cursor))
}
