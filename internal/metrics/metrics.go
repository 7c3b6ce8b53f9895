package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Reminder metrics
	SessionsTotal    prometheus.Gauge
	ScansTotal       prometheus.Counter
	DueSessionsTotal prometheus.Counter

	// Alert metrics
	AlertDeliveriesTotal *prometheus.CounterVec

	// Store metrics
	StoreSaveDuration      *prometheus.HistogramVec
	StoreSaveErrorsTotal   *prometheus.CounterVec
	StoreLoadFailuresTotal *prometheus.CounterVec

	// Summarizer metrics
	SummarizerRequestsTotal *prometheus.CounterVec
	SummarizerDuration      *prometheus.HistogramVec
}

var (
	defaultOnce sync.Once
	defaultInst *Metrics
)

// Default returns the process-wide metrics instance
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultInst = NewMetrics()
	})
	return defaultInst
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		SessionsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "reminder_sessions",
				Help: "Number of sessions currently held",
			},
		),
		ScansTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reminder_scans_total",
				Help: "Total number of due-session scans",
			},
		),
		DueSessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reminder_due_sessions_total",
				Help: "Total number of sessions found due and alerted",
			},
		),

		AlertDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_deliveries_total",
				Help: "Total number of alert channel deliveries",
			},
			[]string{"channel", "status"},
		),

		StoreSaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_save_duration_seconds",
				Help:    "Duration of session store writes in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		StoreSaveErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_save_errors_total",
				Help: "Total number of failed session store writes",
			},
			[]string{"backend"},
		),
		StoreLoadFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_load_failures_total",
				Help: "Total number of session loads that fell back to an empty collection",
			},
			[]string{"backend", "reason"},
		),

		SummarizerRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarizer_requests_total",
				Help: "Total number of summary provider calls",
			},
			[]string{"provider", "status"},
		),
		SummarizerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "summarizer_duration_seconds",
				Help:    "Duration of summary provider calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"provider"},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.SessionsTotal)
	m.registry.MustRegister(m.ScansTotal)
	m.registry.MustRegister(m.DueSessionsTotal)

	m.registry.MustRegister(m.AlertDeliveriesTotal)

	m.registry.MustRegister(m.StoreSaveDuration)
	m.registry.MustRegister(m.StoreSaveErrorsTotal)
	m.registry.MustRegister(m.StoreLoadFailuresTotal)

	m.registry.MustRegister(m.SummarizerRequestsTotal)
	m.registry.MustRegister(m.SummarizerDuration)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetSessions records the current collection size
func SetSessions(count int) {
	Default().SessionsTotal.Set(float64(count))
}

// RecordScan records one scan and how many sessions it found due
func RecordScan(due int) {
	m := Default()
	m.ScansTotal.Inc()
	m.DueSessionsTotal.Add(float64(due))
}

// RecordAlertDelivery records the outcome of one channel delivery
func RecordAlertDelivery(channel string, status string) {
	Default().AlertDeliveriesTotal.WithLabelValues(channel, status).Inc()
}

// RecordStoreSave records a store write
func RecordStoreSave(backend string, duration time.Duration, err error) {
	m := Default()
	m.StoreSaveDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		m.StoreSaveErrorsTotal.WithLabelValues(backend).Inc()
	}
}

// RecordStoreLoadFailure records a load that fell back to an empty collection
func RecordStoreLoadFailure(backend string, reason string) {
	Default().StoreLoadFailuresTotal.WithLabelValues(backend, reason).Inc()
}

// RecordSummarizerCall records one provider call
func RecordSummarizerCall(provider string, duration time.Duration, success bool) {
	m := Default()
	status := "success"
	if !success {
		status = "error"
	}
	m.SummarizerRequestsTotal.WithLabelValues(provider, status).Inc()
	m.SummarizerDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
