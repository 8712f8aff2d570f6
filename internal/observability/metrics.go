// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "marketing_attribution"

// Metrics holds all Prometheus metrics for the application.
// Every Record method is safe on a nil receiver so components can treat
// metrics as optional.
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Tracking metrics
	EventsTracked    *prometheus.CounterVec
	EventsDuplicate  prometheus.Counter
	EventErrors      *prometheus.CounterVec
	SourceReconnects *prometheus.CounterVec

	// Attribution metrics
	JourneysAttributed *prometheus.CounterVec
	AttributionErrors  *prometheus.CounterVec
	ComputeDuration    *prometheus.HistogramVec
	JourneysAssembled  prometheus.Counter

	// Pipeline metrics
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	PlatformConnected      *prometheus.GaugeVec
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics registers all metrics on reg. A nil reg uses a fresh registry,
// which keeps tests from colliding on the global one.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		EventsTracked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "events_tracked_total",
			Help:      "Total number of events stored by channel",
		}, []string{"channel"}),
		EventsDuplicate: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "events_duplicate_total",
			Help:      "Total number of events dropped as duplicates",
		}),
		EventErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "event_errors_total",
			Help:      "Total number of rejected events by source and reason",
		}, []string{"source", "reason"}),
		SourceReconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "source_reconnects_total",
			Help:      "Total number of event source reconnects",
		}, []string{"source"}),

		JourneysAttributed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attribution",
			Name:      "journeys_attributed_total",
			Help:      "Total number of journeys attributed by model",
		}, []string{"model"}),
		AttributionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attribution",
			Name:      "errors_total",
			Help:      "Total number of attribution failures by model and reason",
		}, []string{"model", "reason"}),
		ComputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "attribution",
			Name:      "compute_duration_seconds",
			Help:      "Batch attribution latency in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"model"}),
		JourneysAssembled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attribution",
			Name:      "journeys_assembled_total",
			Help:      "Total number of journeys assembled from tracked events",
		}),

		PipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{.01, .1, .5, 1, 5, 10, 30, 60, 300},
		}, []string{"phase"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		PlatformConnected: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "platform_connected",
			Help:      "1 when the ad platform reported connected on the last poll",
		}, []string{"platform"}),
		LastSuccessfulPipeline: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler exposing this instance's registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// RecordTracked increments the stored-event counter for channel.
func (m *Metrics) RecordTracked(channel string) {
	if m == nil {
		return
	}
	m.EventsTracked.WithLabelValues(channel).Inc()
}

// RecordDuplicate increments the duplicate counter.
func (m *Metrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.EventsDuplicate.Inc()
}

// RecordEventError records a rejected inbound event.
func (m *Metrics) RecordEventError(source, reason string) {
	if m == nil {
		return
	}
	m.EventErrors.WithLabelValues(source, reason).Inc()
}

// RecordReconnect records a source reconnect.
func (m *Metrics) RecordReconnect(source string) {
	if m == nil {
		return
	}
	m.SourceReconnects.WithLabelValues(source).Inc()
}

// RecordAttribution records a batch computed under model.
func (m *Metrics) RecordAttribution(model string, journeys int, seconds float64, err error) {
	if m == nil {
		return
	}
	m.ComputeDuration.WithLabelValues(model).Observe(seconds)
	if err != nil {
		m.AttributionErrors.WithLabelValues(model, "invalid").Inc()
		return
	}
	m.JourneysAttributed.WithLabelValues(model).Add(float64(journeys))
}

// RecordAssembled adds n assembled journeys.
func (m *Metrics) RecordAssembled(n int) {
	if m == nil {
		return
	}
	m.JourneysAssembled.Add(float64(n))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline phase.
func (m *Metrics) RecordPipelineRun(phase, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(phase, status).Inc()
	m.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// SetPipelineSuccess stamps the last successful run.
func (m *Metrics) SetPipelineSuccess(unixSeconds int64) {
	if m == nil {
		return
	}
	m.LastSuccessfulPipeline.Set(float64(unixSeconds))
}

// SetPlatformConnected updates the connection gauge for platform.
func (m *Metrics) SetPlatformConnected(platform string, connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.PlatformConnected.WithLabelValues(platform).Set(v)
}
