// Package middleware provides cross-cutting concerns for the analysis engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-tally/internal/ports"
)

const namespace = "tally"

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It exposes parse volume, failure categories, per-model quality and cost,
// and phase latency for analysis runs.
type PrometheusMetrics struct {
	recordsParsed    *prometheus.CounterVec
	recordsSkipped   *prometheus.CounterVec
	failures         *prometheus.CounterVec
	loadErrors       *prometheus.CounterVec
	modelSuccessRate *prometheus.GaugeVec
	modelTotalCost   *prometheus.GaugeVec
	recordLatency    *prometheus.HistogramVec
	executionLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all metrics on reg. A nil reg selects the global default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		// Input metrics.
		recordsParsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_parsed_total",
				Help:      "Total number of evaluation records normalized from input.",
			},
			[]string{"source"},
		),
		recordsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_skipped_total",
				Help:      "Total number of input entries skipped as unusable.",
			},
			[]string{"source"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Total number of failed records by error category.",
			},
			[]string{"source", "category"},
		),
		loadErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_errors_total",
				Help:      "Total number of inputs that failed to load, by failure category.",
			},
			[]string{"category"},
		),

		// Per-model results.
		modelSuccessRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_success_rate",
				Help:      "Fraction of passed records per model in the latest analysis.",
			},
			[]string{"source", "model"},
		),
		modelTotalCost: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_total_cost",
				Help:      "Summed cost per model in the latest analysis.",
			},
			[]string{"source", "model"},
		),
		recordLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "record_latency_milliseconds",
				Help:      "Reported latency of individual evaluation records.",
				Buckets:   prometheus.ExponentialBuckets(50, 2, 10),
			},
			[]string{"model"},
		),

		// General execution metrics.
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Execution time of analysis operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of other counted events.",
			},
			[]string{"metric"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Other gauge values reported by the engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	_ map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. Negative values are ignored because counters only
// go up.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	if value < 0 {
		return
	}
	switch metric {
	case "records_parsed_total":
		pm.recordsParsed.WithLabelValues(labelOr(labels, "source")).Add(value)
	case "records_skipped_total":
		pm.recordsSkipped.WithLabelValues(labelOr(labels, "source")).Add(value)
	case "failures_total":
		pm.failures.WithLabelValues(labelOr(labels, "source"), labelOr(labels, "category")).Add(value)
	case "load_errors_total":
		pm.loadErrors.WithLabelValues(labelOr(labels, "category")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "model_success_rate":
		pm.modelSuccessRate.WithLabelValues(labelOr(labels, "source"), labelOr(labels, "model")).Set(value)
	case "model_total_cost":
		pm.modelTotalCost.WithLabelValues(labelOr(labels, "source"), labelOr(labels, "model")).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "record_latency_ms":
		pm.recordLatency.WithLabelValues(labelOr(labels, "model")).Observe(value)
	default:
		pm.executionLatency.WithLabelValues(metric).Observe(value)
	}
}

// labelOr returns labels[key], or "unknown" when it is missing or empty.
func labelOr(labels map[string]string, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return "unknown"
}

// WriteTextfile writes every metric gathered by g to path in the
// Prometheus text exposition format, for node-exporter style collection
// of one-shot runs.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return ports.NewMetricsError("*", "write_textfile", err)
	}
	return nil
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
