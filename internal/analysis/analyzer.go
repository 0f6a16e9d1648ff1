// Package analysis derives aggregate quality, cost and error metrics from
// canonical records. Every exported computation is a pure function of its
// inputs; the Analyzer only adds tracing and metrics around them.
package analysis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/parser"
	"github.com/ahrav/go-tally/internal/ports"
)

const tracerName = "github.com/ahrav/go-tally/internal/analysis"

// Config tunes an analysis run. The zero value of each field selects its
// default.
type Config struct {
	// ExampleLimit bounds example test ids per error bucket.
	ExampleLimit int

	// Patterns tunes error pattern detection.
	Patterns PatternOptions

	// Recommendations holds finding thresholds.
	Recommendations RecommendationOptions

	// Rules are consulted before the built-in classification rules.
	Rules []Rule
}

// DefaultConfig returns the stock analysis configuration.
func DefaultConfig() Config {
	return Config{
		ExampleLimit: DefaultExampleLimit,
		Patterns: PatternOptions{
			Threshold:  DefaultPatternThreshold,
			Similarity: DefaultPatternSimilarity,
			TestLimit:  DefaultPatternTestLimit,
		},
		Recommendations: DefaultRecommendationOptions(),
	}
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMetrics records analysis metrics on m.
func WithMetrics(m ports.MetricsCollector) Option {
	return func(a *Analyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithTracer overrides the OpenTelemetry tracer, mainly for tests.
func WithTracer(t trace.Tracer) Option {
	return func(a *Analyzer) {
		if t != nil {
			a.tracer = t
		}
	}
}

// Analyzer turns parse results into AnalysisSummary snapshots. It holds no
// mutable state and is safe for concurrent use.
type Analyzer struct {
	config     Config
	classifier *Classifier
	metrics    ports.MetricsCollector
	tracer     trace.Tracer
}

// New creates an Analyzer. Zero-valued config fields take their defaults.
func New(cfg Config, opts ...Option) *Analyzer {
	def := DefaultConfig()
	if cfg.ExampleLimit <= 0 {
		cfg.ExampleLimit = def.ExampleLimit
	}
	if cfg.Recommendations == (RecommendationOptions{}) {
		cfg.Recommendations = def.Recommendations
	}

	a := &Analyzer{
		config:     cfg,
		classifier: NewClassifier(cfg.Rules...),
		metrics:    ports.NopMetrics{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classifier returns the analyzer's classifier.
func (a *Analyzer) Classifier() *Classifier { return a.classifier }

// Summarize computes the summary for records without tracing or metrics.
// Identical inputs always produce identical summaries.
func (a *Analyzer) Summarize(source string, records []domain.CanonicalRecord, skipped int) domain.AnalysisSummary {
	agg := Aggregate(records, a.classifier.ClassifyRecord)
	buckets := a.classifier.Bucket(records, a.config.ExampleLimit)
	patterns := DetectPatterns(records, a.classifier, a.config.Patterns)
	recs := Recommend(agg, buckets, patterns, a.config.Recommendations)

	return domain.AnalysisSummary{
		Source:             source,
		OverallSuccessRate: agg.OverallSuccessRate,
		TotalTests:         agg.TotalTests,
		TotalPassed:        agg.TotalPassed,
		TotalFailed:        agg.TotalFailed,
		SkippedRecords:     skipped,
		TotalCost:          agg.TotalCost,
		TotalTokens:        agg.TotalTokens,
		PerModel:           agg.PerModel,
		PerTest:            agg.PerTest,
		WorstErrors:        buckets,
		ErrorPatterns:      patterns,
		Recommendations:    recs,
		CostEfficiency:     CostEfficiencyOf(agg.PerModel),
	}
}

// Analyze computes the summary for one parse result inside a trace span and
// records run metrics. The summary is identical to Summarize's.
func (a *Analyzer) Analyze(ctx context.Context, source string, res parser.Result) domain.AnalysisSummary {
	start := time.Now()
	_, span := a.tracer.Start(ctx, "Analyzer.Analyze", trace.WithAttributes(
		attribute.String("analysis.source", source),
		attribute.Int("analysis.records", len(res.Records)),
		attribute.Int("analysis.skipped", res.Skipped),
	))
	defer span.End()

	summary := a.Summarize(source, res.Records, res.Skipped)

	span.SetAttributes(
		attribute.Float64("analysis.success_rate", summary.OverallSuccessRate),
		attribute.Float64("analysis.total_cost", summary.TotalCost),
		attribute.Int("analysis.models", len(summary.PerModel)),
		attribute.Int("analysis.failures", summary.TotalFailed),
	)
	for _, w := range res.Warnings {
		span.AddEvent("record.skipped", trace.WithAttributes(
			attribute.Int("index", w.Index),
			attribute.String("reason", w.Reason),
		))
	}

	a.record(source, res, summary, time.Since(start))
	return summary
}

func (a *Analyzer) record(source string, res parser.Result, s domain.AnalysisSummary, elapsed time.Duration) {
	labels := map[string]string{"source": source}
	a.metrics.RecordLatency("analysis", elapsed, labels)
	a.metrics.RecordCounter("records_parsed_total", float64(len(res.Records)), labels)
	a.metrics.RecordCounter("records_skipped_total", float64(res.Skipped), labels)

	for _, b := range s.WorstErrors {
		a.metrics.RecordCounter("failures_total", float64(b.Count), map[string]string{
			"source":   source,
			"category": b.Category.String(),
		})
	}
	for _, m := range s.PerModel {
		ml := map[string]string{"source": source, "model": m.Model}
		a.metrics.RecordGauge("model_success_rate", m.SuccessRate, ml)
		a.metrics.RecordGauge("model_total_cost", m.TotalCost, ml)
	}
	for _, r := range res.Records {
		if r.LatencyMs != nil {
			a.metrics.RecordHistogram("record_latency_ms", *r.LatencyMs, map[string]string{"model": r.Model})
		}
	}
}
