package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-tally/internal/analysis"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/parser"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ analysis.Loader = (*TracingLoader)(nil)

// TracingLoader wraps an analysis.Loader with an OpenTelemetry span per
// input and load metrics. Failed loads mark the span as errored and count
// the failure under its diagnostic category.
type TracingLoader struct {
	next    analysis.Loader
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewTracingLoader creates a tracing decorator around next. A nil metrics
// collector disables metrics.
func NewTracingLoader(next analysis.Loader, metrics ports.MetricsCollector) *TracingLoader {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &TracingLoader{
		next:    next,
		metrics: metrics,
		tracer:  otel.Tracer("tally-loader"),
	}
}

// Load implements analysis.Loader.
func (l *TracingLoader) Load(ctx context.Context, path string) (parser.Result, error) {
	ctx, span := l.tracer.Start(ctx, "Loader.Load", trace.WithAttributes(
		attribute.String("input.path", path),
	))
	defer span.End()

	start := time.Now()
	res, err := l.next.Load(ctx, path)
	elapsed := time.Since(start)

	l.metrics.RecordLatency("load", elapsed, map[string]string{"source": path})
	if err != nil {
		category := domain.FailureCategory(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.category", category))
		l.metrics.RecordCounter("load_errors_total", 1, map[string]string{"category": category})
		return parser.Result{}, err
	}

	span.SetAttributes(
		attribute.Int("input.records", len(res.Records)),
		attribute.Int("input.skipped", res.Skipped),
	)
	if res.Skipped > 0 {
		span.AddEvent("records.skipped", trace.WithAttributes(
			attribute.Int("count", res.Skipped),
		))
	}
	span.SetStatus(codes.Ok, "")
	return res, nil
}
