// Package application orchestrates loading, analysis, rendering and export
// for the tally CLI.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/analysis"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
	"github.com/ahrav/go-tally/internal/report"
)

// ExporterFactory resolves an exporter by format name. It returns an
// error matching ports.ErrUnsupportedFormat for unknown formats.
type ExporterFactory func(format string) (ports.Exporter, error)

// Service wires loading, analysis, rendering and export for one
// configuration. It is the single entry point used by the CLI.
type Service struct {
	config    Config
	analyzer  *analysis.Analyzer
	renderer  *report.Renderer
	loader    *InputLoader
	files     analysis.Loader
	exporters ExporterFactory
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLoaderMiddleware wraps the file loader, e.g. with tracing.
// Middleware applies in order, so the last one is outermost.
func WithLoaderMiddleware(mw ...func(analysis.Loader) analysis.Loader) ServiceOption {
	return func(s *Service) {
		for _, m := range mw {
			s.files = m(s.files)
		}
	}
}

// NewService builds a Service from a validated configuration.
// A nil metrics collector disables metrics; a nil exporter factory
// disables export.
func NewService(cfg Config, metrics ports.MetricsCollector, exporters ExporterFactory, opts ...ServiceOption) (*Service, error) {
	ac, err := cfg.AnalysisOptions()
	if err != nil {
		return nil, err
	}
	loader := NewInputLoader()
	s := &Service{
		config:    cfg,
		analyzer:  analysis.New(ac, analysis.WithMetrics(metrics)),
		renderer:  report.NewRenderer(cfg.ReportOptions()),
		loader:    loader,
		files:     loader,
		exporters: exporters,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AnalyzeFile loads and analyzes a single input file.
func (s *Service) AnalyzeFile(ctx context.Context, path string) (domain.AnalysisSummary, error) {
	res, err := s.files.Load(ctx, path)
	if err != nil {
		return domain.AnalysisSummary{}, err
	}
	return s.analyzer.Analyze(ctx, path, res), nil
}

// AnalyzeReader analyzes a payload read from r, labelled with source.
func (s *Service) AnalyzeReader(ctx context.Context, source string, r io.Reader) (domain.AnalysisSummary, error) {
	res, err := s.loader.LoadFromReader(ctx, source, r)
	if err != nil {
		return domain.AnalysisSummary{}, err
	}
	return s.analyzer.Analyze(ctx, source, res), nil
}

// Compare analyzes every path independently and then merges the results.
// Per-file analyses keep the order of paths.
func (s *Service) Compare(ctx context.Context, paths []string) ([]analysis.FileAnalysis, domain.AnalysisSummary, error) {
	files, err := s.analyzer.AnalyzeFiles(ctx, s.files, paths, s.config.Workers)
	if err != nil {
		return nil, domain.AnalysisSummary{}, err
	}
	return files, s.analyzer.Merge("combined", files), nil
}

// Render formats the summary according to the configured output format.
func (s *Service) Render(summary domain.AnalysisSummary) (string, error) {
	switch s.config.Report.Format {
	case "json":
		out, err := json.MarshalIndent(report.Structured(summary), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode summary: %w", err)
		}
		return string(out) + "\n", nil
	case "yaml":
		out, err := yaml.Marshal(report.Structured(summary))
		if err != nil {
			return "", fmt.Errorf("failed to encode summary: %w", err)
		}
		return string(out), nil
	default:
		if s.config.Report.Styled {
			return s.renderer.Styled(summary, s.config.Report.Width) + "\n", nil
		}
		return s.renderer.Text(summary), nil
	}
}

// Export persists the summary when an export path is configured.
// It returns nil without side effects otherwise.
func (s *Service) Export(ctx context.Context, summary domain.AnalysisSummary) error {
	if s.config.Export.Path == "" {
		return nil
	}
	if s.exporters == nil {
		return ports.NewExportError(s.config.Export.Format, s.config.Export.Path, ports.ErrUnsupportedFormat)
	}
	exp, err := s.exporters(s.config.Export.Format)
	if err != nil {
		return ports.NewExportError(s.config.Export.Format, s.config.Export.Path, err)
	}
	return exp.Export(ctx, summary, s.config.Export.Path)
}

// Config returns the service configuration.
func (s *Service) Config() Config { return s.config }
