package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahrav/go-tally/infrastructure/export"
	"github.com/ahrav/go-tally/infrastructure/middleware"
	"github.com/ahrav/go-tally/internal/analysis"
	"github.com/ahrav/go-tally/internal/application"
	"github.com/ahrav/go-tally/internal/domain"
)

// options holds state shared by all subcommands.
type options struct {
	v           *viper.Viper
	configPath  string
	verbose     bool
	noTimestamp bool
	metricsFile string
	stdin       io.Reader
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	opts := &options{v: application.NewViper(), stdin: stdin}

	root := &cobra.Command{
		Use:           "tally",
		Short:         "Analyze LLM evaluation results",
		Long:          "tally summarizes evaluation result files: success rates, cost, latency, error categories and recommendations per model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	pf.BoolVar(&opts.noTimestamp, "no-timestamp", false, "omit the Generated on header line")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	pf.String("format", "text", "output format: text, json or yaml")
	pf.Bool("styled", false, "render a styled terminal view (text format only)")
	pf.Int("width", 0, "wrap width of the styled view")
	pf.String("export", "", "write the summary to this path")
	pf.String("export-format", "json", "export format: "+fmt.Sprint(export.Formats()))
	pf.Int("workers", 0, "concurrent file analyses (0 = GOMAXPROCS)")

	for key, flag := range map[string]string{
		"report.format": "format",
		"report.styled": "styled",
		"report.width":  "width",
		"export.path":   "export",
		"export.format": "export-format",
		"workers":       "workers",
	} {
		// BindPFlag only fails for a nil flag.
		_ = opts.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newAnalyzeCmd(opts), newCompareCmd(opts))
	return root
}

// logger returns the diagnostic logger writing to the command's stderr.
func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// runtime bundles what a subcommand needs to execute.
type runtime struct {
	svc      *application.Service
	registry *prometheus.Registry
	log      *slog.Logger
}

func (o *options) setup(cmd *cobra.Command) (*runtime, error) {
	log := o.logger(cmd)

	cfg, err := application.LoadLayered(o.v, o.configPath)
	if err != nil {
		return nil, err
	}
	if o.noTimestamp {
		cfg.Report.IncludeTimestamp = false
	}
	log.Debug("configuration loaded",
		"file", o.configPath,
		"format", cfg.Report.Format,
		"export", cfg.Export.Path,
		"rules", len(cfg.Analysis.Rules),
	)

	reg := prometheus.NewRegistry()
	metrics := middleware.NewPrometheusMetrics(reg)
	svc, err := application.NewService(cfg, metrics, export.New,
		application.WithLoaderMiddleware(func(next analysis.Loader) analysis.Loader {
			return middleware.NewTracingLoader(next, metrics)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &runtime{svc: svc, registry: reg, log: log}, nil
}

// emit renders summary, preceded by any extra per-file reports, exports
// the summary when configured and only then writes the reports, so a
// failed export prints nothing. The metrics file is written last.
func (o *options) emit(cmd *cobra.Command, rt *runtime, summary domain.AnalysisSummary, extra ...domain.AnalysisSummary) error {
	var out strings.Builder
	reports := make([]domain.AnalysisSummary, 0, len(extra)+1)
	reports = append(reports, extra...)
	for _, s := range append(reports, summary) {
		rendered, err := rt.svc.Render(s)
		if err != nil {
			return err
		}
		out.WriteString(rendered)
	}

	if err := rt.svc.Export(cmd.Context(), summary); err != nil {
		return err
	}
	if cfg := rt.svc.Config(); cfg.Export.Path != "" {
		rt.log.Info("summary exported", "path", cfg.Export.Path, "format", cfg.Export.Format)
	}

	if _, err := io.WriteString(cmd.OutOrStdout(), out.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if o.metricsFile != "" {
		if err := middleware.WriteTextfile(rt.registry, o.metricsFile); err != nil {
			return err
		}
		rt.log.Debug("metrics written", "path", o.metricsFile)
	}
	return nil
}
