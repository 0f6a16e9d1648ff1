// Package report renders an AnalysisSummary for people and for
// presentation layers. It only formats; every number it prints was derived
// by the analysis package.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Section headers of the text report, in output order.
const (
	SectionExecutiveSummary = "EXECUTIVE SUMMARY"
	SectionFindings         = "KEY FINDINGS & RECOMMENDATIONS"
	SectionModels           = "MODEL PERFORMANCE COMPARISON"
	SectionErrors           = "ERROR ANALYSIS"
	SectionCost             = "COST ANALYSIS"
)

const (
	defaultTitle          = "Evaluation Analysis Report"
	defaultTimeFormat     = "2006-01-02 15:04:05"
	defaultCurrencySymbol = "$"
	defaultWorstTests     = 5
)

// Config controls rendering. It is passed explicitly to every Renderer so
// concurrent renders never share formatting state.
type Config struct {
	// Title appears on the first header line.
	Title string

	// IncludeTimestamp adds a "Generated on:" header line. Header lines are
	// never part of Body.
	IncludeTimestamp bool

	// Now supplies the timestamp; time.Now when nil.
	Now func() time.Time

	// TimeFormat formats the timestamp.
	TimeFormat string

	// CurrencySymbol prefixes cost values.
	CurrencySymbol string

	// WorstTests bounds the failing test cases listed per report.
	WorstTests int
}

// DefaultConfig returns the stock rendering configuration.
func DefaultConfig() Config {
	return Config{
		Title:            defaultTitle,
		IncludeTimestamp: true,
		Now:              time.Now,
		TimeFormat:       defaultTimeFormat,
		CurrencySymbol:   defaultCurrencySymbol,
		WorstTests:       defaultWorstTests,
	}
}

// Renderer formats summaries according to its Config.
type Renderer struct {
	config Config
}

// NewRenderer creates a Renderer. Empty config fields take their defaults.
func NewRenderer(cfg Config) *Renderer {
	def := DefaultConfig()
	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = def.TimeFormat
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = def.CurrencySymbol
	}
	if cfg.WorstTests <= 0 {
		cfg.WorstTests = def.WorstTests
	}
	return &Renderer{config: cfg}
}

// Header returns the header lines, terminated by a blank line.
func (r *Renderer) Header() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", r.config.Title)
	if r.config.IncludeTimestamp {
		fmt.Fprintf(&b, "Generated on: %s\n", r.config.Now().Format(r.config.TimeFormat))
	}
	b.WriteString("\n")
	return b.String()
}

func (r *Renderer) money(v float64) string {
	return fmt.Sprintf("%s%.4f", r.config.CurrencySymbol, v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func latency(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1fms", *v)
}
