package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/analysis"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
	"github.com/ahrav/go-tally/internal/report"
)

// Config is the complete configuration of an analysis run and serves as
// the entry point for both YAML files and layered (viper) loading.
// Every zero-safe default comes from DefaultConfig.
type Config struct {
	// Analysis tunes classification, pattern detection and findings.
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	// Report controls how summaries are rendered.
	Report ReportConfig `yaml:"report" mapstructure:"report"`
	// Export configures optional artifact persistence.
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	// Workers bounds concurrent file analyses in batch mode.
	// Zero selects GOMAXPROCS.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0,lte=256"`
}

// AnalysisConfig holds the thresholds consumed by the analysis package.
type AnalysisConfig struct {
	// ExampleLimit bounds example test ids kept per error bucket.
	ExampleLimit int `yaml:"example_limit" mapstructure:"example_limit" validate:"gte=1,lte=100"`
	// PatternThreshold is the minimum group size reported as a pattern.
	PatternThreshold int `yaml:"pattern_threshold" mapstructure:"pattern_threshold" validate:"gte=1,lte=10000"`
	// PatternSimilarity is the Levenshtein similarity in (0, 1] at which
	// two failure messages are grouped.
	PatternSimilarity float64 `yaml:"pattern_similarity" mapstructure:"pattern_similarity" validate:"gt=0,lte=1"`
	// PatternTestLimit bounds the affected tests listed per pattern.
	PatternTestLimit int `yaml:"pattern_test_limit" mapstructure:"pattern_test_limit" validate:"gte=1,lte=1000"`
	// LowSuccessRate triggers the success rate finding.
	LowSuccessRate float64 `yaml:"low_success_rate" mapstructure:"low_success_rate" validate:"gte=0,lte=1"`
	// CostSpread triggers the cost optimization finding.
	CostSpread float64 `yaml:"cost_spread" mapstructure:"cost_spread" validate:"gte=1"`
	// ReliabilityShare triggers the reliability finding.
	ReliabilityShare float64 `yaml:"reliability_share" mapstructure:"reliability_share" validate:"gt=0,lte=1"`
	// Rules are classification rules consulted before the built-in ones.
	Rules []RuleConfig `yaml:"rules" mapstructure:"rules" validate:"max=100,dive"`
}

// RuleConfig is a user-supplied classification rule.
type RuleConfig struct {
	// Category is an error category name such as "rate_limit".
	Category string `yaml:"category" mapstructure:"category" validate:"required,category"`
	// Pattern is a case-insensitive regular expression matched against
	// failure text.
	Pattern string `yaml:"pattern" mapstructure:"pattern" validate:"required,max=1000,regexp"`
}

// ReportConfig controls text rendering and the CLI output format.
type ReportConfig struct {
	Title            string `yaml:"title" mapstructure:"title" validate:"max=200"`
	IncludeTimestamp bool   `yaml:"include_timestamp" mapstructure:"include_timestamp"`
	TimeFormat       string `yaml:"time_format" mapstructure:"time_format" validate:"max=64"`
	CurrencySymbol   string `yaml:"currency_symbol" mapstructure:"currency_symbol" validate:"max=8"`
	WorstTests       int    `yaml:"worst_tests" mapstructure:"worst_tests" validate:"gte=1,lte=100"`
	Format           string `yaml:"format" mapstructure:"format" validate:"oneof=text json yaml"`
	Styled           bool   `yaml:"styled" mapstructure:"styled"`
	Width            int    `yaml:"width" mapstructure:"width" validate:"gte=0,lte=1000"`
}

// ExportConfig selects where and how summaries are persisted.
// An empty Path disables export.
type ExportConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json yaml csv duckdb"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	ac := analysis.DefaultConfig()
	rc := report.DefaultConfig()
	return Config{
		Analysis: AnalysisConfig{
			ExampleLimit:      ac.ExampleLimit,
			PatternThreshold:  ac.Patterns.Threshold,
			PatternSimilarity: ac.Patterns.Similarity,
			PatternTestLimit:  ac.Patterns.TestLimit,
			LowSuccessRate:    ac.Recommendations.LowSuccessRate,
			CostSpread:        ac.Recommendations.CostSpread,
			ReliabilityShare:  ac.Recommendations.ReliabilityShare,
		},
		Report: ReportConfig{
			Title:            rc.Title,
			IncludeTimestamp: rc.IncludeTimestamp,
			TimeFormat:       rc.TimeFormat,
			CurrencySymbol:   rc.CurrencySymbol,
			WorstTests:       rc.WorstTests,
			Format:           "text",
		},
		Export: ExportConfig{Format: "json"},
	}
}

// AnalysisOptions converts the configuration into analysis.Config,
// compiling user rules. It returns a ConfigError for rules that fail to
// compile, which Validate would also have rejected.
func (c Config) AnalysisOptions() (analysis.Config, error) {
	rules := make([]analysis.Rule, 0, len(c.Analysis.Rules))
	for i, rc := range c.Analysis.Rules {
		cat, err := domain.ParseErrorCategory(rc.Category)
		if err != nil {
			return analysis.Config{}, ports.NewConfigError(fmt.Sprintf("analysis.rules[%d].category", i), err)
		}
		rule, err := analysis.NewRule(cat, rc.Pattern)
		if err != nil {
			return analysis.Config{}, ports.NewConfigError(fmt.Sprintf("analysis.rules[%d].pattern", i), err)
		}
		rules = append(rules, rule)
	}

	return analysis.Config{
		ExampleLimit: c.Analysis.ExampleLimit,
		Patterns: analysis.PatternOptions{
			Threshold:  c.Analysis.PatternThreshold,
			Similarity: c.Analysis.PatternSimilarity,
			TestLimit:  c.Analysis.PatternTestLimit,
		},
		Recommendations: analysis.RecommendationOptions{
			LowSuccessRate:   c.Analysis.LowSuccessRate,
			CostSpread:       c.Analysis.CostSpread,
			ReliabilityShare: c.Analysis.ReliabilityShare,
		},
		Rules: rules,
	}, nil
}

// ReportOptions converts the configuration into report.Config.
func (c Config) ReportOptions() report.Config {
	rc := report.DefaultConfig()
	rc.Title = c.Report.Title
	rc.IncludeTimestamp = c.Report.IncludeTimestamp
	rc.TimeFormat = c.Report.TimeFormat
	rc.CurrencySymbol = c.Report.CurrencySymbol
	rc.WorstTests = c.Report.WorstTests
	return rc
}

// LoadConfigFile reads a YAML configuration file in strict mode on top of
// DefaultConfig and validates the result. Unknown keys are errors so typos
// never pass silently.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, ports.NewConfigError("file", fmt.Errorf("%w: %s", ports.ErrConfigNotFound, path))
		}
		return Config{}, ports.NewConfigError("file", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration bytes over DefaultConfig and
// validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, ports.NewConfigError("yaml", fmt.Errorf("YAML decode failed: %w", err))
	}
	cfg.Report.Format = normalizeFormat(cfg.Report.Format)
	cfg.Export.Format = normalizeFormat(cfg.Export.Format)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalizeFormat lowercases user-supplied format names.
func normalizeFormat(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
