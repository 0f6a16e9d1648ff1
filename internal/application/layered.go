package application

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/ahrav/go-tally/internal/ports"
)

// EnvPrefix prefixes environment overrides, e.g. TALLY_REPORT_FORMAT.
const EnvPrefix = "TALLY"

// NewViper returns a viper instance seeded with DefaultConfig and bound to
// TALLY_* environment variables. Callers bind command-line flags to it
// before calling LoadLayered; flag values win over env, env over file,
// file over defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("workers", cfg.Workers)

	v.SetDefault("analysis.example_limit", cfg.Analysis.ExampleLimit)
	v.SetDefault("analysis.pattern_threshold", cfg.Analysis.PatternThreshold)
	v.SetDefault("analysis.pattern_similarity", cfg.Analysis.PatternSimilarity)
	v.SetDefault("analysis.pattern_test_limit", cfg.Analysis.PatternTestLimit)
	v.SetDefault("analysis.low_success_rate", cfg.Analysis.LowSuccessRate)
	v.SetDefault("analysis.cost_spread", cfg.Analysis.CostSpread)
	v.SetDefault("analysis.reliability_share", cfg.Analysis.ReliabilityShare)

	v.SetDefault("report.title", cfg.Report.Title)
	v.SetDefault("report.include_timestamp", cfg.Report.IncludeTimestamp)
	v.SetDefault("report.time_format", cfg.Report.TimeFormat)
	v.SetDefault("report.currency_symbol", cfg.Report.CurrencySymbol)
	v.SetDefault("report.worst_tests", cfg.Report.WorstTests)
	v.SetDefault("report.format", cfg.Report.Format)
	v.SetDefault("report.styled", cfg.Report.Styled)
	v.SetDefault("report.width", cfg.Report.Width)

	v.SetDefault("export.path", cfg.Export.Path)
	v.SetDefault("export.format", cfg.Export.Format)
}

// LoadLayered resolves the configuration from v, reading the YAML file at
// path first when it is non-empty. Unknown keys in the file are rejected.
// The result is validated; every failure matches
// domain.ErrInvalidConfiguration.
func LoadLayered(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				return Config{}, ports.NewConfigError("file", fmt.Errorf("%w: %s", ports.ErrConfigNotFound, path))
			}
			return Config{}, ports.NewConfigError("file", err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, ports.NewConfigError("decode", err)
	}
	cfg.Report.Format = normalizeFormat(cfg.Report.Format)
	cfg.Export.Format = normalizeFormat(cfg.Export.Format)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
