package ports

import (
	"errors"
	"fmt"

	"github.com/ahrav/go-tally/internal/domain"
)

// Common infrastructure errors that can occur while loading configuration
// or persisting analysis artifacts.
var (
	// ErrUnsupportedFormat indicates that no exporter handles the format.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// ExportError represents a failure to persist an analysis artifact.
type ExportError struct {
	// Format is the export format being written.
	Format string

	// Path is the destination of the artifact.
	Path string

	// Err is the underlying error that caused the export to fail.
	Err error
}

// Error implements the error interface for ExportError.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error: format=%s, path=%s, err=%v", e.Format, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error { return e.Err }

// NewExportError creates a new ExportError with the given details.
func NewExportError(format, path string, err error) *ExportError {
	return &ExportError{
		Format: format,
		Path:   path,
		Err:    err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error together with
// domain.ErrInvalidConfiguration so the CLI can categorize it.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrInvalidConfiguration}
	}
	return []error{domain.ErrInvalidConfiguration, e.Err}
}

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
