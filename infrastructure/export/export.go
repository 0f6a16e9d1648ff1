// Package export persists analysis summaries as JSON, YAML, CSV or DuckDB
// artifacts. Every exporter implements ports.Exporter.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ahrav/go-tally/internal/ports"
)

// Supported format names.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatCSV    = "csv"
	FormatDuckDB = "duckdb"
)

var factories = map[string]func() ports.Exporter{
	FormatJSON:   func() ports.Exporter { return &JSONExporter{} },
	FormatYAML:   func() ports.Exporter { return &YAMLExporter{} },
	FormatCSV:    func() ports.Exporter { return &CSVExporter{} },
	FormatDuckDB: func() ports.Exporter { return &DuckDBExporter{} },
}

// New returns the exporter for format. Format names are case-insensitive;
// "yml" is accepted for YAML. Unknown names return an error matching
// ports.ErrUnsupportedFormat.
func New(format string) (ports.Exporter, error) {
	name := strings.ToLower(strings.TrimSpace(format))
	if name == "yml" {
		name = FormatYAML
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ports.ErrUnsupportedFormat, format, strings.Join(Formats(), ", "))
	}
	return factory(), nil
}

// Formats lists the supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// writeFile replaces path with data, creating parent directories.
// The content is written to a temporary sibling first so readers never
// observe a partial artifact.
func writeFile(path string, data []byte) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
