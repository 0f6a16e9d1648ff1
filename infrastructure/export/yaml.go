package export

import (
	"bytes"
	"context"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
	"github.com/ahrav/go-tally/internal/report"
)

// YAMLExporter writes the structured summary as YAML.
type YAMLExporter struct{}

var _ ports.Exporter = (*YAMLExporter)(nil)

// Format implements ports.Exporter.
func (*YAMLExporter) Format() string { return FormatYAML }

// Export implements ports.Exporter.
func (e *YAMLExporter) Export(ctx context.Context, summary domain.AnalysisSummary, path string) error {
	if err := ctx.Err(); err != nil {
		return ports.NewExportError(FormatYAML, path, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(report.Structured(summary)); err != nil {
		return ports.NewExportError(FormatYAML, path, err)
	}
	if err := enc.Close(); err != nil {
		return ports.NewExportError(FormatYAML, path, err)
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return ports.NewExportError(FormatYAML, path, err)
	}
	return nil
}
