package export

import (
	"context"
	"encoding/json"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
	"github.com/ahrav/go-tally/internal/report"
)

// JSONExporter writes the structured summary as indented JSON with sorted
// keys.
type JSONExporter struct{}

var _ ports.Exporter = (*JSONExporter)(nil)

// Format implements ports.Exporter.
func (*JSONExporter) Format() string { return FormatJSON }

// Export implements ports.Exporter.
func (e *JSONExporter) Export(ctx context.Context, summary domain.AnalysisSummary, path string) error {
	if err := ctx.Err(); err != nil {
		return ports.NewExportError(FormatJSON, path, err)
	}
	data, err := json.MarshalIndent(report.Structured(summary), "", "  ")
	if err != nil {
		return ports.NewExportError(FormatJSON, path, err)
	}
	if err := writeFile(path, append(data, '\n')); err != nil {
		return ports.NewExportError(FormatJSON, path, err)
	}
	return nil
}
