package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// CSVExporter writes the per-model table: one header row and one row per
// model in summary order, followed by a failure count column per error
// category.
type CSVExporter struct{}

var _ ports.Exporter = (*CSVExporter)(nil)

// Format implements ports.Exporter.
func (*CSVExporter) Format() string { return FormatCSV }

// CSVHeader returns the header row written by CSVExporter.
func CSVHeader() []string {
	header := []string{
		"model", "total", "passed", "failed", "success_rate",
		"total_cost", "avg_latency_ms", "total_tokens", "cost_per_success",
	}
	for _, cat := range domain.AllCategories() {
		header = append(header, "failures_"+cat.String())
	}
	return header
}

// Export implements ports.Exporter.
func (e *CSVExporter) Export(ctx context.Context, summary domain.AnalysisSummary, path string) error {
	if err := ctx.Err(); err != nil {
		return ports.NewExportError(FormatCSV, path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader()); err != nil {
		return ports.NewExportError(FormatCSV, path, err)
	}
	for _, m := range summary.PerModel {
		if err := w.Write(modelRow(m)); err != nil {
			return ports.NewExportError(FormatCSV, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ports.NewExportError(FormatCSV, path, err)
	}

	if err := writeFile(path, buf.Bytes()); err != nil {
		return ports.NewExportError(FormatCSV, path, err)
	}
	return nil
}

func modelRow(m domain.ModelStats) []string {
	row := []string{
		m.Model,
		strconv.Itoa(m.Total),
		strconv.Itoa(m.Passed),
		strconv.Itoa(m.Failed),
		formatFloat(m.SuccessRate),
		formatFloat(m.TotalCost),
		formatOptional(m.AvgLatency),
		strconv.Itoa(m.TotalTokens),
		formatOptional(m.CostPerSuccess),
	}
	for _, cat := range domain.AllCategories() {
		row = append(row, strconv.Itoa(m.ErrorBreakdown[cat]))
	}
	return row
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// formatOptional renders absent values as an empty cell.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
