package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ahrav/go-tally/internal/domain"
)

const (
	colorGood    = lipgloss.Color("46")
	colorWarn    = lipgloss.Color("214")
	colorBad     = lipgloss.Color("9")
	colorBorder  = lipgloss.Color("238")
	colorHeading = lipgloss.Color("62")
)

var styledColumns = []struct {
	title string
	width int
}{
	{"Model", 28},
	{"Success", 9},
	{"Tests", 11},
	{"Cost", 12},
	{"Cost/Pass", 12},
	{"Latency", 11},
}

// Styled renders a terminal view of the summary: a title banner, a model
// comparison table colored by success rate, and the findings list. Width
// bounds the findings block; values <= 0 leave it unwrapped.
func (r *Renderer) Styled(s domain.AnalysisSummary, width int) string {
	banner := lipgloss.NewStyle().
		Bold(true).
		Background(colorHeading).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1).
		Render(r.config.Title)

	faint := lipgloss.NewStyle().Faint(true)
	overview := faint.Render(fmt.Sprintf("%d tests, %s success, %s total cost, %d skipped",
		s.TotalTests, percent(s.OverallSuccessRate), r.money(s.TotalCost), s.SkippedRecords))

	blocks := []string{banner, overview, r.styledTable(s)}
	if findings := r.styledFindings(s, width); findings != "" {
		blocks = append(blocks, findings)
	}
	return lipgloss.NewStyle().Margin(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

func (r *Renderer) styledTable(s domain.AnalysisSummary) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorBorder)

	header := make([]string, len(styledColumns))
	for i, c := range styledColumns {
		header[i] = headerStyle.Width(c.width).Render(c.title)
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	for _, m := range s.PerModel {
		perSuccess := "n/a"
		if m.CostPerSuccess != nil {
			perSuccess = r.money(*m.CostPerSuccess)
		}
		values := []string{
			m.Model,
			percent(m.SuccessRate),
			fmt.Sprintf("%d/%d", m.Passed, m.Total),
			r.money(m.TotalCost),
			perSuccess,
			latency(m.AvgLatency),
		}
		cells := make([]string, len(values))
		for i, v := range values {
			style := lipgloss.NewStyle().Width(styledColumns[i].width)
			if i == 1 {
				style = style.Foreground(rateColor(m.SuccessRate))
			}
			cells[i] = style.Render(truncate(v, styledColumns[i].width-1))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	if len(s.PerModel) == 0 {
		rows = append(rows, lipgloss.NewStyle().Faint(true).Render("No results to compare."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (r *Renderer) styledFindings(s domain.AnalysisSummary, width int) string {
	if len(s.Recommendations) == 0 {
		return ""
	}
	var b strings.Builder
	for _, rec := range s.Recommendations {
		tag := lipgloss.NewStyle().Bold(true).Foreground(severityColor(rec.Severity)).
			Render(fmt.Sprintf("[%s]", rec.Severity))
		fmt.Fprintf(&b, "%s %s: %s\n", tag, rec.Category, rec.Finding)
	}
	style := lipgloss.NewStyle().MarginTop(1)
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func rateColor(rate float64) lipgloss.Color {
	switch {
	case rate >= 0.8:
		return colorGood
	case rate >= 0.5:
		return colorWarn
	default:
		return colorBad
	}
}

func severityColor(s domain.Severity) lipgloss.Color {
	switch s {
	case domain.SeverityHigh:
		return colorBad
	case domain.SeverityMedium:
		return colorWarn
	default:
		return colorGood
	}
}

func truncate(s string, n int) string {
	if n <= 0 || lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
