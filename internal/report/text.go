package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ahrav/go-tally/internal/domain"
)

// Text renders the full report: header lines followed by Body.
func (r *Renderer) Text(s domain.AnalysisSummary) string {
	return r.Header() + r.Body(s)
}

// Body renders the report content without header lines. It is byte-stable
// for identical summaries and is what golden comparisons should use.
func (r *Renderer) Body(s domain.AnalysisSummary) string {
	var b strings.Builder
	r.writeExecutiveSummary(&b, s)
	r.writeFindings(&b, s)
	r.writeModels(&b, s)
	r.writeErrors(&b, s)
	r.writeCost(&b, s)
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", len(title)))
	b.WriteString("\n")
}

func (r *Renderer) writeExecutiveSummary(b *strings.Builder, s domain.AnalysisSummary) {
	section(b, SectionExecutiveSummary)
	if s.Source != "" {
		fmt.Fprintf(b, "Source: %s\n", s.Source)
	}
	fmt.Fprintf(b, "Overall Success Rate: %s\n", percent(s.OverallSuccessRate))
	fmt.Fprintf(b, "Total Tests Run: %d\n", s.TotalTests)
	fmt.Fprintf(b, "Passed: %d\n", s.TotalPassed)
	fmt.Fprintf(b, "Failed: %d\n", s.TotalFailed)
	fmt.Fprintf(b, "Skipped Records: %d\n", s.SkippedRecords)
	fmt.Fprintf(b, "Models Evaluated: %d\n", len(s.PerModel))
	fmt.Fprintf(b, "Total Cost: %s\n", r.money(s.TotalCost))
	fmt.Fprintf(b, "Total Tokens: %d\n", s.TotalTokens)
	b.WriteString("\n")
}

func (r *Renderer) writeFindings(b *strings.Builder, s domain.AnalysisSummary) {
	section(b, SectionFindings)
	if len(s.Recommendations) == 0 {
		b.WriteString("No significant issues detected.\n\n")
		return
	}
	for _, rec := range s.Recommendations {
		fmt.Fprintf(b, "[%s Priority] %s\n", rec.Severity, rec.Category)
		fmt.Fprintf(b, "Finding: %s\n", rec.Finding)
		fmt.Fprintf(b, "Impact: %s\n", rec.Impact)
		b.WriteString("Recommended Actions:\n")
		for _, action := range rec.Actions {
			fmt.Fprintf(b, "  • %s\n", action)
		}
		b.WriteString("\n")
	}
}

func (r *Renderer) writeModels(b *strings.Builder, s domain.AnalysisSummary) {
	section(b, SectionModels)
	if len(s.PerModel) == 0 {
		b.WriteString("No results to compare.\n\n")
		return
	}
	for _, m := range s.PerModel {
		fmt.Fprintf(b, "%s:\n", m.Model)
		fmt.Fprintf(b, "  • Success Rate: %s\n", percent(m.SuccessRate))
		fmt.Fprintf(b, "  • Tests Run: %d (%d passed, %d failed)\n", m.Total, m.Passed, m.Failed)
		fmt.Fprintf(b, "  • Total Cost: %s\n", r.money(m.TotalCost))
		fmt.Fprintf(b, "  • Avg Latency: %s\n", latency(m.AvgLatency))
		if m.TotalTokens > 0 {
			fmt.Fprintf(b, "  • Tokens Used: %d\n", m.TotalTokens)
		}
		if bd := breakdown(m.ErrorBreakdown); bd != "" {
			fmt.Fprintf(b, "  • Errors: %s\n", bd)
		}
		b.WriteString("\n")
	}

	var worst []domain.TestStats
	for _, t := range s.PerTest {
		if t.Failed == 0 {
			continue
		}
		worst = append(worst, t)
		if len(worst) == r.config.WorstTests {
			break
		}
	}
	if len(worst) > 0 {
		b.WriteString("Most Failed Test Cases:\n")
		for _, t := range worst {
			fmt.Fprintf(b, "  • Test %s: %s success (%d/%d), failing: %s\n",
				t.TestID, percent(t.SuccessRate), t.Passed, t.Total, strings.Join(t.FailingModels, ", "))
		}
		b.WriteString("\n")
	}
}

// breakdown renders category counts in category declaration order.
func breakdown(m map[domain.ErrorCategory]int) string {
	var parts []string
	for _, cat := range domain.AllCategories() {
		if n := m[cat]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", cat, n))
		}
	}
	return strings.Join(parts, ", ")
}

func (r *Renderer) writeErrors(b *strings.Builder, s domain.AnalysisSummary) {
	section(b, SectionErrors)
	if len(s.WorstErrors) == 0 {
		b.WriteString("No failures recorded.\n\n")
		return
	}
	b.WriteString("Failures by Category:\n")
	for _, bucket := range s.WorstErrors {
		fmt.Fprintf(b, "  • %s: %d (examples: %s)\n",
			bucket.Category, bucket.Count, strings.Join(bucket.ExampleTestIDs, ", "))
	}
	b.WriteString("\n")

	for _, p := range s.ErrorPatterns {
		fmt.Fprintf(b, "Error: %s\n", p.Message)
		fmt.Fprintf(b, "Category: %s\n", p.Category)
		fmt.Fprintf(b, "Frequency: %d occurrences\n", p.Frequency)
		fmt.Fprintf(b, "Affected Models: %s\n", strings.Join(p.AffectedModels, ", "))
		fmt.Fprintf(b, "Affected Tests: %s\n", strings.Join(p.AffectedTests, ", "))
		if len(p.ExampleVars) > 0 {
			b.WriteString("Example Test Variables:\n")
			keys := make([]string, 0, len(p.ExampleVars))
			for k := range p.ExampleVars {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(b, "  • %s: %s\n", k, p.ExampleVars[k])
			}
		}
		b.WriteString("\n")
	}
}

func (r *Renderer) writeCost(b *strings.Builder, s domain.AnalysisSummary) {
	section(b, SectionCost)
	fmt.Fprintf(b, "Total Cost: %s\n", r.money(s.TotalCost))
	for _, m := range s.PerModel {
		perSuccess := "n/a"
		if m.CostPerSuccess != nil {
			perSuccess = r.money(*m.CostPerSuccess)
		}
		fmt.Fprintf(b, "  • %s: %s total, %s per success\n", m.Model, r.money(m.TotalCost), perSuccess)
	}
	if ce := s.CostEfficiency; ce != nil {
		fmt.Fprintf(b, "Most Cost-Effective: %s (%s per success)\n", ce.MostEfficient, r.money(ce.MostCostPerSuccess))
		fmt.Fprintf(b, "Least Cost-Effective: %s (%s per success)\n", ce.LeastEfficient, r.money(ce.LeastCostPerSuccess))
		fmt.Fprintf(b, "Cost-per-Success Range: %s\n", r.money(ce.Range))
	}
}
