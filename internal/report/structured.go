package report

import (
	"github.com/ahrav/go-tally/internal/domain"
)

// Structured converts a summary into nested maps and slices of primitives
// (string, float64, int, bool, nil) so a visualization layer can consume it
// without reparsing text. Keys mirror the summary's JSON field names.
func Structured(s domain.AnalysisSummary) map[string]any {
	perModel := make([]any, 0, len(s.PerModel))
	for _, m := range s.PerModel {
		perModel = append(perModel, modelMap(m))
	}

	perTest := make([]any, 0, len(s.PerTest))
	for _, t := range s.PerTest {
		perTest = append(perTest, map[string]any{
			"test_id":        t.TestID,
			"total":          t.Total,
			"passed":         t.Passed,
			"failed":         t.Failed,
			"success_rate":   t.SuccessRate,
			"failing_models": stringList(t.FailingModels),
		})
	}

	worst := make([]any, 0, len(s.WorstErrors))
	for _, b := range s.WorstErrors {
		worst = append(worst, map[string]any{
			"category":         b.Category.String(),
			"count":            b.Count,
			"example_test_ids": stringList(b.ExampleTestIDs),
		})
	}

	patterns := make([]any, 0, len(s.ErrorPatterns))
	for _, p := range s.ErrorPatterns {
		vars := make(map[string]any, len(p.ExampleVars))
		for k, v := range p.ExampleVars {
			vars[k] = v
		}
		patterns = append(patterns, map[string]any{
			"message":         p.Message,
			"category":        p.Category.String(),
			"frequency":       p.Frequency,
			"affected_models": stringList(p.AffectedModels),
			"affected_tests":  stringList(p.AffectedTests),
			"example_vars":    vars,
		})
	}

	recs := make([]any, 0, len(s.Recommendations))
	for _, r := range s.Recommendations {
		recs = append(recs, map[string]any{
			"category": r.Category,
			"severity": string(r.Severity),
			"finding":  r.Finding,
			"impact":   r.Impact,
			"actions":  stringList(r.Actions),
		})
	}

	var efficiency any
	if ce := s.CostEfficiency; ce != nil {
		efficiency = map[string]any{
			"most_efficient":         ce.MostEfficient,
			"most_cost_per_success":  ce.MostCostPerSuccess,
			"least_efficient":        ce.LeastEfficient,
			"least_cost_per_success": ce.LeastCostPerSuccess,
			"range":                  ce.Range,
		}
	}

	return map[string]any{
		"source":               s.Source,
		"overall_success_rate": s.OverallSuccessRate,
		"total_tests":          s.TotalTests,
		"total_passed":         s.TotalPassed,
		"total_failed":         s.TotalFailed,
		"skipped_records":      s.SkippedRecords,
		"total_cost":           s.TotalCost,
		"total_tokens":         s.TotalTokens,
		"per_model":            perModel,
		"per_test":             perTest,
		"worst_errors":         worst,
		"error_patterns":       patterns,
		"recommendations":      recs,
		"cost_efficiency":      efficiency,
	}
}

func modelMap(m domain.ModelStats) map[string]any {
	breakdown := make(map[string]any, len(m.ErrorBreakdown))
	for cat, n := range m.ErrorBreakdown {
		breakdown[cat.String()] = n
	}
	return map[string]any{
		"model":            m.Model,
		"total":            m.Total,
		"passed":           m.Passed,
		"failed":           m.Failed,
		"success_rate":     m.SuccessRate,
		"total_cost":       m.TotalCost,
		"avg_latency":      optional(m.AvgLatency),
		"total_tokens":     m.TotalTokens,
		"cost_per_success": optional(m.CostPerSuccess),
		"error_breakdown":  breakdown,
	}
}

// optional keeps absent values as nil rather than 0, so "no data" stays
// distinguishable from a zero measurement.
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
