package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
}

func sampleSummary() domain.AnalysisSummary {
	return domain.AnalysisSummary{
		Source:             "run.json",
		OverallSuccessRate: 0.5,
		TotalTests:         2,
		TotalPassed:        1,
		TotalFailed:        1,
		TotalCost:          0.03,
		TotalTokens:        150,
		PerModel: []domain.ModelStats{{
			Model:          "gpt-4",
			Total:          2,
			Passed:         1,
			Failed:         1,
			SuccessRate:    0.5,
			TotalCost:      0.03,
			AvgLatency:     domain.Float64Ptr(250),
			TotalTokens:    150,
			CostPerSuccess: domain.Float64Ptr(0.03),
			ErrorBreakdown: map[domain.ErrorCategory]int{domain.CategoryTimeout: 1},
		}},
		PerTest: []domain.TestStats{
			{TestID: "2", Total: 1, Failed: 1, FailingModels: []string{"gpt-4"}},
			{TestID: "1", Total: 1, Passed: 1, SuccessRate: 1},
		},
		WorstErrors: []domain.ErrorBucket{
			{Category: domain.CategoryTimeout, Count: 1, ExampleTestIDs: []string{"2"}},
		},
		CostEfficiency: &domain.CostEfficiency{
			MostEfficient:       "gpt-4",
			MostCostPerSuccess:  0.03,
			LeastEfficient:      "gpt-4",
			LeastCostPerSuccess: 0.03,
		},
	}
}

const goldenBody = `EXECUTIVE SUMMARY
-----------------
Source: run.json
Overall Success Rate: 50.0%
Total Tests Run: 2
Passed: 1
Failed: 1
Skipped Records: 0
Models Evaluated: 1
Total Cost: $0.0300
Total Tokens: 150

KEY FINDINGS & RECOMMENDATIONS
------------------------------
No significant issues detected.

MODEL PERFORMANCE COMPARISON
----------------------------
gpt-4:
  • Success Rate: 50.0%
  • Tests Run: 2 (1 passed, 1 failed)
  • Total Cost: $0.0300
  • Avg Latency: 250.0ms
  • Tokens Used: 150
  • Errors: timeout=1

Most Failed Test Cases:
  • Test 2: 0.0% success (0/1), failing: gpt-4

ERROR ANALYSIS
--------------
Failures by Category:
  • timeout: 1 (examples: 2)

COST ANALYSIS
-------------
Total Cost: $0.0300
  • gpt-4: $0.0300 total, $0.0300 per success
Most Cost-Effective: gpt-4 ($0.0300 per success)
Least Cost-Effective: gpt-4 ($0.0300 per success)
Cost-per-Success Range: $0.0000
`

func TestBody_Golden(t *testing.T) {
	r := NewRenderer(Config{Now: fixedClock})
	assert.Equal(t, goldenBody, r.Body(sampleSummary()))
}

func TestBody_Idempotent(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	s := sampleSummary()
	assert.Equal(t, r.Body(s), r.Body(s))
}

func TestText_Header(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "with timestamp",
			config: Config{IncludeTimestamp: true, Now: fixedClock},
			want:   "=== Evaluation Analysis Report ===\nGenerated on: 2024-03-05 14:30:00\n\n",
		},
		{
			name:   "without timestamp",
			config: Config{Title: "Nightly", Now: fixedClock},
			want:   "=== Nightly ===\n\n",
		},
		{
			name:   "custom time format",
			config: Config{IncludeTimestamp: true, Now: fixedClock, TimeFormat: time.RFC3339},
			want:   "=== Evaluation Analysis Report ===\nGenerated on: 2024-03-05T14:30:00Z\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(tt.config)
			text := r.Text(sampleSummary())
			assert.Equal(t, tt.want, r.Header())
			assert.True(t, strings.HasPrefix(text, tt.want))
			assert.Equal(t, goldenBody, strings.TrimPrefix(text, tt.want), "Timestamps belong only to the header")
		})
	}
}

func TestBody_EmptySummary(t *testing.T) {
	body := NewRenderer(DefaultConfig()).Body(domain.AnalysisSummary{PerModel: []domain.ModelStats{}})

	for _, header := range []string{SectionExecutiveSummary, SectionFindings, SectionModels, SectionErrors, SectionCost} {
		assert.Contains(t, body, header)
	}
	assert.Contains(t, body, "Overall Success Rate: 0.0%")
	assert.Contains(t, body, "No results to compare.")
	assert.Contains(t, body, "No failures recorded.")
	assert.NotContains(t, body, "Most Cost-Effective")
}

func TestBody_FindingsAndPatterns(t *testing.T) {
	s := sampleSummary()
	s.Recommendations = []domain.Recommendation{{
		Category: "Reliability",
		Severity: domain.SeverityMedium,
		Finding:  "100.0% of failures are timeout errors",
		Impact:   "Failures reflect provider capacity rather than model quality",
		Actions:  []string{"Lower evaluation concurrency"},
	}}
	s.ErrorPatterns = []domain.ErrorPattern{{
		Message:        "Request timed out after 30s",
		Category:       domain.CategoryTimeout,
		Frequency:      3,
		AffectedModels: []string{"gpt-4"},
		AffectedTests:  []string{"2"},
		ExampleVars:    map[string]string{"topic": "capitals", "city": "Paris"},
	}}

	body := NewRenderer(Config{CurrencySymbol: "€"}).Body(s)
	assert.Contains(t, body, "[Medium Priority] Reliability\nFinding: 100.0% of failures are timeout errors\n")
	assert.Contains(t, body, "  • Lower evaluation concurrency\n")
	assert.Contains(t, body, "Frequency: 3 occurrences\n")
	assert.Contains(t, body, "Example Test Variables:\n  • city: Paris\n  • topic: capitals\n",
		"Variables should be listed in key order")
	assert.Contains(t, body, "Total Cost: €0.0300")
}

func TestBody_WorstTestsLimit(t *testing.T) {
	s := sampleSummary()
	s.PerTest = nil
	for _, id := range []string{"a", "b", "c"} {
		s.PerTest = append(s.PerTest, domain.TestStats{TestID: id, Total: 1, Failed: 1})
	}

	body := NewRenderer(Config{WorstTests: 2}).Body(s)
	assert.Contains(t, body, "Test a:")
	assert.Contains(t, body, "Test b:")
	assert.NotContains(t, body, "Test c:")
}

func TestStructured(t *testing.T) {
	out := Structured(sampleSummary())

	assert.Equal(t, "run.json", out["source"])
	assert.Equal(t, 0.5, out["overall_success_rate"])
	assert.Equal(t, 2, out["total_tests"])

	perModel, ok := out["per_model"].([]any)
	require.True(t, ok)
	require.Len(t, perModel, 1)
	m := perModel[0].(map[string]any)
	assert.Equal(t, "gpt-4", m["model"])
	assert.Equal(t, 250.0, m["avg_latency"])
	assert.Equal(t, map[string]any{"timeout": 1}, m["error_breakdown"])

	worst := out["worst_errors"].([]any)
	assert.Equal(t, "timeout", worst[0].(map[string]any)["category"])

	ce, ok := out["cost_efficiency"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gpt-4", ce["most_efficient"])
}

func TestStructured_AbsentValues(t *testing.T) {
	s := sampleSummary()
	s.PerModel[0].AvgLatency = nil
	s.PerModel[0].CostPerSuccess = nil
	s.CostEfficiency = nil

	out := Structured(s)
	m := out["per_model"].([]any)[0].(map[string]any)
	assert.Nil(t, m["avg_latency"])
	assert.Nil(t, m["cost_per_success"])
	assert.Nil(t, out["cost_efficiency"])
	assert.Contains(t, m, "avg_latency", "Absent values should stay as explicit nil keys")
}

// TestStructured_PrimitivesOnly walks the structure and fails on any value
// that is not a map, slice or primitive.
func TestStructured_PrimitivesOnly(t *testing.T) {
	s := sampleSummary()
	s.ErrorPatterns = []domain.ErrorPattern{{Message: "x", AffectedModels: []string{"gpt-4"}}}
	s.Recommendations = []domain.Recommendation{{Category: "c", Severity: domain.SeverityHigh}}

	var walk func(path string, v any)
	walk = func(path string, v any) {
		switch val := v.(type) {
		case nil, string, float64, int, bool:
		case map[string]any:
			for k, child := range val {
				walk(path+"."+k, child)
			}
		case []any:
			for _, child := range val {
				walk(path+"[]", child)
			}
		default:
			t.Errorf("%s has non-primitive type %T", path, v)
		}
	}
	walk("$", Structured(s))
}

func TestStyled(t *testing.T) {
	s := sampleSummary()
	s.Recommendations = []domain.Recommendation{{
		Category: "Cost Optimization",
		Severity: domain.SeverityMedium,
		Finding:  "gpt-4 is significantly more expensive per successful test",
	}}

	out := NewRenderer(Config{Title: "Nightly"}).Styled(s, 80)
	assert.Contains(t, out, "Nightly")
	assert.Contains(t, out, "gpt-4")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "Cost/Pass")
}
