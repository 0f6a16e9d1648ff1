package analysis

import (
	"slices"
	"strings"

	"github.com/ahrav/go-tally/internal/domain"
)

// Aggregates holds the metrics folded from one canonical record set.
type Aggregates struct {
	PerModel           []domain.ModelStats
	PerTest            []domain.TestStats
	TotalTests         int
	TotalPassed        int
	TotalFailed        int
	TotalCost          float64
	TotalTokens        int
	OverallSuccessRate float64
}

type modelAcc struct {
	total, passed int
	cost          float64
	latencySum    float64
	latencyCount  int
	tokens        int
	breakdown     map[domain.ErrorCategory]int
}

type testAcc struct {
	total, passed int
	failing       map[string]struct{}
}

// Aggregate folds records into per-model, per-test and global statistics.
// Failed records are bucketed with classify for the per-model error
// breakdown. The first pass only accumulates counters; rates and averages
// are derived afterwards so empty groups never divide by zero.
func Aggregate(records []domain.CanonicalRecord, classify func(domain.CanonicalRecord) domain.ErrorCategory) Aggregates {
	models := make(map[string]*modelAcc)
	tests := make(map[string]*testAcc)
	var agg Aggregates

	for _, r := range records {
		m, ok := models[r.Model]
		if !ok {
			m = &modelAcc{breakdown: make(map[domain.ErrorCategory]int)}
			models[r.Model] = m
		}
		t, ok := tests[r.TestID]
		if !ok {
			t = &testAcc{failing: make(map[string]struct{})}
			tests[r.TestID] = t
		}

		m.total++
		t.total++
		m.cost += r.Cost
		m.tokens += r.TotalTokens
		if r.LatencyMs != nil {
			m.latencySum += *r.LatencyMs
			m.latencyCount++
		}
		if r.Passed {
			m.passed++
			t.passed++
		} else {
			m.breakdown[classify(r)]++
			t.failing[r.Model] = struct{}{}
		}

		agg.TotalTests++
		agg.TotalCost += r.Cost
		agg.TotalTokens += r.TotalTokens
		if r.Passed {
			agg.TotalPassed++
		}
	}

	agg.TotalFailed = agg.TotalTests - agg.TotalPassed
	agg.OverallSuccessRate = rate(agg.TotalPassed, agg.TotalTests)

	agg.PerModel = make([]domain.ModelStats, 0, len(models))
	for name, m := range models {
		stats := domain.ModelStats{
			Model:          name,
			Total:          m.total,
			Passed:         m.passed,
			Failed:         m.total - m.passed,
			SuccessRate:    rate(m.passed, m.total),
			TotalCost:      m.cost,
			TotalTokens:    m.tokens,
			ErrorBreakdown: m.breakdown,
		}
		if m.latencyCount > 0 {
			stats.AvgLatency = domain.Float64Ptr(m.latencySum / float64(m.latencyCount))
		}
		if m.passed > 0 {
			stats.CostPerSuccess = domain.Float64Ptr(m.cost / float64(m.passed))
		}
		agg.PerModel = append(agg.PerModel, stats)
	}
	SortModelStats(agg.PerModel)

	agg.PerTest = make([]domain.TestStats, 0, len(tests))
	for id, t := range tests {
		stats := domain.TestStats{
			TestID:      id,
			Total:       t.total,
			Passed:      t.passed,
			Failed:      t.total - t.passed,
			SuccessRate: rate(t.passed, t.total),
		}
		if len(t.failing) > 0 {
			stats.FailingModels = sortedKeys(t.failing)
		}
		agg.PerTest = append(agg.PerTest, stats)
	}
	slices.SortFunc(agg.PerTest, func(a, b domain.TestStats) int {
		if a.SuccessRate != b.SuccessRate {
			if a.SuccessRate < b.SuccessRate {
				return -1
			}
			return 1
		}
		return CompareIDs(a.TestID, b.TestID)
	})

	return agg
}

// SortModelStats orders stats by success rate descending, then model name
// ascending.
func SortModelStats(stats []domain.ModelStats) {
	slices.SortFunc(stats, func(a, b domain.ModelStats) int {
		if a.SuccessRate != b.SuccessRate {
			if a.SuccessRate > b.SuccessRate {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Model, b.Model)
	})
}

func rate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
