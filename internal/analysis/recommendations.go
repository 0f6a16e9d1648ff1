package analysis

import (
	"fmt"
	"math"
	"slices"

	"github.com/ahrav/go-tally/internal/domain"
)

// RecommendationOptions sets the thresholds behind generated findings.
type RecommendationOptions struct {
	// LowSuccessRate flags the run when the overall rate is below it.
	LowSuccessRate float64

	// CostSpread flags the most expensive model when its cost per success
	// exceeds the cheapest one's by this factor.
	CostSpread float64

	// ReliabilityShare flags rate-limit and timeout categories whose share
	// of failures reaches it.
	ReliabilityShare float64
}

// DefaultRecommendationOptions returns the stock thresholds.
func DefaultRecommendationOptions() RecommendationOptions {
	return RecommendationOptions{
		LowSuccessRate:   0.5,
		CostSpread:       2,
		ReliabilityShare: 0.25,
	}
}

// CostEfficiencyOf ranks models that passed at least once by cost per
// success. It returns nil when no model passed anything. Ties keep the
// order of perModel.
func CostEfficiencyOf(perModel []domain.ModelStats) *domain.CostEfficiency {
	var ranked []domain.ModelStats
	for _, m := range perModel {
		if m.CostPerSuccess != nil {
			ranked = append(ranked, m)
		}
	}
	if len(ranked) == 0 {
		return nil
	}
	slices.SortStableFunc(ranked, func(a, b domain.ModelStats) int {
		switch {
		case *a.CostPerSuccess < *b.CostPerSuccess:
			return -1
		case *a.CostPerSuccess > *b.CostPerSuccess:
			return 1
		}
		return 0
	})
	most, least := ranked[0], ranked[len(ranked)-1]
	return &domain.CostEfficiency{
		MostEfficient:       most.Model,
		MostCostPerSuccess:  *most.CostPerSuccess,
		LeastEfficient:      least.Model,
		LeastCostPerSuccess: *least.CostPerSuccess,
		Range:               *least.CostPerSuccess - *most.CostPerSuccess,
	}
}

// Recommend derives findings from already aggregated metrics. Output order
// is fixed: success rate, cost, reliability, then one entry per systemic
// error pattern in pattern order.
func Recommend(agg Aggregates, buckets []domain.ErrorBucket, patterns []domain.ErrorPattern, opts RecommendationOptions) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0)

	if agg.TotalTests > 0 && agg.OverallSuccessRate < opts.LowSuccessRate {
		recs = append(recs, domain.Recommendation{
			Category: "Success Rate",
			Severity: domain.SeverityHigh,
			Finding:  fmt.Sprintf("Overall success rate is below %.0f%%", opts.LowSuccessRate*100),
			Impact:   "Low reliability of prompt responses across all models",
			Actions: []string{
				"Review and refine test assertions for potential over-strictness",
				"Analyze successful cases to identify patterns that work",
				"Consider implementing prompt templates for consistent output formatting",
			},
		})
	}

	if rec, ok := costRecommendation(agg.PerModel, opts.CostSpread); ok {
		recs = append(recs, rec)
	}

	if agg.TotalFailed > 0 {
		for _, b := range buckets {
			if b.Category != domain.CategoryRateLimit && b.Category != domain.CategoryTimeout {
				continue
			}
			share := float64(b.Count) / float64(agg.TotalFailed)
			if share < opts.ReliabilityShare {
				continue
			}
			recs = append(recs, domain.Recommendation{
				Category: "Reliability",
				Severity: domain.SeverityMedium,
				Finding:  fmt.Sprintf("%.1f%% of failures are %s errors", share*100, b.Category),
				Impact:   "Failures reflect provider capacity rather than model quality",
				Actions: []string{
					"Lower evaluation concurrency or add retries with backoff",
					"Re-run affected test cases before drawing quality conclusions",
					"Review provider quotas and request timeouts",
				},
			})
		}
	}

	for _, p := range patterns {
		if len(agg.PerModel) == 0 || len(p.AffectedModels) != len(agg.PerModel) {
			continue
		}
		recs = append(recs, domain.Recommendation{
			Category: "Error Pattern",
			Severity: domain.SeverityHigh,
			Finding:  "Systematic error across all models: " + p.Message,
			Impact:   "Consistent failure pattern affecting all providers",
			Actions: []string{
				"Review and revise prompt structure for affected test cases",
				"Verify test assertions match expected model capabilities",
				"Consider implementing pre-processing for consistent input formatting",
			},
		})
	}

	return recs
}

// costRecommendation compares total cost per success across all models;
// a model that never passed costs +Inf per success.
func costRecommendation(perModel []domain.ModelStats, spread float64) (domain.Recommendation, bool) {
	if len(perModel) < 2 {
		return domain.Recommendation{}, false
	}
	costOf := func(m domain.ModelStats) float64 {
		if m.CostPerSuccess == nil {
			return math.Inf(1)
		}
		return *m.CostPerSuccess
	}

	most, least := perModel[0], perModel[0]
	for _, m := range perModel[1:] {
		if costOf(m) < costOf(most) {
			most = m
		}
		if costOf(m) > costOf(least) {
			least = m
		}
	}
	if !(costOf(least) > costOf(most)*spread) {
		return domain.Recommendation{}, false
	}

	return domain.Recommendation{
		Category: "Cost Optimization",
		Severity: domain.SeverityMedium,
		Finding:  least.Model + " is significantly more expensive per successful test",
		Impact:   "Higher operational costs without proportional quality improvement",
		Actions: []string{
			"Consider reducing usage of " + least.Model + " for cost optimization",
			"Investigate what makes " + most.Model + " more cost-effective",
			"Implement cost monitoring and alerting",
		},
	}, true
}
