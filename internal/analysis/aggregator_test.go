package analysis

import (
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

func classifyDefault(r domain.CanonicalRecord) domain.ErrorCategory {
	return NewClassifier().ClassifyRecord(r)
}

func TestAggregate_SingleModel(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec("gpt-4", "1", true, 0.01, ""),
		rec("gpt-4", "2", true, 0.02, ""),
		rec("gpt-4", "3", false, 0.015, "wrong answer"),
	}

	agg := Aggregate(records, classifyDefault)
	require.Len(t, agg.PerModel, 1)

	m := agg.PerModel[0]
	assert.Equal(t, "gpt-4", m.Model)
	assert.Equal(t, 3, m.Total)
	assert.Equal(t, 2, m.Passed)
	assert.Equal(t, 1, m.Failed)
	assert.InDelta(t, 0.667, m.SuccessRate, 0.001)
	assert.InDelta(t, 0.045, m.TotalCost, 1e-9)
	require.NotNil(t, m.CostPerSuccess)
	assert.InDelta(t, 0.0225, *m.CostPerSuccess, 1e-9, "Cost per success includes failed attempts")
	assert.Nil(t, m.AvgLatency, "No latency samples should leave the average absent")
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil, classifyDefault)

	assert.Zero(t, agg.OverallSuccessRate)
	assert.Zero(t, agg.TotalTests)
	assert.NotNil(t, agg.PerModel, "PerModel should be an empty sequence")
	assert.Empty(t, agg.PerModel)
	assert.Empty(t, agg.PerTest)
}

func TestAggregate_LatencyExcludesMissing(t *testing.T) {
	records := []domain.CanonicalRecord{
		withLatency(rec("m", "1", true, 0, ""), 100),
		rec("m", "2", true, 0, ""),
		withLatency(rec("m", "3", true, 0, ""), 300),
	}

	agg := Aggregate(records, classifyDefault)
	require.Len(t, agg.PerModel, 1)
	require.NotNil(t, agg.PerModel[0].AvgLatency)
	assert.InDelta(t, 200.0, *agg.PerModel[0].AvgLatency, 1e-9)
}

func TestAggregate_NoPassesHasNoCostPerSuccess(t *testing.T) {
	agg := Aggregate([]domain.CanonicalRecord{rec("m", "1", false, 0.5, "x")}, classifyDefault)
	require.Len(t, agg.PerModel, 1)
	assert.Nil(t, agg.PerModel[0].CostPerSuccess)
	assert.Zero(t, agg.PerModel[0].SuccessRate)
}

func TestAggregate_Ordering(t *testing.T) {
	agg := Aggregate(mixedRecords(), classifyDefault)

	var models []string
	for _, m := range agg.PerModel {
		models = append(models, m.Model)
	}
	// gpt-4 2/3, claude-3 1/3 and gemini 1/3 tie, broken by name.
	assert.Equal(t, []string{"gpt-4", "claude-3", "gemini"}, models)

	var tests []string
	for _, ts := range agg.PerTest {
		tests = append(tests, ts.TestID)
	}
	// Test 2 fails for two models (1/3), test 3 for two (1/3), test 1 for one (2/3).
	assert.Equal(t, []string{"2", "3", "1"}, tests)
	assert.Equal(t, []string{"claude-3", "gemini"}, agg.PerTest[0].FailingModels)
}

func TestAggregate_ErrorBreakdown(t *testing.T) {
	agg := Aggregate(mixedRecords(), classifyDefault)

	byModel := make(map[string]domain.ModelStats)
	for _, m := range agg.PerModel {
		byModel[m.Model] = m
	}

	assert.Equal(t, map[domain.ErrorCategory]int{domain.CategoryAssertionFailure: 1}, byModel["gpt-4"].ErrorBreakdown)
	assert.Equal(t, map[domain.ErrorCategory]int{domain.CategoryTimeout: 2}, byModel["claude-3"].ErrorBreakdown)
	assert.Equal(t, map[domain.ErrorCategory]int{
		domain.CategoryRateLimit: 1,
		domain.CategoryTimeout:   1,
	}, byModel["gemini"].ErrorBreakdown)
}

// randomRecords generates a record set from a seed for property tests.
func randomRecords(seed int64) []domain.CanonicalRecord {
	rng := rand.New(rand.NewSource(seed))
	models := []string{"a", "b", "c", "d"}
	n := rng.Intn(60)
	out := make([]domain.CanonicalRecord, 0, n)
	for i := 0; i < n; i++ {
		r := rec(
			models[rng.Intn(len(models))],
			string(rune('0'+rng.Intn(10))),
			rng.Intn(3) > 0,
			float64(rng.Intn(100))/1000,
			"",
		)
		if !r.Passed && rng.Intn(2) == 0 {
			r.ErrorText = domain.StringPtr("Request timed out")
		}
		out = append(out, r)
	}
	return out
}

func TestAggregate_OverallRateIdentity(t *testing.T) {
	property := func(seed int64) bool {
		agg := Aggregate(randomRecords(seed), classifyDefault)
		if agg.TotalTests == 0 {
			return agg.OverallSuccessRate == 0
		}

		var passed, total, failed int
		for _, m := range agg.PerModel {
			passed += m.Passed
			total += m.Total
			failed += m.Failed
			breakdown := 0
			for _, n := range m.ErrorBreakdown {
				breakdown += n
			}
			if m.Total != m.Passed+m.Failed || breakdown != m.Failed {
				return false
			}
		}
		want := float64(passed) / float64(total)
		return agg.OverallSuccessRate == want &&
			failed == agg.TotalFailed &&
			agg.OverallSuccessRate >= 0 && agg.OverallSuccessRate <= 1
	}
	require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 200}))
}

func TestAggregate_PermutationInvariantModelOrder(t *testing.T) {
	property := func(seed int64) bool {
		records := randomRecords(seed)
		base := Aggregate(records, classifyDefault)

		shuffled := append([]domain.CanonicalRecord(nil), records...)
		rand.New(rand.NewSource(seed+1)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		perm := Aggregate(shuffled, classifyDefault)

		if len(base.PerModel) != len(perm.PerModel) {
			return false
		}
		for i := range base.PerModel {
			if base.PerModel[i].Model != perm.PerModel[i].Model ||
				base.PerModel[i].Passed != perm.PerModel[i].Passed {
				return false
			}
		}
		for i := range base.PerTest {
			if base.PerTest[i].TestID != perm.PerTest[i].TestID {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 200}))
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"3", "3", 0},
		{"3", "a", -1},
		{"b", "3", 1},
		{"a", "b", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareIDs(tt.a, tt.b))
		})
	}
}
