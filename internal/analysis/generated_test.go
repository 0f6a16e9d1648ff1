package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/parser"
	"github.com/ahrav/go-tally/internal/testutils"
)

func parseGenerated(tb testing.TB, cfg testutils.GeneratorConfig, seed int64) (parser.Result, testutils.ResultsStatistics) {
	tb.Helper()
	export := testutils.GenerateResults(cfg, seed)
	data, err := json.Marshal(export)
	require.NoError(tb, err)
	res, err := parser.ParseBytes("generated.json", data)
	require.NoError(tb, err)
	return res, testutils.ComputeResultsStatistics(export)
}

// TestSummarize_GeneratedResults checks the whole pipeline against the
// generator's known failure categories.
func TestSummarize_GeneratedResults(t *testing.T) {
	res, stats := parseGenerated(t, testutils.GeneratorConfig{Tests: 200, UnusableRate: 0.05}, 1234)

	s := New(DefaultConfig()).Summarize("generated.json", res.Records, res.Skipped)

	assert.Equal(t, stats.Unusable, s.SkippedRecords)
	assert.Equal(t, stats.Passed+stats.Failed, s.TotalTests)
	assert.Equal(t, stats.Failed, s.TotalFailed)

	got := make(map[string]int)
	for _, b := range s.WorstErrors {
		got[b.Category.String()] = b.Count
	}
	assert.Equal(t, stats.FailuresCategory, got, "Every generated message should classify as intended")

	for i := 1; i < len(s.PerModel); i++ {
		assert.GreaterOrEqual(t, s.PerModel[i-1].SuccessRate, s.PerModel[i].SuccessRate)
	}
}

func BenchmarkSummarize(b *testing.B) {
	res, _ := parseGenerated(b, testutils.GeneratorConfig{Tests: 2000}, 99)
	a := New(DefaultConfig())

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_ = a.Summarize("bench", res.Records, res.Skipped)
	}
}

func BenchmarkClassify(b *testing.B) {
	res, _ := parseGenerated(b, testutils.GeneratorConfig{Tests: 500}, 5)
	c := NewClassifier()

	b.ResetTimer()
	for b.Loop() {
		for _, r := range res.Records {
			c.ClassifyRecord(r)
		}
	}
}
