package analysis

import (
	"github.com/ahrav/go-tally/internal/domain"
)

// rec builds a canonical record. An empty errText leaves ErrorText nil.
func rec(model, testID string, passed bool, cost float64, errText string) domain.CanonicalRecord {
	r := domain.CanonicalRecord{
		Model:  model,
		TestID: testID,
		Passed: passed,
		Cost:   cost,
	}
	if errText != "" {
		r.ErrorText = domain.StringPtr(errText)
	}
	return r
}

func withLatency(r domain.CanonicalRecord, ms float64) domain.CanonicalRecord {
	r.LatencyMs = domain.Float64Ptr(ms)
	return r
}

// mixedRecords covers three models with different rates, costs and
// failure categories.
func mixedRecords() []domain.CanonicalRecord {
	return []domain.CanonicalRecord{
		withLatency(rec("gpt-4", "1", true, 0.03, ""), 900),
		withLatency(rec("gpt-4", "2", true, 0.03, ""), 1100),
		rec("gpt-4", "3", false, 0.03, "Expected output to contain 'Paris'"),
		withLatency(rec("claude-3", "1", true, 0.01, ""), 400),
		rec("claude-3", "2", false, 0.01, "Request timed out after 30s"),
		rec("claude-3", "3", false, 0.01, "Request timed out after 45s"),
		rec("gemini", "1", false, 0.002, "429 Too Many Requests"),
		rec("gemini", "2", false, 0.002, "Request timed out after 60s"),
		rec("gemini", "3", true, 0.002, ""),
	}
}
