package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

// decodeFixture decodes JSON the same way Decode does, numbers included.
func decodeFixture(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v), "fixture must be valid JSON")
	return v
}

func TestParse_PromptfooEntry(t *testing.T) {
	payload := decodeFixture(t, `[{
		"provider": {"id": "openai:gpt-4", "label": "GPT 4"},
		"testIdx": 3,
		"success": false,
		"cost": 0.0125,
		"latencyMs": 812,
		"error": "Expected output to contain 'Paris'",
		"prompt": {"raw": "What is the capital of France?"},
		"vars": {"country": "France", "n": 2},
		"response": {"tokenUsage": {"prompt": 12, "completion": 30, "total": 42}}
	}]`)

	res, err := Parse(payload)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Zero(t, res.Skipped)

	rec := res.Records[0]
	assert.Equal(t, "openai:gpt-4", rec.Model)
	assert.Equal(t, "3", rec.TestID, "Integer test ids should render without a fraction")
	assert.False(t, rec.Passed)
	assert.InDelta(t, 0.0125, rec.Cost, 1e-12)
	require.NotNil(t, rec.LatencyMs)
	assert.InDelta(t, 812.0, *rec.LatencyMs, 1e-9)
	assert.Equal(t, "Expected output to contain 'Paris'", rec.ErrorMessage())
	assert.Equal(t, "What is the capital of France?", rec.Prompt)
	assert.Equal(t, map[string]string{"country": "France", "n": "2"}, rec.Vars)
	assert.Equal(t, 12, rec.PromptTokens)
	assert.Equal(t, 30, rec.CompletionTokens)
	assert.Equal(t, 42, rec.TotalTokens)
}

func TestParse_AlternateShapes(t *testing.T) {
	tests := []struct {
		name       string
		entry      string
		wantModel  string
		wantTestID string
		wantPassed bool
	}{
		{
			name:       "flat model and snake case id",
			entry:      `{"model": "claude-3", "test_id": "t-1", "passed": true}`,
			wantModel:  "claude-3",
			wantTestID: "t-1",
			wantPassed: true,
		},
		{
			name:       "provider string and status text",
			entry:      `{"provider": "gemini", "testId": 7, "status": "PASSED"}`,
			wantModel:  "gemini",
			wantTestID: "7",
			wantPassed: true,
		},
		{
			name:       "provider label fallback",
			entry:      `{"provider": {"label": "local"}, "testCase": {"id": "case-9"}, "outcome": "failed"}`,
			wantModel:  "local",
			wantTestID: "case-9",
			wantPassed: false,
		},
		{
			name:       "grading result status",
			entry:      `{"providerId": "p", "id": "x", "gradingResult": {"pass": true}}`,
			wantModel:  "p",
			wantTestID: "x",
			wantPassed: true,
		},
		{
			name:       "blank provider id falls through",
			entry:      `{"provider": {"id": "  ", "label": "fallback"}, "testIdx": 0, "success": true}`,
			wantModel:  "fallback",
			wantTestID: "0",
			wantPassed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse([]any{decodeFixture(t, tt.entry)})
			require.NoError(t, err)
			require.Len(t, res.Records, 1, "Entry should be parsed")

			rec := res.Records[0]
			assert.Equal(t, tt.wantModel, rec.Model)
			assert.Equal(t, tt.wantTestID, rec.TestID)
			assert.Equal(t, tt.wantPassed, rec.Passed)
		})
	}
}

func TestParse_SkipsUnattributableEntries(t *testing.T) {
	payload := decodeFixture(t, `[
		{"provider": {"id": "gpt-4"}, "testIdx": 0, "success": true},
		{"success": false, "cost": 0.5},
		{"provider": {"id": "gpt-4"}, "success": true},
		{"testIdx": 2, "success": true},
		"not an object",
		{"provider": {"id": "gpt-4"}, "testIdx": 1, "success": false}
	]`)

	res, err := Parse(payload)
	require.NoError(t, err)

	assert.Len(t, res.Records, 2)
	assert.Equal(t, 4, res.Skipped)
	assert.Equal(t, res.Skipped, len(res.Warnings), "Skipped should equal the number of warnings")
	assert.Equal(t, []domain.SkippedRecordWarning{
		{Index: 1, Reason: reasonNoBoth},
		{Index: 2, Reason: reasonNoTestID},
		{Index: 3, Reason: reasonNoModel},
		{Index: 4, Reason: reasonNotObject},
	}, res.Warnings)
	for _, rec := range res.Records {
		assert.NotEmpty(t, rec.Model)
		assert.NotEmpty(t, rec.TestID)
	}
}

func TestParse_MissingStatusIsFailure(t *testing.T) {
	res, err := Parse(decodeFixture(t, `[{"model": "m", "test_id": "1"}]`))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.False(t, rec.Passed)
	assert.Equal(t, missingStatus, rec.ErrorMessage())
}

func TestParse_FieldCoercion(t *testing.T) {
	tests := []struct {
		name        string
		entry       string
		wantCost    float64
		wantLatency *float64
	}{
		{
			name:        "absent cost and latency",
			entry:       `{"model": "m", "test_id": "1", "success": true}`,
			wantCost:    0,
			wantLatency: nil,
		},
		{
			name:        "numeric strings",
			entry:       `{"model": "m", "test_id": "1", "success": true, "cost": "0.25", "latencyMs": "100"}`,
			wantCost:    0.25,
			wantLatency: domain.Float64Ptr(100),
		},
		{
			name:        "negative cost dropped and negative latency excluded",
			entry:       `{"model": "m", "test_id": "1", "success": true, "cost": -1, "latencyMs": -5}`,
			wantCost:    0,
			wantLatency: nil,
		},
		{
			name:        "non numeric values ignored",
			entry:       `{"model": "m", "test_id": "1", "success": true, "cost": "n/a", "latencyMs": true}`,
			wantCost:    0,
			wantLatency: nil,
		},
		{
			name:        "zero latency kept",
			entry:       `{"model": "m", "test_id": "1", "success": true, "latency_ms": 0}`,
			wantCost:    0,
			wantLatency: domain.Float64Ptr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse([]any{decodeFixture(t, tt.entry)})
			require.NoError(t, err)
			require.Len(t, res.Records, 1)

			rec := res.Records[0]
			assert.InDelta(t, tt.wantCost, rec.Cost, 1e-12)
			if tt.wantLatency == nil {
				assert.Nil(t, rec.LatencyMs)
			} else {
				require.NotNil(t, rec.LatencyMs)
				assert.InDelta(t, *tt.wantLatency, *rec.LatencyMs, 1e-12)
			}
		})
	}
}

func TestParse_GradingReasonAsErrorText(t *testing.T) {
	res, err := Parse(decodeFixture(t, `[{
		"model": "m", "test_id": "1", "success": false,
		"gradingResult": {"pass": false, "reason": "Output does not match rubric"}
	}]`))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Output does not match rubric", res.Records[0].ErrorMessage())
}

func TestParse_TotalTokensFallsBackToSum(t *testing.T) {
	res, err := Parse(decodeFixture(t, `[{
		"model": "m", "test_id": "1", "success": true,
		"usage": {"prompt_tokens": 5, "completion_tokens": 7}
	}]`))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 12, res.Records[0].TotalTokens)
}

func TestParse_NotASequence(t *testing.T) {
	for _, payload := range []any{nil, "text", map[string]any{"a": 1}, json.Number("3")} {
		_, err := Parse(payload)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	}
}

func TestUnwrap(t *testing.T) {
	records := []any{map[string]any{"model": "m"}}

	tests := []struct {
		name    string
		doc     any
		wantErr bool
	}{
		{"bare array", records, false},
		{"results array", map[string]any{"results": records}, false},
		{"nested promptfoo export", map[string]any{"results": map[string]any{"results": records, "stats": map[string]any{}}}, false},
		{"object without results", map[string]any{"data": records}, true},
		{"results not a list", map[string]any{"results": "nope"}, true},
		{"nested results not a list", map[string]any{"results": map[string]any{"results": 3}}, true},
		{"scalar", json.Number("1"), true},
		{"null", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unwrap(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, records, got)
		})
	}
}

func TestUnwrap_DescribesWrongType(t *testing.T) {
	_, err := Unwrap(json.Number("42"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got number")

	_, err = Unwrap("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got string")
}
