package domain

// CanonicalRecord is one normalized test result. Records are built once per
// analysis by the parser and treated as read-only afterwards.
type CanonicalRecord struct {
	// Model identifies the provider/model under test. Never empty.
	Model string `json:"model"`

	// TestID identifies the test case within the evaluation run. Never empty.
	TestID string `json:"test_id"`

	// Passed reports whether the test case succeeded for this model.
	Passed bool `json:"passed"`

	// LatencyMs is the response latency in milliseconds.
	// It is nil when the harness did not report a usable latency.
	LatencyMs *float64 `json:"latency_ms,omitempty"`

	// Cost is the computed cost in dollars. Absent or invalid costs are 0.
	Cost float64 `json:"cost"`

	// ErrorText is the failure reason reported by the harness, if any.
	ErrorText *string `json:"error_text,omitempty"`

	// PromptTokens, CompletionTokens and TotalTokens carry token usage.
	// Missing values are 0.
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Prompt is the raw prompt text, used only for reporting.
	Prompt string `json:"prompt,omitempty"`

	// Vars holds the test variables rendered as strings.
	Vars map[string]string `json:"vars,omitempty"`
}

// Failed reports whether the record represents a failed test.
func (r CanonicalRecord) Failed() bool { return !r.Passed }

// ErrorMessage returns the error text or the empty string when none was
// reported.
func (r CanonicalRecord) ErrorMessage() string {
	if r.ErrorText == nil {
		return ""
	}
	return *r.ErrorText
}

// SkippedRecordWarning describes a raw entry dropped during parsing.
// Warnings are non-fatal; their count is surfaced in the summary.
type SkippedRecordWarning struct {
	// Index is the position of the entry in the raw payload.
	Index int `json:"index"`

	// Reason explains why the entry could not be attributed.
	Reason string `json:"reason"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
