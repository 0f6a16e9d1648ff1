package domain

// ModelStats aggregates all records attributed to one model.
// It is derived on every analysis run and never updated incrementally.
type ModelStats struct {
	// Model is the provider/model identifier.
	Model string `json:"model"`

	// Total is the number of records for this model. Total = Passed + Failed.
	Total int `json:"total"`

	// Passed counts successful records.
	Passed int `json:"passed"`

	// Failed counts unsuccessful records.
	Failed int `json:"failed"`

	// SuccessRate is Passed/Total and always lies in [0, 1].
	SuccessRate float64 `json:"success_rate"`

	// TotalCost sums the cost of every record, passed or not.
	TotalCost float64 `json:"total_cost"`

	// AvgLatency is the mean latency over records that reported one.
	// It is nil when no record carried latency data.
	AvgLatency *float64 `json:"avg_latency,omitempty"`

	// TotalTokens sums token usage across all records.
	TotalTokens int `json:"total_tokens"`

	// CostPerSuccess divides TotalCost by Passed. Nil when Passed is 0.
	CostPerSuccess *float64 `json:"cost_per_success,omitempty"`

	// ErrorBreakdown counts failed records per category.
	ErrorBreakdown map[ErrorCategory]int `json:"error_breakdown"`
}

// TestStats aggregates one test case across every model that ran it.
type TestStats struct {
	TestID      string  `json:"test_id"`
	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`

	// FailingModels lists, sorted, the models that failed this test.
	FailingModels []string `json:"failing_models,omitempty"`
}

// ErrorBucket is the classified view of one ErrorCategory.
type ErrorBucket struct {
	Category ErrorCategory `json:"category"`
	Count    int           `json:"count"`

	// ExampleTestIDs holds at most a fixed number of distinct test ids in
	// first-seen order.
	ExampleTestIDs []string `json:"example_test_ids"`
}

// ErrorPattern groups near-identical failure messages.
type ErrorPattern struct {
	// Message is the first message seen for the pattern.
	Message        string        `json:"message"`
	Category       ErrorCategory `json:"category"`
	Frequency      int           `json:"frequency"`
	AffectedModels []string      `json:"affected_models"`
	AffectedTests  []string      `json:"affected_tests"`

	// ExampleVars are the test variables of the first occurrence.
	ExampleVars map[string]string `json:"example_vars,omitempty"`
}

// Severity ranks a recommendation.
type Severity string

// Recommendation severities.
const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Recommendation is an actionable finding derived from the metrics.
type Recommendation struct {
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Finding  string   `json:"finding"`
	Impact   string   `json:"impact"`
	Actions  []string `json:"actions"`
}

// CostEfficiency compares cost per successful test across models.
type CostEfficiency struct {
	MostEfficient       string  `json:"most_efficient"`
	MostCostPerSuccess  float64 `json:"most_cost_per_success"`
	LeastEfficient      string  `json:"least_efficient"`
	LeastCostPerSuccess float64 `json:"least_cost_per_success"`
	Range               float64 `json:"range"`
}

// AnalysisSummary is the immutable result of one analysis run. It is a pure
// function of the canonical record set, the skipped count and the analysis
// configuration.
type AnalysisSummary struct {
	// Source names the analyzed input, typically a file path.
	Source string `json:"source,omitempty"`

	OverallSuccessRate float64 `json:"overall_success_rate"`
	TotalTests         int     `json:"total_tests"`
	TotalPassed        int     `json:"total_passed"`
	TotalFailed        int     `json:"total_failed"`
	SkippedRecords     int     `json:"skipped_records"`
	TotalCost          float64 `json:"total_cost"`
	TotalTokens        int     `json:"total_tokens"`

	// PerModel is sorted by SuccessRate descending, then Model ascending.
	PerModel []ModelStats `json:"per_model"`

	// PerTest is sorted by SuccessRate ascending, then TestID ascending.
	PerTest []TestStats `json:"per_test"`

	// WorstErrors is sorted by Count descending, then category order.
	WorstErrors []ErrorBucket `json:"worst_errors"`

	ErrorPatterns   []ErrorPattern   `json:"error_patterns"`
	Recommendations []Recommendation `json:"recommendations"`
	CostEfficiency  *CostEfficiency  `json:"cost_efficiency,omitempty"`
}
