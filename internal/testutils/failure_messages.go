package testutils

import (
	"fmt"
	"math/rand"
)

// failureTemplate renders one realistic provider or grader failure.
type failureTemplate struct {
	// Category is the error category name the message is expected to
	// classify as.
	Category string
	render   func(rng *rand.Rand) string
}

// FailureTemplates lists the failure messages used by the generator,
// keyed by the category each should classify as.
var FailureTemplates = []failureTemplate{
	{Category: "timeout", render: func(rng *rand.Rand) string {
		return fmt.Sprintf("Request timed out after %ds", 30+rng.Intn(4)*15)
	}},
	{Category: "timeout", render: func(*rand.Rand) string {
		return "context deadline exceeded (Client.Timeout exceeded while awaiting headers)"
	}},
	{Category: "rate_limit", render: func(rng *rand.Rand) string {
		return fmt.Sprintf("429 Too Many Requests: retry after %d seconds", 1+rng.Intn(60))
	}},
	{Category: "rate_limit", render: func(*rand.Rand) string {
		return "Rate limit reached for requests per minute"
	}},
	{Category: "refusal", render: func(*rand.Rand) string {
		return "I'm sorry, but I can't help with that request."
	}},
	{Category: "malformed_output", render: func(rng *rand.Rand) string {
		return fmt.Sprintf("Unexpected token } in JSON at position %d", rng.Intn(400))
	}},
	{Category: "assertion_failure", render: func(rng *rand.Rand) string {
		cities := []string{"Paris", "Berlin", "Madrid", "Rome"}
		return fmt.Sprintf("Expected output to contain %q", cities[rng.Intn(len(cities))])
	}},
	{Category: "assertion_failure", render: func(rng *rand.Rand) string {
		return fmt.Sprintf("llm-rubric score 0.%d is below threshold 0.7", rng.Intn(7))
	}},
	{Category: "provider_error", render: func(*rand.Rand) string {
		return "503 Service Unavailable"
	}},
	{Category: "unknown", render: func(*rand.Rand) string {
		return "Output did not satisfy custom check"
	}},
}

// randomFailure picks a template and renders it.
func randomFailure(rng *rand.Rand) (category, message string) {
	t := FailureTemplates[rng.Intn(len(FailureTemplates))]
	return t.Category, t.render(rng)
}
