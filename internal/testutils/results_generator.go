// Package testutils provides synthetic evaluation result generators for
// tests and benchmarks. These components are intended for internal use
// within the project's test suites and are not part of the public API.
package testutils

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ModelProfile describes how a synthetic model behaves.
type ModelProfile struct {
	// Name is the provider id written to each result.
	Name string `json:"name"`

	// PassRate is the probability in [0, 1] that a test passes.
	PassRate float64 `json:"pass_rate"`

	// CostPerCall is the mean cost of one call.
	CostPerCall float64 `json:"cost_per_call"`

	// MeanLatencyMs is the mean reported latency.
	MeanLatencyMs float64 `json:"mean_latency_ms"`
}

// DefaultModelProfiles returns three models with distinct quality and
// cost so every finding has a chance to fire.
func DefaultModelProfiles() []ModelProfile {
	return []ModelProfile{
		{Name: "openai:gpt-4o", PassRate: 0.85, CostPerCall: 0.012, MeanLatencyMs: 1400},
		{Name: "anthropic:claude-3-haiku", PassRate: 0.7, CostPerCall: 0.002, MeanLatencyMs: 800},
		{Name: "google:gemini-1.5-flash", PassRate: 0.55, CostPerCall: 0.001, MeanLatencyMs: 650},
	}
}

// GeneratorConfig controls GenerateResults.
type GeneratorConfig struct {
	// Tests is the number of test cases; every model runs every test.
	Tests int

	// Models are the synthetic providers.
	Models []ModelProfile

	// UnusableRate is the probability that an entry is emitted without a
	// provider id, which the parser must skip.
	UnusableRate float64
}

// ResultsExport mirrors the promptfoo JSON export layout.
type ResultsExport struct {
	EvalID  string         `json:"evalId"`
	Results ResultsSection `json:"results"`
}

// ResultsSection holds the result list and the counts promptfoo reports.
type ResultsSection struct {
	Version   int            `json:"version"`
	Timestamp string         `json:"timestamp"`
	Results   []ResultEntry  `json:"results"`
	Stats     map[string]int `json:"stats"`
}

// ResultEntry is one provider/test evaluation.
type ResultEntry struct {
	Provider  *Provider         `json:"provider,omitempty"`
	TestIdx   int               `json:"testIdx"`
	Success   bool              `json:"success"`
	Cost      float64           `json:"cost"`
	LatencyMs float64           `json:"latencyMs"`
	Error     string            `json:"error,omitempty"`
	Response  *Response         `json:"response,omitempty"`
	Vars      map[string]string `json:"vars,omitempty"`

	// ExpectedCategory is the category the failure message was generated
	// for. It is not serialized.
	ExpectedCategory string `json:"-"`
}

// Provider identifies the model that produced a result.
type Provider struct {
	ID string `json:"id"`
}

// Response carries token usage.
type Response struct {
	TokenUsage TokenUsage `json:"tokenUsage"`
}

// TokenUsage counts tokens of one call.
type TokenUsage struct {
	Total      int `json:"total"`
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
}

// ResultsStatistics summarizes a generated export.
type ResultsStatistics struct {
	Entries          int
	Unusable         int
	Passed           int
	Failed           int
	FailuresCategory map[string]int
}

// GenerateResults creates a synthetic evaluation export. The seed controls
// randomization; a fixed value yields identical output.
// NOTE: Generated messages are illustrative only and do not come from real
// provider responses.
func GenerateResults(cfg GeneratorConfig, seed int64) *ResultsExport {
	rng := rand.New(rand.NewSource(seed))
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModelProfiles()
	}

	export := &ResultsExport{
		EvalID: "eval-" + uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d", seed)).String(),
		Results: ResultsSection{
			Version:   3,
			Timestamp: time.Unix(seed%1_000_000_000, 0).UTC().Format(time.RFC3339),
			Results:   make([]ResultEntry, 0, cfg.Tests*len(cfg.Models)),
			Stats:     map[string]int{"successes": 0, "failures": 0},
		},
	}

	topics := []string{"geography", "arithmetic", "summarization", "translation", "json-extraction"}
	for test := range cfg.Tests {
		vars := map[string]string{
			"topic": topics[test%len(topics)],
			"case":  fmt.Sprintf("case-%03d", test),
		}
		for _, m := range cfg.Models {
			export.Results.Results = append(export.Results.Results, generateEntry(rng, cfg, m, test, vars))
		}
	}

	for _, e := range export.Results.Results {
		if e.Success {
			export.Results.Stats["successes"]++
		} else {
			export.Results.Stats["failures"]++
		}
	}
	return export
}

func generateEntry(rng *rand.Rand, cfg GeneratorConfig, m ModelProfile, test int, vars map[string]string) ResultEntry {
	prompt := 80 + rng.Intn(400)
	completion := 20 + rng.Intn(300)
	entry := ResultEntry{
		Provider:  &Provider{ID: m.Name},
		TestIdx:   test,
		Success:   rng.Float64() < m.PassRate,
		Cost:      m.CostPerCall * (0.5 + rng.Float64()),
		LatencyMs: m.MeanLatencyMs * (0.5 + rng.Float64()),
		Response: &Response{TokenUsage: TokenUsage{
			Total:      prompt + completion,
			Prompt:     prompt,
			Completion: completion,
		}},
		Vars: vars,
	}
	if !entry.Success {
		entry.ExpectedCategory, entry.Error = randomFailure(rng)
	}
	if rng.Float64() < cfg.UnusableRate {
		entry.Provider = nil
	}
	return entry
}

// ComputeResultsStatistics counts entries, unusable entries and expected
// failure categories of a generated export. Category counts are empty for
// exports read back with LoadResults.
func ComputeResultsStatistics(export *ResultsExport) ResultsStatistics {
	stats := ResultsStatistics{FailuresCategory: make(map[string]int)}

	for _, e := range export.Results.Results {
		stats.Entries++
		if e.Provider == nil {
			stats.Unusable++
			continue
		}
		if e.Success {
			stats.Passed++
			continue
		}
		stats.Failed++
		if e.ExpectedCategory != "" {
			stats.FailuresCategory[e.ExpectedCategory]++
		}
	}
	return stats
}

// SaveResults writes export as indented JSON, creating parent directories.
func SaveResults(export *ResultsExport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// LoadResults reads an export previously written by SaveResults.
func LoadResults(path string) (*ResultsExport, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	var export ResultsExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	return &export, nil
}
