// Package parser normalizes raw evaluation-harness result entries into
// domain.CanonicalRecord values. It is the compatibility boundary for schema
// drift between harness versions: individual entries degrade gracefully while
// only an unusable container shape fails the whole payload.
package parser

import (
	"fmt"

	"github.com/ahrav/go-tally/internal/domain"
)

// Reason strings attached to SkippedRecordWarning.
const (
	reasonNotObject = "entry is not an object"
	reasonNoModel   = "missing model identifier"
	reasonNoTestID  = "missing test identifier"
	reasonNoBoth    = "missing model and test identifiers"
)

// missingStatus is recorded as the error text of entries that carry no
// pass/fail information.
const missingStatus = "missing status"

// Result is the output of a parse: the canonical records plus a trace of
// every entry that had to be dropped.
type Result struct {
	// Records holds the canonical records in input order.
	Records []domain.CanonicalRecord

	// Skipped counts entries dropped for missing identifiers.
	// Skipped always equals len(Warnings).
	Skipped int

	// Warnings describes each dropped entry.
	Warnings []domain.SkippedRecordWarning
}

// Parse converts a decoded payload into canonical records. The payload must
// be a sequence of entries; anything else fails with a
// *domain.MalformedInputError. Parse has no side effects.
func Parse(payload any) (Result, error) {
	entries, ok := payload.([]any)
	if !ok {
		return Result{}, domain.NewMalformedInputError("", "input is not a list of results", nil)
	}

	res := Result{Records: make([]domain.CanonicalRecord, 0, len(entries))}
	for i, raw := range entries {
		rec, reason, ok := parseEntry(raw)
		if !ok {
			res.Skipped++
			res.Warnings = append(res.Warnings, domain.SkippedRecordWarning{Index: i, Reason: reason})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// parseEntry builds one record. It reports false with a reason when the
// entry cannot be attributed to both a model and a test.
func parseEntry(raw any) (domain.CanonicalRecord, string, bool) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return domain.CanonicalRecord{}, reasonNotObject, false
	}

	model, hasModel := firstOf(entry, modelStrategies)
	testID, hasTest := firstOf(entry, testIDStrategies)
	switch {
	case !hasModel && !hasTest:
		return domain.CanonicalRecord{}, reasonNoBoth, false
	case !hasModel:
		return domain.CanonicalRecord{}, reasonNoModel, false
	case !hasTest:
		return domain.CanonicalRecord{}, reasonNoTestID, false
	}

	rec := domain.CanonicalRecord{
		Model:  model,
		TestID: testID,
	}

	passed, hasStatus := firstOf(entry, statusStrategies)
	rec.Passed = hasStatus && passed

	if cost, ok := firstOf(entry, costStrategies); ok && cost > 0 {
		rec.Cost = cost
	}
	if latency, ok := firstOf(entry, latencyStrategies); ok && latency >= 0 {
		rec.LatencyMs = domain.Float64Ptr(latency)
	}

	switch {
	case !hasStatus:
		rec.ErrorText = domain.StringPtr(missingStatus)
	default:
		if msg, ok := firstOf(entry, errorStrategies); ok {
			rec.ErrorText = domain.StringPtr(msg)
		} else if !rec.Passed {
			// promptfoo reports assertion failures only through the grader.
			if reason, ok := stringAt("gradingResult", "reason")(entry); ok {
				rec.ErrorText = domain.StringPtr(reason)
			}
		}
	}

	rec.PromptTokens = tokenCount(entry, promptTokenStrategies)
	rec.CompletionTokens = tokenCount(entry, completionTokenStrategies)
	rec.TotalTokens = tokenCount(entry, totalTokenStrategies)
	if rec.TotalTokens == 0 {
		rec.TotalTokens = rec.PromptTokens + rec.CompletionTokens
	}

	if prompt, ok := firstOf(entry, promptStrategies); ok {
		rec.Prompt = prompt
	}
	if vars, ok := firstOf(entry, varsStrategies); ok {
		rec.Vars = stringifyVars(vars)
	}

	return rec, "", true
}

func tokenCount(entry map[string]any, strategies []Strategy[float64]) int {
	v, ok := firstOf(entry, strategies)
	if !ok || v < 0 {
		return 0
	}
	return int(v)
}

// Unwrap locates the result sequence inside a decoded document. It accepts
// a bare array, {"results": [...]}, and promptfoo's nested
// {"results": {"results": [...]}} export.
func Unwrap(doc any) (any, error) {
	switch t := doc.(type) {
	case []any:
		return t, nil
	case map[string]any:
		inner, ok := t["results"]
		if !ok {
			return nil, domain.NewMalformedInputError("", "input is not a list of results", nil)
		}
		switch r := inner.(type) {
		case []any:
			return r, nil
		case map[string]any:
			if nested, ok := r["results"].([]any); ok {
				return nested, nil
			}
		}
		return nil, domain.NewMalformedInputError("", "results field is not a list", nil)
	default:
		return nil, domain.NewMalformedInputError("", fmt.Sprintf("input is not a list of results (got %s)", describe(doc)), nil)
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	default:
		if _, ok := toFloat(v); ok {
			return "number"
		}
		return fmt.Sprintf("%T", v)
	}
}
