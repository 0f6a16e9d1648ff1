package parser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Strategy extracts one field from a raw result entry. It reports false when
// the field is absent or unusable so the next strategy can be tried.
type Strategy[T any] func(entry map[string]any) (T, bool)

// firstOf returns the value of the first strategy that succeeds.
func firstOf[T any](entry map[string]any, strategies []Strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(entry); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Field extraction order. Earlier strategies win; promptfoo's current export
// shape comes first, older and third-party shapes follow.
var (
	modelStrategies = []Strategy[string]{
		stringAt("provider", "id"),
		stringAt("provider", "label"),
		stringAt("provider"),
		stringAt("model"),
		stringAt("provider_id"),
		stringAt("providerId"),
		stringAt("response", "model"),
	}

	testIDStrategies = []Strategy[string]{
		idAt("testIdx"),
		idAt("testCase", "id"),
		idAt("test_id"),
		idAt("testId"),
		idAt("test", "id"),
		idAt("id"),
	}

	statusStrategies = []Strategy[bool]{
		boolAt("success"),
		boolAt("passed"),
		boolAt("pass"),
		statusAt("status"),
		statusAt("outcome"),
		boolAt("gradingResult", "pass"),
	}

	costStrategies = []Strategy[float64]{
		numberAt("cost"),
		numberAt("response", "cost"),
		numberAt("metrics", "cost"),
	}

	latencyStrategies = []Strategy[float64]{
		numberAt("latencyMs"),
		numberAt("latency_ms"),
		numberAt("response", "latencyMs"),
		numberAt("latency"),
	}

	errorStrategies = []Strategy[string]{
		stringAt("error"),
		stringAt("response", "error"),
		stringAt("failureReason"),
	}

	promptTokenStrategies = []Strategy[float64]{
		numberAt("response", "tokenUsage", "prompt"),
		numberAt("tokenUsage", "prompt"),
		numberAt("usage", "prompt_tokens"),
	}

	completionTokenStrategies = []Strategy[float64]{
		numberAt("response", "tokenUsage", "completion"),
		numberAt("tokenUsage", "completion"),
		numberAt("usage", "completion_tokens"),
	}

	totalTokenStrategies = []Strategy[float64]{
		numberAt("response", "tokenUsage", "total"),
		numberAt("tokenUsage", "total"),
		numberAt("usage", "total_tokens"),
	}

	promptStrategies = []Strategy[string]{
		stringAt("prompt", "raw"),
		stringAt("prompt"),
	}

	varsStrategies = []Strategy[map[string]any]{
		objectAt("vars"),
		objectAt("testCase", "vars"),
	}
)

// lookup walks a path of object keys.
func lookup(entry map[string]any, path ...string) (any, bool) {
	var cur any = entry
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// stringAt accepts only non-blank strings.
func stringAt(path ...string) Strategy[string] {
	return func(entry map[string]any) (string, bool) {
		v, ok := lookup(entry, path...)
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}

// idAt accepts non-blank strings and finite numbers. Integral numbers render
// without a fractional part so testIdx 3 and "3" identify the same test.
func idAt(path ...string) Strategy[string] {
	return func(entry map[string]any) (string, bool) {
		v, ok := lookup(entry, path...)
		if !ok {
			return "", false
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			return s, s != ""
		}
		f, ok := toFloat(v)
		if !ok {
			return "", false
		}
		return formatNumber(f), true
	}
}

func boolAt(path ...string) Strategy[bool] {
	return func(entry map[string]any) (bool, bool) {
		v, ok := lookup(entry, path...)
		if !ok {
			return false, false
		}
		b, ok := v.(bool)
		return b, ok
	}
}

// statusAt understands enumerated status strings as well as booleans.
func statusAt(path ...string) Strategy[bool] {
	return func(entry map[string]any) (bool, bool) {
		v, ok := lookup(entry, path...)
		if !ok {
			return false, false
		}
		switch t := v.(type) {
		case bool:
			return t, true
		case string:
			return parseStatus(t)
		default:
			return false, false
		}
	}
}

func parseStatus(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", "passed", "success", "succeeded", "ok", "true":
		return true, true
	case "fail", "failed", "failure", "error", "errored", "false":
		return false, true
	default:
		return false, false
	}
}

func numberAt(path ...string) Strategy[float64] {
	return func(entry map[string]any) (float64, bool) {
		v, ok := lookup(entry, path...)
		if !ok {
			return 0, false
		}
		return toFloat(v)
	}
}

func objectAt(path ...string) Strategy[map[string]any] {
	return func(entry map[string]any) (map[string]any, bool) {
		v, ok := lookup(entry, path...)
		if !ok {
			return nil, false
		}
		m, ok := v.(map[string]any)
		return m, ok && len(m) > 0
	}
}

// toFloat coerces the numeric shapes produced by encoding/json (with and
// without UseNumber) and yaml.v3. NaN and infinities are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// stringifyVars renders test variables as strings. Nested values are
// encoded as compact JSON, which sorts object keys.
func stringifyVars(vars map[string]any) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = stringifyValue(v)
	}
	return out
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	if f, ok := toFloat(v); ok {
		return formatNumber(f)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
