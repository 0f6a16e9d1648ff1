package domain

import (
	"fmt"
	"strings"
)

// ErrorCategory is the closed set of buckets a failed record can fall into.
// The zero value is CategoryUnknown so an unclassified record is never
// left without a category.
type ErrorCategory int

// Declaration order is also the tie-break order in reports.
const (
	CategoryUnknown ErrorCategory = iota
	CategoryTimeout
	CategoryRateLimit
	CategoryRefusal
	CategoryMalformedOutput
	CategoryAssertionFailure
	CategoryProviderError
)

var categoryNames = [...]string{
	CategoryUnknown:          "unknown",
	CategoryTimeout:          "timeout",
	CategoryRateLimit:        "rate_limit",
	CategoryRefusal:          "refusal",
	CategoryMalformedOutput:  "malformed_output",
	CategoryAssertionFailure: "assertion_failure",
	CategoryProviderError:    "provider_error",
}

// AllCategories returns every ErrorCategory in declaration order.
func AllCategories() []ErrorCategory {
	out := make([]ErrorCategory, len(categoryNames))
	for i := range categoryNames {
		out[i] = ErrorCategory(i)
	}
	return out
}

// String returns the stable snake_case name of the category.
func (c ErrorCategory) String() string {
	if !c.Valid() {
		return fmt.Sprintf("ErrorCategory(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is a member of the closed set.
func (c ErrorCategory) Valid() bool { return c >= 0 && int(c) < len(categoryNames) }

// MarshalText encodes the category by name so map keys and JSON values stay
// readable.
func (c ErrorCategory) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *ErrorCategory) UnmarshalText(b []byte) error {
	parsed, err := ParseErrorCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseErrorCategory resolves a category name. Hyphens and case are
// tolerated so "Rate-Limit" and "rate_limit" are equivalent.
func ParseErrorCategory(name string) (ErrorCategory, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range categoryNames {
		if n == norm {
			return ErrorCategory(i), nil
		}
	}
	return CategoryUnknown, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}
