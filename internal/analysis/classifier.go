package analysis

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/ahrav/go-tally/internal/domain"
)

// DefaultExampleLimit bounds the example test ids kept per error bucket.
const DefaultExampleLimit = 5

// Rule maps a case-insensitive pattern to an error category.
type Rule struct {
	Category domain.ErrorCategory
	Pattern  *regexp.Regexp
}

// NewRule compiles pattern case-insensitively.
func NewRule(category domain.ErrorCategory, pattern string) (Rule, error) {
	if !category.Valid() {
		return Rule{}, fmt.Errorf("%w: %d", domain.ErrUnknownCategory, int(category))
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern for %s: %w", category, err)
	}
	return Rule{Category: category, Pattern: re}, nil
}

func mustRule(category domain.ErrorCategory, pattern string) Rule {
	r, err := NewRule(category, pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// defaultRules is the built-in table; slice order is precedence. Rate limits
// precede timeouts and refusals precede malformed output, since messages in
// each pair frequently mention both.
var defaultRules = []Rule{
	mustRule(domain.CategoryRateLimit, `rate[ _-]?limit|too many requests|\b429\b|quota (exceeded|exhausted)|resource[ _]exhausted|throttl`),
	mustRule(domain.CategoryTimeout, `\btime[d]? ?outs?\b|etimedout|deadline exceeded|\b504\b|took too long`),
	mustRule(domain.CategoryRefusal, `i can(no|['’])?t (help|assist|comply|provide)|i['’]?m (sorry|unable)|i am unable|refus(al|ed to|es to|ing to)|declined to|content (policy|filter)|safety (system|policy|filter)|not able to (help|assist)`),
	mustRule(domain.CategoryMalformedOutput, `invalid json|json parse|unexpected token|malformed|(failed|unable) to parse|could not parse|syntax ?error|does not match (the )?schema|not valid json`),
	mustRule(domain.CategoryAssertionFailure, `expected .*(to|but)|assert|does not (match|contain)|did not (match|contain)|llm-rubric|below threshold|threshold`),
	mustRule(domain.CategoryProviderError, `api error|internal server error|service unavailable|bad gateway|\b50[0-3]\b|connection (refused|reset)|econn(refused|reset)|network|unauthori[sz]ed|\b40[13]\b|invalid api key|authentication`),
}

// DefaultRules returns a copy of the built-in rule table in precedence order.
func DefaultRules() []Rule { return slices.Clone(defaultRules) }

// Classifier assigns every failed record exactly one ErrorCategory by
// applying an ordered rule table; the first matching rule wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier whose table is extra followed by the
// default rules, so configured rules take precedence.
func NewClassifier(extra ...Rule) *Classifier {
	rules := make([]Rule, 0, len(extra)+len(defaultRules))
	rules = append(rules, extra...)
	rules = append(rules, defaultRules...)
	return &Classifier{rules: rules}
}

// Rules returns the effective rule table in precedence order.
func (c *Classifier) Rules() []Rule { return slices.Clone(c.rules) }

// Classify maps error text to a category. Nil or blank text, and text no
// rule matches, yield CategoryUnknown. Classify is total and never fails.
func (c *Classifier) Classify(text *string) domain.ErrorCategory {
	if text == nil {
		return domain.CategoryUnknown
	}
	trimmed := strings.TrimSpace(*text)
	if trimmed == "" {
		return domain.CategoryUnknown
	}
	// Casers are stateful; one per call keeps Classify safe for concurrent use.
	folded := cases.Fold().String(trimmed)
	for _, r := range c.rules {
		if r.Pattern.MatchString(folded) {
			return r.Category
		}
	}
	return domain.CategoryUnknown
}

// ClassifyRecord classifies the record's error text.
func (c *Classifier) ClassifyRecord(r domain.CanonicalRecord) domain.ErrorCategory {
	return c.Classify(r.ErrorText)
}

// Bucket classifies the failed records and returns one bucket per
// category that occurred, ordered by count descending and then by category
// declaration order. Each bucket keeps at most limit distinct example test
// ids in first-seen order.
func (c *Classifier) Bucket(records []domain.CanonicalRecord, limit int) []domain.ErrorBucket {
	if limit <= 0 {
		limit = DefaultExampleLimit
	}

	counts := make(map[domain.ErrorCategory]int)
	examples := make(map[domain.ErrorCategory][]string)
	for _, r := range records {
		if r.Passed {
			continue
		}
		cat := c.ClassifyRecord(r)
		counts[cat]++
		ex := examples[cat]
		if len(ex) < limit && !slices.Contains(ex, r.TestID) {
			examples[cat] = append(ex, r.TestID)
		}
	}

	buckets := make([]domain.ErrorBucket, 0, len(counts))
	for _, cat := range domain.AllCategories() {
		n, ok := counts[cat]
		if !ok {
			continue
		}
		buckets = append(buckets, domain.ErrorBucket{
			Category:       cat,
			Count:          n,
			ExampleTestIDs: examples[cat],
		})
	}
	// Stable sort keeps declaration order among equal counts.
	slices.SortStableFunc(buckets, func(a, b domain.ErrorBucket) int { return b.Count - a.Count })
	return buckets
}
