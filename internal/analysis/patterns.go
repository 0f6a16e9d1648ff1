package analysis

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-tally/internal/domain"
)

const (
	// DefaultPatternThreshold is the minimum frequency for a message group
	// to be reported as a pattern.
	DefaultPatternThreshold = 3

	// DefaultPatternSimilarity is the normalized Levenshtein similarity at
	// which two messages are treated as the same pattern.
	DefaultPatternSimilarity = 0.85

	// DefaultPatternTestLimit bounds AffectedTests per pattern.
	DefaultPatternTestLimit = 20

	unknownErrorMessage = "Unknown error"
)

var (
	digitRuns  = regexp.MustCompile(`[0-9]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// PatternOptions tunes error pattern detection.
type PatternOptions struct {
	Threshold  int
	Similarity float64
	TestLimit  int
}

type patternAcc struct {
	norm     string
	message  string
	category domain.ErrorCategory
	count    int
	models   map[string]struct{}
	tests    map[string]struct{}
	vars     map[string]string
}

// normalizeMessage folds case, collapses digit runs and squeezes whitespace
// so messages differing only in ids, durations or counts compare equal.
func normalizeMessage(msg string) string {
	folded := cases.Fold().String(strings.TrimSpace(msg))
	folded = digitRuns.ReplaceAllString(folded, "#")
	return whitespace.ReplaceAllString(folded, " ")
}

// similarity returns 1 - distance/longest, in [0, 1].
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	// The levenshtein library correctly handles multi-byte UTF-8 characters.
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// DetectPatterns groups failure messages into recurring patterns. Messages
// are first matched by normalized text, then by similarity to existing
// groups of the same category. Groups below the threshold are dropped.
// Results are ordered by frequency descending, then message ascending.
func DetectPatterns(records []domain.CanonicalRecord, classifier *Classifier, opts PatternOptions) []domain.ErrorPattern {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultPatternThreshold
	}
	if opts.Similarity <= 0 || opts.Similarity > 1 {
		opts.Similarity = DefaultPatternSimilarity
	}
	if opts.TestLimit <= 0 {
		opts.TestLimit = DefaultPatternTestLimit
	}

	var groups []*patternAcc
	// byNorm is keyed by category and normalized text; groups never span
	// categories even when messages normalize identically.
	byNorm := make(map[string]*patternAcc)

	for _, r := range records {
		if r.Passed {
			continue
		}
		msg := strings.TrimSpace(r.ErrorMessage())
		if msg == "" {
			msg = unknownErrorMessage
		}
		norm := normalizeMessage(msg)
		cat := classifier.ClassifyRecord(r)
		key := cat.String() + "\x00" + norm

		g, ok := byNorm[key]
		if !ok {
			for _, candidate := range groups {
				if candidate.category == cat && similarity(candidate.norm, norm) >= opts.Similarity {
					g = candidate
					break
				}
			}
		}
		if g == nil {
			g = &patternAcc{
				norm:     norm,
				message:  msg,
				category: cat,
				models:   make(map[string]struct{}),
				tests:    make(map[string]struct{}),
				vars:     r.Vars,
			}
			groups = append(groups, g)
		}
		byNorm[key] = g

		g.count++
		g.models[r.Model] = struct{}{}
		g.tests[r.TestID] = struct{}{}
	}

	out := make([]domain.ErrorPattern, 0, len(groups))
	for _, g := range groups {
		if g.count < opts.Threshold {
			continue
		}
		tests := make([]string, 0, len(g.tests))
		for id := range g.tests {
			tests = append(tests, id)
		}
		tests = sortIDs(tests)
		if len(tests) > opts.TestLimit {
			tests = tests[:opts.TestLimit]
		}
		out = append(out, domain.ErrorPattern{
			Message:        g.message,
			Category:       g.category,
			Frequency:      g.count,
			AffectedModels: sortedKeys(g.models),
			AffectedTests:  tests,
			ExampleVars:    g.vars,
		})
	}

	slices.SortFunc(out, func(a, b domain.ErrorPattern) int {
		if a.Frequency != b.Frequency {
			return b.Frequency - a.Frequency
		}
		return strings.Compare(a.Message, b.Message)
	})
	return out
}
