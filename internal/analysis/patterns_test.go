package analysis

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

func TestDetectPatterns_NormalizesNumbers(t *testing.T) {
	patterns := DetectPatterns(mixedRecords(), NewClassifier(), PatternOptions{})
	require.Len(t, patterns, 1, "Only the timeout group reaches the default threshold")

	p := patterns[0]
	assert.Equal(t, "Request timed out after 30s", p.Message, "Message should be the first one seen")
	assert.Equal(t, domain.CategoryTimeout, p.Category)
	assert.Equal(t, 3, p.Frequency)
	assert.Equal(t, []string{"claude-3", "gemini"}, p.AffectedModels)
	assert.Equal(t, []string{"2", "3"}, p.AffectedTests)
}

func TestDetectPatterns_SimilarMessagesMerge(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec("a", "1", false, 0, "Expected output to contain 'Paris'"),
		rec("b", "2", false, 0, "Expected output to contain 'Parris'"),
		rec("c", "3", false, 0, "expected output to contain 'paris'"),
	}

	patterns := DetectPatterns(records, NewClassifier(), PatternOptions{Threshold: 2})
	require.Len(t, patterns, 1)
	assert.Equal(t, 3, patterns[0].Frequency)
	assert.Equal(t, []string{"a", "b", "c"}, patterns[0].AffectedModels)
}

func TestDetectPatterns_SimilarityRespectsCategory(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec("a", "1", false, 0, "error 429"),
		rec("a", "2", false, 0, "error 504"),
	}

	// Identical normalized text still splits by category.
	patterns := DetectPatterns(records, NewClassifier(), PatternOptions{Threshold: 1})
	require.Len(t, patterns, 2)
	assert.Equal(t, "error 429", patterns[0].Message)
	assert.Equal(t, domain.CategoryRateLimit, patterns[0].Category)
	assert.Equal(t, "error 504", patterns[1].Message)
	assert.Equal(t, domain.CategoryTimeout, patterns[1].Category)

	records = []domain.CanonicalRecord{
		rec("a", "1", false, 0, "quota exceeded"),
		rec("a", "2", false, 0, "quota exceededd"),
		rec("a", "3", false, 0, "quote exceeded"),
	}
	patterns = DetectPatterns(records, NewClassifier(), PatternOptions{Threshold: 1, Similarity: 0.9})
	require.Len(t, patterns, 2)
	assert.Equal(t, 2, patterns[0].Frequency)
	assert.Equal(t, domain.CategoryRateLimit, patterns[0].Category)
	assert.Equal(t, domain.CategoryUnknown, patterns[1].Category)
}

func TestDetectPatterns_CategoriesCountSeparately(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec("a", "1", false, 0, "HTTP 429 from upstream"),
		rec("b", "2", false, 0, "HTTP 429 from upstream"),
		rec("a", "3", false, 0, "HTTP 500 from upstream"),
		rec("b", "4", false, 0, "HTTP 500 from upstream"),
	}

	assert.Empty(t, DetectPatterns(records, NewClassifier(), PatternOptions{}),
		"Two groups of two stay below the default threshold")

	patterns := DetectPatterns(records, NewClassifier(), PatternOptions{Threshold: 2})
	require.Len(t, patterns, 2)
	for _, p := range patterns {
		assert.Equal(t, 2, p.Frequency, p.Message)
	}
	assert.Equal(t, domain.CategoryRateLimit, patterns[0].Category)
	assert.Equal(t, domain.CategoryProviderError, patterns[1].Category)
}

func TestDetectPatterns_Threshold(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec("a", "1", false, 0, "boom"),
		rec("a", "2", false, 0, "boom"),
		rec("a", "3", true, 0, "boom"),
	}

	assert.Empty(t, DetectPatterns(records, NewClassifier(), PatternOptions{}),
		"Passed records must not count toward a pattern")
	assert.Len(t, DetectPatterns(records, NewClassifier(), PatternOptions{Threshold: 2}), 1)
}

func TestDetectPatterns_MissingMessage(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec("a", "1", false, 0, ""),
		rec("b", "1", false, 0, ""),
		rec("c", "1", false, 0, ""),
	}

	patterns := DetectPatterns(records, NewClassifier(), PatternOptions{})
	require.Len(t, patterns, 1)
	assert.Equal(t, "Unknown error", patterns[0].Message)
	assert.Equal(t, domain.CategoryUnknown, patterns[0].Category)
	assert.Equal(t, []string{"1"}, patterns[0].AffectedTests)
}

func TestDetectPatterns_TestLimit(t *testing.T) {
	var records []domain.CanonicalRecord
	for i := 30; i >= 1; i-- {
		records = append(records, rec("m", strconv.Itoa(i), false, 0, "timeout"))
	}

	patterns := DetectPatterns(records, NewClassifier(), PatternOptions{TestLimit: 5})
	require.Len(t, patterns, 1)
	assert.Equal(t, 30, patterns[0].Frequency)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, patterns[0].AffectedTests)
}

func TestDetectPatterns_Ordering(t *testing.T) {
	records := []domain.CanonicalRecord{
		rec("m", "1", false, 0, "zeta failure"),
		rec("m", "2", false, 0, "alpha failure"),
		rec("m", "3", false, 0, "beta problem here"),
		rec("m", "4", false, 0, "beta problem here"),
	}

	patterns := DetectPatterns(records, NewClassifier(), PatternOptions{Threshold: 1, Similarity: 0.99})
	require.Len(t, patterns, 3)
	assert.Equal(t, "beta problem here", patterns[0].Message)
	assert.Equal(t, "alpha failure", patterns[1].Message, "Equal frequencies order by message")
	assert.Equal(t, "zeta failure", patterns[2].Message)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.InDelta(t, 0.75, similarity("abcd", "abce"), 1e-9)
	assert.InDelta(t, 0.8, similarity("héllo", "hello"), 1e-9, "Distance counts runes, not bytes")
}
