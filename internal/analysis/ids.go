package analysis

import (
	"slices"
	"strconv"
	"strings"
)

// CompareIDs orders test ids numerically when both are integers and
// lexically otherwise, so "2" sorts before "10". Integers sort before
// non-integers.
func CompareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// sortIDs sorts and de-duplicates ids in place.
func sortIDs(ids []string) []string {
	slices.SortFunc(ids, CompareIDs)
	return slices.Compact(ids)
}
