package dedup

import "unicode/utf8"

// minFuzzyTitleLen is the shortest normalized title (in runes) considered
// for fuzzy matching; shorter titles produce too many false positives.
const minFuzzyTitleLen = 20

// DefaultSimilarityThreshold is the ratio at or above which two normalized
// titles count as the same story.
const DefaultSimilarityThreshold = 0.75

// Matcher reports near-duplicate titles using a block-matching similarity
// ratio over normalized text.
type Matcher struct {
	threshold float64
}

// NewMatcher builds a matcher with the given similarity threshold (0-1).
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// HasSimilar reports whether the candidate normalized title is similar to
// any previously accepted normalized title. The scan short-circuits on the
// first match; there is no best-match search. Candidates shorter than 20
// runes are never fuzzy-matched.
func (m *Matcher) HasSimilar(candidate string, accepted []string) bool {
	if candidate == "" {
		return false
	}

	candidateLen := utf8.RuneCountInString(candidate)
	if candidateLen < minFuzzyTitleLen {
		return false
	}

	candidateRunes := []rune(candidate)
	for _, seen := range accepted {
		// Cheap length pre-filter before the quadratic comparison.
		seenLen := utf8.RuneCountInString(seen)
		diff := candidateLen - seenLen
		if diff < 0 {
			diff = -diff
		}
		if float64(diff) > float64(candidateLen)*0.5 {
			continue
		}

		if ratioRunes(candidateRunes, []rune(seen)) >= m.threshold {
			return true
		}
	}
	return false
}

// Ratio computes a similarity ratio in [0,1] between two strings: twice the
// number of characters covered by the longest common matching blocks,
// divided by the total length of both strings. Order-sensitive, not
// token-based; equivalent to the classic sequence-matcher ratio.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	matched := matchingTotal(a, b, 0, len(a), 0, len(b))
	return 2 * float64(matched) / float64(total)
}

// matchingTotal sums the sizes of all matching blocks: the longest common
// run in the window, plus the blocks recursively found left and right of it.
func matchingTotal(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a, b, alo, i, blo, j) +
		matchingTotal(a, b, i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest run of equal runes within the given
// windows. Ties resolve to the earliest position in a, then in b, which
// keeps the block decomposition deterministic.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (bestI, bestJ, bestSize int) {
	bestI, bestJ = alo, blo

	// runEnding[j] is the length of the common run ending at a[i-1], b[j].
	runEnding := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := runEnding[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		runEnding = next
	}
	return bestI, bestJ, bestSize
}
