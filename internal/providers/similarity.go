package providers

import (
	"strings"
	"unicode"
)

// TitleMatchThreshold is the minimum Jaccard similarity for a title
// lookup to count as a match.
const TitleMatchThreshold = 0.7

// normalizeTitle lowercases a title and removes every character that is
// not a letter, digit, or space.
func normalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// TitleSimilarity computes the Jaccard similarity of the token sets of
// two titles after normalization. The result is in [0, 1], symmetric,
// and insensitive to case and punctuation. Two empty token sets compare
// as identical.
func TitleSimilarity(a, b string) float64 {
	tokensA := strings.Fields(normalizeTitle(a))
	tokensB := strings.Fields(normalizeTitle(b))

	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1.0
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	setA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		setA[t] = true
	}
	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// TitlesMatch reports whether two titles clear TitleMatchThreshold.
func TitlesMatch(a, b string) bool {
	return TitleSimilarity(a, b) >= TitleMatchThreshold
}
