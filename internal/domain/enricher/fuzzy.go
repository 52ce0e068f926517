package enricher

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// FuzzyThreshold is the exclusive edit-distance bound for a fuzzy hit.
const FuzzyThreshold = 2

// FuzzyMatches reports whether the whole blob is within one edit of term.
// The comparison unit is the entire blob, not a window of it, so long text
// never fuzzy-matches a short term. Both arguments are expected lowercase.
func FuzzyMatches(blob, term string) bool {
	gap := utf8.RuneCountInString(blob) - utf8.RuneCountInString(term)
	if gap < 0 {
		gap = -gap
	}
	// Levenshtein distance is at least the length difference.
	if gap >= FuzzyThreshold {
		return false
	}
	return matchr.Levenshtein(blob, term) < FuzzyThreshold
}
