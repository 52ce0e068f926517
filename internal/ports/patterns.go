package ports

// PatternMatcher finds keywords in content using multi-pattern matching (Aho-Corasick).
// A single pass over the content finds all matching keywords simultaneously,
// regardless of how many keywords are in the set. This is O(n + m + z) where
// n=content length, m=total pattern length, z=number of matches.
//
// Matching is substring containment: overlapping keywords ("korean" inside
// "korean bbq") are all reported.
type PatternMatcher interface {
	// Match returns the distinct keywords found in content. Returns nil if
	// no keywords match. Content is matched as-is (caller normalizes case).
	Match(content string) []string

	// Rebuild replaces the entire keyword set and reconstructs the automaton.
	// Returns an error if any keyword is empty.
	Rebuild(keywords []string) error
}
