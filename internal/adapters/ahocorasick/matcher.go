// Package ahocorasick provides multi-pattern string matching using an Aho-Corasick automaton.
// It wraps the petar-dambovaliev/aho-corasick library for O(n + m + z) matching.
package ahocorasick

import (
	"errors"
	"sync"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher implements ports.PatternMatcher. Rebuild compiles an automaton;
// Match reports every keyword contained in content, overlaps included.
// Safe for concurrent Match calls; Rebuild swaps the automaton under a lock.
type Matcher struct {
	mu        sync.RWMutex
	automaton aho.AhoCorasick
	keywords  []string
	built     bool
}

// New returns a Matcher compiled from keywords.
func New(keywords []string) (*Matcher, error) {
	m := &Matcher{}
	if err := m.Rebuild(keywords); err != nil {
		return nil, err
	}
	return m, nil
}

// Rebuild replaces the automaton with a new set of keywords.
func (m *Matcher) Rebuild(keywords []string) error {
	for _, kw := range keywords {
		if kw == "" {
			return errors.New("ahocorasick: empty keyword")
		}
	}

	kws := make([]string, len(keywords))
	copy(kws, keywords)

	var automaton aho.AhoCorasick
	if len(kws) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		automaton = builder.Build(kws)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.automaton = automaton
	m.keywords = kws
	m.built = len(kws) > 0
	return nil
}

// Match returns the distinct keywords found in content, in first-seen order.
func (m *Matcher) Match(content string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.built || content == "" {
		return nil
	}

	// Overlapping iteration so "indian" still fires inside "south indian".
	iter := m.automaton.IterOverlappingByte([]byte(content))
	seen := make(map[int]bool)
	var result []string
	for next := iter.Next(); next != nil; next = iter.Next() {
		idx := next.Pattern()
		if !seen[idx] {
			seen[idx] = true
			result = append(result, m.keywords[idx])
		}
	}
	return result
}

// PatternCount returns the number of patterns in the automaton.
func (m *Matcher) PatternCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keywords)
}
