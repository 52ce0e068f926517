// Package enricher derives normalized cuisine and dish keywords from free
// text. Vocabularies are loaded once at startup from embedded JSON.
//
// Two strategies compose per term: an exact substring pass over the lowercased
// text (one Aho-Corasick scan for the whole vocabulary), then, for terms the
// exact pass missed, a Levenshtein comparison against the whole blob.
package enricher

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/corey/zeal/internal/ports"
)

// Extractor matches text against one vocabulary.
type Extractor struct {
	vocab   *Vocabulary
	matcher ports.PatternMatcher
}

// NewExtractor compiles vocab into matcher.
func NewExtractor(vocab *Vocabulary, matcher ports.PatternMatcher) (*Extractor, error) {
	if err := matcher.Rebuild(vocab.Terms); err != nil {
		return nil, fmt.Errorf("build %s matcher: %w", vocab.Name, err)
	}
	return &Extractor{vocab: vocab, matcher: matcher}, nil
}

// Exact returns the terms contained in text as substrings.
func (x *Extractor) Exact(text string) []string {
	return x.matcher.Match(strings.ToLower(text))
}

// Fuzzy returns the terms within one edit of the whole text.
func (x *Extractor) Fuzzy(text string) []string {
	blob := strings.ToLower(text)
	var out []string
	for _, t := range x.vocab.Terms {
		if FuzzyMatches(blob, t) {
			out = append(out, t)
		}
	}
	return out
}

// Extract returns the sorted set of terms matched by either strategy.
// The fuzzy pass only considers terms the exact pass did not find.
func (x *Extractor) Extract(text string) []string {
	blob := strings.ToLower(text)
	found := make(map[string]struct{})
	for _, t := range x.matcher.Match(blob) {
		found[t] = struct{}{}
	}
	for _, t := range x.vocab.Terms {
		if _, ok := found[t]; ok {
			continue
		}
		if FuzzyMatches(blob, t) {
			found[t] = struct{}{}
		}
	}
	return sortedSet(found)
}

// Vocabulary returns the loaded vocabulary.
func (x *Extractor) Vocabulary() *Vocabulary {
	return x.vocab
}

// Enricher extracts cuisines and dishes.
type Enricher struct {
	cuisines *Extractor
	dishes   *Extractor
}

// New creates an Enricher from two compiled extractors.
func New(cuisines, dishes *Extractor) *Enricher {
	return &Enricher{cuisines: cuisines, dishes: dishes}
}

// NewFromFS loads both vocabularies from fsys and compiles each into its own
// matcher from newMatcher.
func NewFromFS(fsys fs.FS, cuisinesPath, dishesPath string, newMatcher func() ports.PatternMatcher) (*Enricher, error) {
	cv, err := LoadVocabulary(fsys, cuisinesPath)
	if err != nil {
		return nil, err
	}
	dv, err := LoadVocabulary(fsys, dishesPath)
	if err != nil {
		return nil, err
	}
	cx, err := NewExtractor(cv, newMatcher())
	if err != nil {
		return nil, err
	}
	dx, err := NewExtractor(dv, newMatcher())
	if err != nil {
		return nil, err
	}
	return New(cx, dx), nil
}

// Cuisines returns the cuisines found in text.
func (e *Enricher) Cuisines(text string) []string {
	return e.cuisines.Extract(text)
}

// Dishes returns the dishes found in text.
func (e *Enricher) Dishes(text string) []string {
	return e.dishes.Extract(text)
}

// Stats returns vocabulary statistics: entries and unique terms per vocabulary.
func (e *Enricher) Stats() (cuisineEntries, cuisineTerms, dishEntries, dishTerms int) {
	c, d := e.cuisines.vocab, e.dishes.vocab
	return c.Entries, c.UniqueTerms, d.Entries, d.UniqueTerms
}

// Union merges keyword sets into one sorted, deduplicated, lowercase list.
// The result is never nil.
func Union(sets ...[]string) []string {
	found := make(map[string]struct{})
	for _, s := range sets {
		for _, t := range s {
			found[strings.ToLower(t)] = struct{}{}
		}
	}
	return sortedSet(found)
}

func sortedSet(found map[string]struct{}) []string {
	out := make([]string, 0, len(found))
	for t := range found {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
