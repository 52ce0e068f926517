package enricher

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// GroupDef is the JSON schema for one vocabulary group.
// Each vocabulary file contains an array of GroupDefs.
type GroupDef struct {
	Group string   `json:"group"`
	Terms []string `json:"terms"`
}

// Vocabulary is a closed keyword list loaded from embedded JSON.
type Vocabulary struct {
	Name   string
	Groups []GroupDef
	Terms  []string // lowercase, deduplicated, sorted

	Entries     int // total term entries across groups (includes cross-group duplicates)
	UniqueTerms int
}

// LoadVocabulary reads one vocabulary file from fsys. Terms are lowercased and
// trimmed; duplicates across groups collapse. Returns an error if the file
// fails to parse, holds an empty term, or yields no terms at all.
func LoadVocabulary(fsys fs.FS, path string) (*Vocabulary, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %q: %w", path, err)
	}

	var groups []GroupDef
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	seen := make(map[string]struct{})
	entries := 0
	for _, g := range groups {
		for _, t := range g.Terms {
			term := strings.ToLower(strings.TrimSpace(t))
			if term == "" {
				return nil, fmt.Errorf("%s: group %q has an empty term", path, g.Group)
			}
			entries++
			seen[term] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("vocabulary is empty: no terms in %q", path)
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	name := path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".json")

	return &Vocabulary{
		Name:        name,
		Groups:      groups,
		Terms:       terms,
		Entries:     entries,
		UniqueTerms: len(terms),
	}, nil
}
