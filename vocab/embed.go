// Package vocab embeds the closed keyword vocabularies used for enrichment.
// Each JSON file is an array of groups; each group lists lowercase terms.
// A term may appear in more than one group (regional overlaps); loaders
// deduplicate, so repeats are harmless.
//
// Usage:
//
//	enricher.LoadVocabulary(vocab.FS, "v1/cuisines.json")
package vocab

import "embed"

//go:embed v1/*.json
var FS embed.FS

// Embedded vocabulary paths.
const (
	CuisinesPath = "v1/cuisines.json"
	DishesPath   = "v1/dishes.json"
)
