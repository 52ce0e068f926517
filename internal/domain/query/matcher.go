// Package query filters and ranks the enriched catalog.
package query

import (
	"sort"
	"strings"

	"github.com/corey/zeal/internal/ports"
)

// FilterAndRank returns the restaurants matching every non-nil field of q,
// ordered by rating descending. Missing ratings rank as 0; ties keep catalog
// order. The catalog is never modified.
func FilterAndRank(catalog []ports.Restaurant, q ports.ExtractedQuery) []ports.Restaurant {
	dish := lowerOrEmpty(q.Dish)
	cuisine := lowerOrEmpty(q.Cuisine)
	location := lowerOrEmpty(q.Location)

	out := make([]ports.Restaurant, 0)
	for _, r := range catalog {
		if q.Dish != nil && !anyContains(r.PopularDishes, dish) {
			continue
		}
		if q.Cuisine != nil && !anyContains(r.Cuisines, cuisine) {
			continue
		}
		if q.Location != nil && !locationMatches(r, location) {
			continue
		}
		out = append(out, r)
	}
	rank(out)
	return out
}

// Find returns restaurants whose searchable text contains text,
// case-insensitively, ranked like FilterAndRank. Blank text matches all.
func Find(catalog []ports.Restaurant, text string) []ports.Restaurant {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]ports.Restaurant, 0)
	for _, r := range catalog {
		if needle == "" || strings.Contains(r.SearchableText(), needle) {
			out = append(out, r)
		}
	}
	rank(out)
	return out
}

func rank(rs []ports.Restaurant) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].RatingOrZero() > rs[j].RatingOrZero()
	})
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func locationMatches(r ports.Restaurant, needle string) bool {
	if r.City != nil && strings.Contains(strings.ToLower(*r.City), needle) {
		return true
	}
	return r.State != nil && strings.Contains(strings.ToLower(*r.State), needle)
}

func lowerOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}
