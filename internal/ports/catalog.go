package ports

import "strings"

// Restaurant is one enriched catalog entry. It is built once per source record
// and never mutated afterwards; a source change rebuilds the whole catalog.
//
// Cuisines and PopularDishes are lowercase, deduplicated and sorted. Optional
// scalar fields are pointers so "absent" survives a cache round trip.
type Restaurant struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	City            *string  `json:"city,omitempty"`
	State           *string  `json:"state,omitempty"`
	Country         *string  `json:"country,omitempty"`
	StreetAddress   *string  `json:"street_address,omitempty"`
	ZipCode         *string  `json:"zip_code,omitempty"`
	PhoneNumber     *string  `json:"phone_number,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	ImageURL        *string  `json:"image_url,omitempty"`
	RestaurantURL   *string  `json:"restaurant_url,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Cuisines        []string `json:"cuisines"`
	PopularDishes   []string `json:"popular_dishes"`
	FeaturedIn      []string `json:"featured_in,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Description     string   `json:"description"`
	EndorsementCopy string   `json:"endorsement_copy"`
}

// RatingOrZero returns the rating used for ordering: absent ratings rank as 0.
func (r *Restaurant) RatingOrZero() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// SearchableText is the lowercased free-text view of a restaurant, one field
// per line: name, featured-in, description, endorsement, tags, cuisines, dishes.
func (r *Restaurant) SearchableText() string {
	lines := []string{
		r.Name,
		strings.Join(r.FeaturedIn, " "),
		r.Description,
		r.EndorsementCopy,
		strings.Join(r.Tags, " "),
		strings.Join(r.Cuisines, " "),
		strings.Join(r.PopularDishes, " "),
	}
	return strings.ToLower(strings.Join(lines, "\n"))
}

// ExtractedQuery is the structured form of one free-text user query. A nil
// field is a wildcard.
type ExtractedQuery struct {
	Dish     *string `json:"dish"`
	Cuisine  *string `json:"cuisine"`
	Location *string `json:"location"`
}

// Normalize trims every field and turns empty strings into nil, so a blank
// answer from the extraction service stays a wildcard.
func (q ExtractedQuery) Normalize() ExtractedQuery {
	return ExtractedQuery{
		Dish:     trimOrNil(q.Dish),
		Cuisine:  trimOrNil(q.Cuisine),
		Location: trimOrNil(q.Location),
	}
}

// IsEmpty reports whether every field is a wildcard.
func (q ExtractedQuery) IsEmpty() bool {
	return q.Dish == nil && q.Cuisine == nil && q.Location == nil
}

// String renders the query as dish/cuisine/location with "*" for wildcards.
func (q ExtractedQuery) String() string {
	return orStar(q.Dish) + "/" + orStar(q.Cuisine) + "/" + orStar(q.Location)
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func orStar(s *string) string {
	if s == nil {
		return "*"
	}
	return *s
}
