// Package record decodes the raw restaurant source into typed records.
//
// Decoding is strict only about the top level: the payload must be a JSON
// array of objects. Inside a record every field is optional, and a value of
// the wrong JSON type counts as absent. Parse never fails.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/corey/zeal/internal/apperrors"
	"github.com/xeipuuv/gojsonschema"
)

// UnknownName is the placeholder for records without a usable name.
const UnknownName = "Unknown Restaurant"

// MissingID marks a record without an integral id.
const MissingID = -1

const topLevelSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"type": "object"}
}`

var schemaLoader = gojsonschema.NewStringLoader(topLevelSchema)

// RawRecord is one untyped source object as delivered by the data file.
type RawRecord map[string]any

// Record is the typed intermediate form of a RawRecord, before enrichment.
type Record struct {
	ID              int
	Name            string
	City            *string
	State           *string
	Country         *string
	StreetAddress   *string
	ZipCode         *string
	PhoneNumber     *string
	Rating          *float64
	ImageURL        *string
	RestaurantURL   *string
	Latitude        *float64
	Longitude       *float64
	FeaturedIn      []string
	Tags            []string
	CuisineList     []string
	TopReviews      []string
	Description     string
	EndorsementCopy string
}

// Decode validates the top-level shape of raw and returns its records.
// Anything other than an array of objects is a MALFORMED_TOP_LEVEL error.
func Decode(raw []byte) ([]RawRecord, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, apperrors.NewMalformedTopLevelError("empty payload")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.NewMalformedTopLevelError(fmt.Sprintf("invalid JSON: %v", err))
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, apperrors.NewMalformedTopLevelError(fmt.Sprintf("schema validation: %v", err))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, apperrors.NewMalformedTopLevelError(strings.Join(msgs, "; "))
	}

	items := doc.([]any)
	out := make([]RawRecord, len(items))
	for i, item := range items {
		out[i] = RawRecord(item.(map[string]any))
	}
	return out, nil
}

// Parse applies the documented defaults to one raw record.
func Parse(raw RawRecord) Record {
	r := Record{
		ID:              MissingID,
		Name:            UnknownName,
		City:            raw.nonEmptyString("city"),
		Country:         raw.string("country"),
		StreetAddress:   raw.string("street_address"),
		ZipCode:         raw.string("zip_code"),
		PhoneNumber:     raw.string("phone_number"),
		Rating:          raw.number("rating"),
		ImageURL:        raw.string("image_url"),
		RestaurantURL:   raw.string("restaurant_url"),
		Latitude:        raw.number("latitude"),
		Longitude:       raw.number("longitude"),
		FeaturedIn:      raw.stringList("featured_in"),
		Tags:            raw.stringList("tags"),
		CuisineList:     raw.stringList("cuisine_list"),
		TopReviews:      raw.reviews("top_reviews"),
		Description:     deref(raw.string("description")),
		EndorsementCopy: deref(raw.string("endorsement_copy")),
	}

	if id := raw.number("id"); id != nil && *id == math.Trunc(*id) && math.Abs(*id) <= math.MaxInt32 {
		r.ID = int(*id)
	}
	if name := raw.string("name"); name != nil {
		r.Name = *name
	}
	if state := raw.nonEmptyString("state"); state != nil {
		s := NormalizeState(*state)
		r.State = &s
	}
	return r
}

// NormalizeState rewrites "california" in any case to "CA". Every other
// value passes through unchanged.
func NormalizeState(state string) string {
	if strings.EqualFold(state, "california") {
		return "CA"
	}
	return state
}

// CuisineText is the blob cuisines are extracted from: cuisine list,
// endorsement, description and tags joined by single spaces. Empty parts are
// skipped, so a record with only a short description yields exactly that text.
func (r Record) CuisineText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{
		strings.Join(r.CuisineList, " "),
		r.EndorsementCopy,
		r.Description,
		strings.Join(r.Tags, " "),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// DishText is the base blob for dish extraction. It is the same text as
// CuisineText; reviews are handled separately.
func (r Record) DishText() string {
	return r.CuisineText()
}

func (raw RawRecord) string(key string) *string {
	s, ok := raw[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func (raw RawRecord) nonEmptyString(key string) *string {
	s := raw.string(key)
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func (raw RawRecord) number(key string) *float64 {
	f, ok := raw[key].(float64)
	if !ok {
		return nil
	}
	return &f
}

// stringList keeps the string elements of a JSON array, in order. A missing
// field, a non-array, or an array without strings is nil.
func (raw RawRecord) stringList(key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// reviews accepts either plain strings or objects carrying a "text" field.
func (raw RawRecord) reviews(key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if s, ok := v["text"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
