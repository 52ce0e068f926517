package ports

import "context"

// QueryExtractor turns one free-text user query into a structured
// dish/cuisine/location triple. It is backed by an external service; errors
// are surfaced to the user rather than treated as an empty query.
type QueryExtractor interface {
	Extract(ctx context.Context, text string) (ExtractedQuery, error)
}
