package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corey/zeal/internal/apperrors"
	"github.com/corey/zeal/internal/ports"
)

// ExtractionPrompt instructs the model to return the query triple as JSON.
const ExtractionPrompt = "Extract 'dish', 'cuisine', and 'location' (city or two-letter state) from the query. " +
	"'Dish' must be a specific dish (not a cuisine), 'cuisine' must be a cuisine (not a dish). " +
	"'Location' must be either a city or a two-letter state code, never both. " +
	"Return a JSON object with keys: 'dish', 'cuisine', 'location'."

// Extractor implements ports.QueryExtractor.
type Extractor struct {
	client *Client
}

// NewExtractor wraps client.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

// Extract turns free text into a normalized ExtractedQuery. Content that is
// not the expected JSON object fails with kind parse.
func (e *Extractor) Extract(ctx context.Context, text string) (ports.ExtractedQuery, error) {
	maxTokens := e.client.maxTokens
	if maxTokens <= 0 {
		maxTokens = 48
	}
	content, err := e.client.Complete(ctx, ExtractionPrompt, text, maxTokens, e.client.temperature)
	if err != nil {
		return ports.ExtractedQuery{}, err
	}

	var q ports.ExtractedQuery
	if err := json.Unmarshal([]byte(stripFence(content)), &q); err != nil {
		return ports.ExtractedQuery{}, apperrors.NewExtractionError(apperrors.KindParse,
			fmt.Errorf("content %q: %w", truncate(content, 120), err))
	}
	return q.Normalize(), nil
}

// stripFence removes a surrounding markdown code fence, which models add
// even when asked for bare JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
