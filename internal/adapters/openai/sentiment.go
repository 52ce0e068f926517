package openai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/corey/zeal/internal/apperrors"
)

// SentimentPrompt asks for a bare signed score.
const SentimentPrompt = "Rate the sentiment of the restaurant review. " +
	"Reply with only a number between -1 (very negative) and 1 (very positive)."

// SentimentScorer implements ports.SentimentScorer with a model call.
type SentimentScorer struct {
	client *Client
}

// NewSentimentScorer wraps client.
func NewSentimentScorer(client *Client) *SentimentScorer {
	return &SentimentScorer{client: client}
}

// Score returns the model's score for text. A reply that is not a number is
// a parse error.
func (s *SentimentScorer) Score(ctx context.Context, text string) (float64, error) {
	content, err := s.client.Complete(ctx, SentimentPrompt, text, 8, 0)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
	if err != nil {
		return 0, apperrors.NewExtractionError(apperrors.KindParse, fmt.Errorf("score %q: %w", content, err))
	}
	return v, nil
}
