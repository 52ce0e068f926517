package ports

import "context"

// SentimentScorer assigns a signed polarity score to a piece of text.
// Positive means favorable. Implementations may be lexicon-based or call a
// model; an error means the score is unavailable.
type SentimentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}
