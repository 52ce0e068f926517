// Package vader scores sentiment with the VADER lexicon. It needs no network
// and is the default scorer.
package vader

import (
	"context"

	"github.com/jonreiter/govader"
)

// Scorer implements ports.SentimentScorer with VADER's compound score,
// a normalized value in [-1, 1].
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// New loads the embedded lexicon.
func New() *Scorer {
	return &Scorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity of text.
func (s *Scorer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.analyzer.PolarityScores(text).Compound, nil
}
