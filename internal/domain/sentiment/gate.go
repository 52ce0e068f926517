// Package sentiment gates review text on a signed sentiment score.
package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/corey/zeal/internal/ports"
	"go.uber.org/zap"
)

// Gate classifies text as positive or not. It fails closed: a scorer error,
// a non-finite score or blank text is never positive.
type Gate struct {
	scorer ports.SentimentScorer
	log    *zap.Logger
}

// NewGate wraps scorer. A nil logger is replaced with a no-op one.
func NewGate(scorer ports.SentimentScorer, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{scorer: scorer, log: log.Named("sentiment")}
}

// IsPositive reports whether the first paragraph of text scores above zero.
func (g *Gate) IsPositive(ctx context.Context, text string) bool {
	para := FirstParagraph(text)
	if para == "" {
		return false
	}
	score, err := g.scorer.Score(ctx, para)
	if err != nil {
		g.log.Debug("sentiment unavailable, treating as not positive", zap.Error(err))
		return false
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		g.log.Debug("sentiment score not finite", zap.Float64("score", score))
		return false
	}
	return score > 0
}

// FirstParagraph returns the first non-blank line of text, trimmed.
func FirstParagraph(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			return p
		}
	}
	return ""
}
