package polarity

import (
	"context"

	"github.com/jonreiter/govader"

	"github.com/Koshroy/redditsentiment/internal/sentiment"
)

// Vader scores text with the VADER lexicon and returns the compound score.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader loads the lexicon. Loading is not free, so keep the result around.
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Score(_ context.Context, text string) (float64, error) {
	if isBlank(text) {
		return 0, nil
	}
	return sentiment.Clamp(v.analyzer.PolarityScores(text).Compound), nil
}
