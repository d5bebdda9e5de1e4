// Package sentiment maps external fear/greed readings to a bounded score.
package sentiment

import "FinSignal/internal/domain/models"

const (
	NeutralScore     = 50
	bearishThreshold = 30
	bullishThreshold = 70
)

var classificationScores = map[string]int{
	"Extreme Fear":  20,
	"Fear":          35,
	"Greed":         65,
	"Extreme Greed": 80,
}

// Classify maps the reading's classification to a score, clamps it and derives
// the label from the final score. A nil reading stays nil.
func Classify(r *models.FearGreedReading) *models.SentimentReading {
	if r == nil {
		return nil
	}
	score, ok := classificationScores[r.Classification]
	if !ok {
		score = NeutralScore
	}
	score = clamp(score, 0, 100)
	return &models.SentimentReading{
		Score:     score,
		Label:     LabelFor(score),
		FearGreed: r,
	}
}

// LabelFor is the threshold classification of a score.
func LabelFor(score int) models.SentimentLabel {
	switch {
	case score < bearishThreshold:
		return models.SentimentBearish
	case score > bullishThreshold:
		return models.SentimentBullish
	default:
		return models.SentimentNeutral
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
