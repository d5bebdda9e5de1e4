package models

import "time"

// FearGreedReading is the raw external fear/greed index.
type FearGreedReading struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
}

type SentimentLabel string

const (
	SentimentBearish SentimentLabel = "BEARISH"
	SentimentNeutral SentimentLabel = "NEUTRAL"
	SentimentBullish SentimentLabel = "BULLISH"
)

// SentimentReading is a bounded score with a threshold-derived label.
type SentimentReading struct {
	Score     int               `json:"score"`
	Label     SentimentLabel    `json:"label"`
	FearGreed *FearGreedReading `json:"fear_greed,omitempty"`
}
