package repository

import (
	"context"

	"FinSignal/internal/domain/models"
)

// Timeframe represents bar resolution buckets.
type Timeframe string

const (
	TF1s Timeframe = "1s"
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
)

// MarketData returns the latest bars for a feed symbol, oldest first.
// An empty series means the data is unavailable.
type MarketData interface {
	LatestSeries(ctx context.Context, symbol string, n int, tf Timeframe) (models.Series, error)
}

// BarWriter stores ingested bars.
type BarWriter interface {
	WriteBars(ctx context.Context, symbol string, tf Timeframe, bars []models.Bar) error
}

// BarStore serves reads and ingestion from the same backend.
type BarStore interface {
	MarketData
	BarWriter
}
