package service

import (
	"context"

	"FinSignal/internal/domain/models"
)

// StructureAnalyzer proposes a direction from market structure. A nil opinion
// with a nil error means no opinion.
type StructureAnalyzer interface {
	Analyze(ctx context.Context, asset string, es *models.EnrichedSeries) (*models.DirectionalOpinion, error)
}

// SentimentSource fetches the external fear/greed reading.
type SentimentSource interface {
	FearGreed(ctx context.Context) (*models.FearGreedReading, error)
}
