package repository

import (
	"context"
	"math/rand/v2"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

const otcVarianceBand = 0.0005

// InstrumentSource resolves instrument labels to feed symbols before reading
// bars. When variance is enabled, bars of OTC instruments are scaled by one
// random factor per bar in [1-band, 1+band]. All four prices of a bar share
// the factor, so OHLC ordering is preserved.
type InstrumentSource struct {
	next       domrepo.MarketData
	dataSymbol func(asset string) string
	isOTC      func(asset string) bool
	variance   bool
	factor     func() float64
}

func NewInstrumentSource(next domrepo.MarketData, dataSymbol func(string) string, isOTC func(string) bool, variance bool) *InstrumentSource {
	return &InstrumentSource{
		next:       next,
		dataSymbol: dataSymbol,
		isOTC:      isOTC,
		variance:   variance,
		factor: func() float64 {
			return 1 - otcVarianceBand + rand.Float64()*2*otcVarianceBand
		},
	}
}

// LatestSeries takes an instrument label, not a feed symbol.
func (s *InstrumentSource) LatestSeries(ctx context.Context, asset string, n int, tf domrepo.Timeframe) (models.Series, error) {
	series, err := s.next.LatestSeries(ctx, s.dataSymbol(asset), n, tf)
	if err != nil || !s.variance || !s.isOTC(asset) {
		return series, err
	}
	out := make(models.Series, len(series))
	for i, b := range series {
		f := s.factor()
		b.Open *= f
		b.High *= f
		b.Low *= f
		b.Close *= f
		out[i] = b
	}
	return out, nil
}

var _ domrepo.MarketData = (*InstrumentSource)(nil)
