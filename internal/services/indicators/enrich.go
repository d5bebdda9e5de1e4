package indicators

import (
	"FinSignal/internal/domain/models"
)

const (
	rsiFastPeriod   = 14
	rsiSlowPeriod   = 21
	bollingerWindow = 20
	bollingerWidth  = 2.0
	stochWindow     = 14
	stochSmoothing  = 3
	volWindow       = 20
	momentumLag     = 5
)

// Enrich validates the series and derives every indicator column.
func Enrich(s models.Series) (*models.EnrichedSeries, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return Derive(s), nil
}

// Derive computes the indicator columns of an already validated series.
func Derive(s models.Series) *models.EnrichedSeries {
	closes := s.Closes()
	highs := s.Highs()
	lows := s.Lows()

	cols := make(map[string][]float64, 32)
	for _, w := range models.MovingAverageWindows {
		cols[models.SMAColumn(w)] = SMA(closes, w)
		cols[models.EMAColumn(w)] = EMA(closes, w)
	}

	rsi14 := RSI(closes, rsiFastPeriod)
	cols[models.ColRSI14] = rsi14
	cols[models.ColRSI21] = RSI(closes, rsiSlowPeriod)

	cols[models.ColMACD], cols[models.ColMACDSignal], cols[models.ColMACDHistogram] = MACD(closes)
	cols[models.ColBBUpper], cols[models.ColBBMiddle], cols[models.ColBBLower] = Bollinger(closes, bollingerWindow, bollingerWidth)
	cols[models.ColStochK], cols[models.ColStochD] = Stochastic(highs, lows, closes, stochWindow, stochSmoothing)
	cols[models.ColWilliamsR] = WilliamsR(highs, lows, closes, stochWindow)
	cols[models.ColVolatility] = Volatility(closes, volWindow)

	priceMom := Diff(closes, momentumLag)
	rsiMom := Diff(rsi14, momentumLag)
	cols[models.ColPriceMomentum] = priceMom
	cols[models.ColRSIMomentum] = rsiMom
	bull, bear := Divergence(priceMom, rsiMom, rsi14)

	return &models.EnrichedSeries{
		Series:            s,
		Columns:           cols,
		BullishDivergence: bull,
		BearishDivergence: bear,
	}
}
