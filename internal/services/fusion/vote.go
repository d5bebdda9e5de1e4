package fusion

import (
	"math"

	"FinSignal/internal/domain/models"
)

// Vote tallies the fallback indicator votes on the most recent enriched bar.
// Undefined indicator values cast no vote.
func Vote(es *models.EnrichedSeries, cfg Config) models.VoteTally {
	var t models.VoteTally
	close := es.LatestClose()

	rsi := es.Latest(models.ColRSI14)
	switch {
	case rsi < cfg.RSIOversold:
		t.Buy++
	case rsi > cfg.RSIOverbought:
		t.Sell++
	}

	if ema := es.Latest(models.EMAColumn(21)); !math.IsNaN(ema) {
		if close > ema {
			t.Buy++
		} else {
			t.Sell++
		}
	}

	lower, upper := es.Latest(models.ColBBLower), es.Latest(models.ColBBUpper)
	switch {
	case close <= lower:
		t.Buy++
	case close >= upper:
		t.Sell++
	}
	return t
}

// Winner returns the side with strictly more votes, or NONE on a tie.
func Winner(t models.VoteTally) models.Direction {
	switch {
	case t.Buy > t.Sell:
		return models.DirectionBuy
	case t.Sell > t.Buy:
		return models.DirectionSell
	default:
		return models.DirectionNone
	}
}
