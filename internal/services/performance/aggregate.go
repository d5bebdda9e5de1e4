// Package performance derives the win/loss aggregate from decision history.
package performance

import (
	"time"

	"FinSignal/internal/domain/models"
)

// Recompute scans the decision history and rebuilds the aggregate from the
// settled decisions only. It is a pure function of its input, so calling it
// twice on the same history yields the same statistics.
func Recompute(decisions []models.SignalDecision, now time.Time) models.PerformanceAggregate {
	agg := models.PerformanceAggregate{UpdatedAt: now}
	for _, d := range decisions {
		switch d.Result {
		case models.ResultWin:
			agg.Wins++
		case models.ResultLoss:
			agg.Losses++
		default:
			continue
		}
		agg.Total++
		agg.TotalProfit += d.ProfitLoss
	}
	if agg.Total > 0 {
		agg.WinRate = 100 * float64(agg.Wins) / float64(agg.Total)
	}
	return agg
}

// Settle computes the automatic outcome of a decision against the close at
// expiry. An unchanged close counts as a loss with zero profit.
func Settle(d models.SignalDecision, closeAtExpiry, stake, payout float64) (models.Result, float64) {
	won := false
	switch d.Direction {
	case models.DirectionBuy:
		won = closeAtExpiry > d.EntryPrice
	case models.DirectionSell:
		won = closeAtExpiry < d.EntryPrice
	}
	switch {
	case won:
		return models.ResultWin, stake * payout
	case closeAtExpiry == d.EntryPrice:
		return models.ResultLoss, 0
	default:
		return models.ResultLoss, -stake
	}
}
