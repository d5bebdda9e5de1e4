package models

import "time"

// PerformanceAggregate summarizes all settled decisions. It is always
// reconstructible from the decision history.
type PerformanceAggregate struct {
	Total       int       `json:"total_signals"`
	Wins        int       `json:"winning_signals"`
	Losses      int       `json:"losing_signals"`
	WinRate     float64   `json:"win_rate"`
	TotalProfit float64   `json:"total_profit"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SameStats compares the recomputable fields, ignoring UpdatedAt.
func (p PerformanceAggregate) SameStats(o PerformanceAggregate) bool {
	return p.Total == o.Total && p.Wins == o.Wins && p.Losses == o.Losses &&
		p.WinRate == o.WinRate && p.TotalProfit == o.TotalProfit
}
