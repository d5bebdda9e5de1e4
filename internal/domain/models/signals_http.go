package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Requests for signal HTTP endpoints.

type GenerateSignalRequest struct {
	Asset string `json:"asset" default:"EUR/USD" validate:"required,max=64"`
}

type HistoryRequest struct {
	Page    int    `query:"page" json:"page" default:"1" validate:"gte=1"`
	PerPage int    `query:"per_page" json:"per_page" default:"20" validate:"gte=1,lte=200"`
	Asset   string `query:"asset" json:"asset" validate:"max=64"`
}

type CurrentSignalsRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type SettleRequest struct {
	ID         int64   `param:"id" json:"-" validate:"gt=0"`
	Result     string  `json:"result" validate:"required,oneof=WIN LOSS"`
	ProfitLoss float64 `json:"profit_loss"`
}

// HistoryPage is one page of decision history.
type HistoryPage struct {
	Signals []SignalDecision `json:"signals"`
	Page    int              `json:"page"`
	Pages   int              `json:"pages"`
	PerPage int              `json:"per_page"`
	Total   int64            `json:"total"`
}

// GenerateResponse is the result of one generation request. Signal is null
// when no decision was made and Reason says why.
type GenerateResponse struct {
	Signal     *SignalDecision     `json:"signal"`
	Reason     string              `json:"reason,omitempty"`
	Source     string              `json:"source,omitempty"`
	Opinion    *DirectionalOpinion `json:"structure_opinion,omitempty"`
	Sentiment  *SentimentReading   `json:"sentiment,omitempty"`
	Votes      *VoteTally          `json:"votes,omitempty"`
	Volatility *float64            `json:"volatility,omitempty"`
}

// NewGenerateResponse drops a non-finite volatility so the body stays valid JSON.
func NewGenerateResponse(ev *Evaluation) GenerateResponse {
	out := GenerateResponse{
		Signal:    ev.Decision,
		Reason:    ev.Reason,
		Source:    ev.Source,
		Opinion:   ev.Opinion,
		Sentiment: ev.Sentiment,
		Votes:     ev.Votes,
	}
	if !math.IsNaN(ev.Volatility) && !math.IsInf(ev.Volatility, 0) {
		v := ev.Volatility
		out.Volatility = &v
	}
	return out
}

// PerformanceResponse is the aggregate rounded for display.
type PerformanceResponse struct {
	TotalSignals   int       `json:"total_signals"`
	WinningSignals int       `json:"winning_signals"`
	LosingSignals  int       `json:"losing_signals"`
	WinRate        float64   `json:"win_rate"`
	TotalProfit    float64   `json:"total_profit"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPerformanceResponse rounds win rate and profit to 2 dp.
func NewPerformanceResponse(agg PerformanceAggregate) PerformanceResponse {
	return PerformanceResponse{
		TotalSignals:   agg.Total,
		WinningSignals: agg.Wins,
		LosingSignals:  agg.Losses,
		WinRate:        round2(agg.WinRate),
		TotalProfit:    round2(agg.TotalProfit),
		UpdatedAt:      agg.UpdatedAt,
	}
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
