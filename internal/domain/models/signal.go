package models

import "time"

// Result is the settled outcome of a decision. The empty value means unset.
type Result string

const (
	ResultUnset Result = ""
	ResultWin   Result = "WIN"
	ResultLoss  Result = "LOSS"
)

// ParseResult accepts WIN or LOSS.
func ParseResult(s string) (Result, error) {
	switch Result(s) {
	case ResultWin, ResultLoss:
		return Result(s), nil
	default:
		return ResultUnset, ErrInvalidResult
	}
}

// SignalDecision is the persisted output of one fusion evaluation.
// It is mutated once, at settlement, and never deleted.
type SignalDecision struct {
	ID            int64     `json:"id"`
	Asset         string    `json:"asset"`
	Direction     Direction `json:"signal_type"`
	EntryPrice    float64   `json:"entry_price"`
	ExpiryMinutes int       `json:"expiry_time"`
	Confidence    float64   `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
	IsActive      bool      `json:"is_active"`
	Result        Result    `json:"result,omitempty"`
	ProfitLoss    float64   `json:"profit_loss"`
}

func (d *SignalDecision) Settled() bool { return d.Result != ResultUnset }

// ExpiresAt is the wall time at which the outcome becomes known.
func (d *SignalDecision) ExpiresAt() time.Time {
	return d.CreatedAt.Add(time.Duration(d.ExpiryMinutes) * time.Minute)
}

// Settle applies the one-time settlement write-back.
func (d *SignalDecision) Settle(result Result, profitLoss float64) error {
	if result != ResultWin && result != ResultLoss {
		return ErrInvalidResult
	}
	if d.Settled() {
		return ErrAlreadySettled
	}
	d.IsActive = false
	d.Result = result
	d.ProfitLoss = profitLoss
	return nil
}

// Decision sources.
const (
	SourceStructure     = "structure"
	SourceIndicatorVote = "indicator_vote"
)

// VoteTally counts fallback indicator votes on the latest bar.
type VoteTally struct {
	Buy  int `json:"buy"`
	Sell int `json:"sell"`
}

// Evaluation is the outcome of one fusion run. A nil Decision is a NoDecision
// and Reason says why.
type Evaluation struct {
	Decision   *SignalDecision     `json:"decision,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	Source     string              `json:"source,omitempty"`
	Opinion    *DirectionalOpinion `json:"structure_opinion,omitempty"`
	Sentiment  *SentimentReading   `json:"sentiment,omitempty"`
	Votes      *VoteTally          `json:"votes,omitempty"`
	Volatility float64             `json:"volatility"`
}

// NoDecision reasons.
const (
	ReasonInsufficientBars = "insufficient_bars"
	ReasonVoteTied         = "vote_tied"
	ReasonDataUnavailable  = "market_data_unavailable"
)
