package models

import "time"

// Decision event types.
const (
	EventSignalCreated = "signal.created"
	EventSignalSettled = "signal.settled"
)

// DecisionEvent is the message broadcast when a decision is created or settled.
type DecisionEvent struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Decision SignalDecision `json:"decision"`
	At       time.Time      `json:"at"`
}

// SettlementEvent is an externally produced outcome for a decision.
type SettlementEvent struct {
	DecisionID int64   `json:"decision_id"`
	Result     string  `json:"result"`
	ProfitLoss float64 `json:"profit_loss"`
}

// AssetCatalog is the tradable universe grouped by category.
type AssetCatalog struct {
	Assets     []string            `json:"assets"`
	Categories map[string][]string `json:"categories"`
}

// SettlementTaskType is the queue message type of automatic settlements.
const SettlementTaskType = "settle_decision"

// SettlementTask is the delayed job that settles a decision at expiry.
type SettlementTask struct {
	DecisionID int64     `json:"decision_id"`
	Asset      string    `json:"asset"`
	DueAt      time.Time `json:"due_at"`
}
