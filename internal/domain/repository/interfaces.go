package repository

import (
	"context"

	"FinSignal/internal/domain/models"
)

// HistoryQuery selects a page of decisions, newest first.
type HistoryQuery struct {
	Asset  string
	Offset int
	Limit  int
}

// DecisionStore persists signal decisions. Appends are atomic per record and
// settlement happens at most once per decision.
type DecisionStore interface {
	Append(ctx context.Context, d *models.SignalDecision) error
	Get(ctx context.Context, id int64) (*models.SignalDecision, error)
	Settle(ctx context.Context, id int64, result models.Result, profitLoss float64) (*models.SignalDecision, error)
	ListActive(ctx context.Context, limit int) ([]models.SignalDecision, error)
	History(ctx context.Context, q HistoryQuery) ([]models.SignalDecision, int64, error)
	ListSettled(ctx context.Context) ([]models.SignalDecision, error)
}

// PerformanceCache holds the last computed aggregate.
type PerformanceCache interface {
	Load(ctx context.Context) (*models.PerformanceAggregate, error)
	Store(ctx context.Context, agg models.PerformanceAggregate) error
}

// DecisionPublisher fans decision events out to subscribers.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, evt models.DecisionEvent) error
}

// SettlementScheduler arranges automatic settlement at expiry.
type SettlementScheduler interface {
	ScheduleSettlement(ctx context.Context, d models.SignalDecision) error
}

type Metrics interface {
	RecordDecision(asset string, dir models.Direction, source string)
	RecordNoDecision(reason string)
	RecordSettlement(result models.Result)
	RecordPerformance(agg models.PerformanceAggregate)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
