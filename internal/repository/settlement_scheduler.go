package repository

import (
	"context"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

type delayedQueue interface {
	EnqueueAt(ctx context.Context, msgType string, payload interface{}, at time.Time) error
}

// QueueSettlementScheduler schedules a settlement job at the decision expiry,
// plus a grace period so the closing bar has been ingested.
type QueueSettlementScheduler struct {
	q     delayedQueue
	grace time.Duration
}

func NewQueueSettlementScheduler(q delayedQueue, grace time.Duration) *QueueSettlementScheduler {
	return &QueueSettlementScheduler{q: q, grace: grace}
}

func (s *QueueSettlementScheduler) ScheduleSettlement(ctx context.Context, d models.SignalDecision) error {
	due := d.ExpiresAt().Add(s.grace)
	task := models.SettlementTask{DecisionID: d.ID, Asset: d.Asset, DueAt: due}
	if err := s.q.EnqueueAt(ctx, models.SettlementTaskType, task, due); err != nil {
		return fmt.Errorf("schedule settlement %d: %w", d.ID, err)
	}
	return nil
}

var _ domrepo.SettlementScheduler = (*QueueSettlementScheduler)(nil)
