package usecase

import (
	"context"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/queue"
)

// SettlementJob runs scheduled automatic settlements from the delayed queue.
type SettlementJob struct {
	uc *SettlementUseCase
}

func NewSettlementJob(uc *SettlementUseCase) *SettlementJob {
	return &SettlementJob{uc: uc}
}

func (j *SettlementJob) Name() string { return "auto_settlement" }

func (j *SettlementJob) Type() string { return models.SettlementTaskType }

func (j *SettlementJob) Handle(ctx context.Context, payload interface{}) error {
	task, err := queue.ParsePayload[models.SettlementTask](payload)
	if err != nil {
		return err
	}
	return j.uc.AutoSettle(ctx, *task)
}

var _ queue.Job = (*SettlementJob)(nil)
