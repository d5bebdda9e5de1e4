package usecase

import (
	"context"
	"fmt"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

// SignalsQueryUseCase serves read-only views of the decision history.
type SignalsQueryUseCase struct {
	store domrepo.DecisionStore
}

func NewSignalsQueryUseCase(store domrepo.DecisionStore) *SignalsQueryUseCase {
	return &SignalsQueryUseCase{store: store}
}

// Current returns active decisions, newest first.
func (uc *SignalsQueryUseCase) Current(ctx context.Context, limit int) ([]models.SignalDecision, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := uc.store.ListActive(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list active decisions: %w", err)
	}
	if out == nil {
		out = []models.SignalDecision{}
	}
	return out, nil
}

// History returns one page of decisions, optionally for a single asset.
func (uc *SignalsQueryUseCase) History(ctx context.Context, req models.HistoryRequest) (*models.HistoryPage, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = 20
	}
	items, total, err := uc.store.History(ctx, domrepo.HistoryQuery{
		Asset:  req.Asset,
		Offset: (req.Page - 1) * req.PerPage,
		Limit:  req.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("decision history: %w", err)
	}
	if items == nil {
		items = []models.SignalDecision{}
	}
	return &models.HistoryPage{
		Signals: items,
		Page:    req.Page,
		Pages:   int((total + int64(req.PerPage) - 1) / int64(req.PerPage)),
		PerPage: req.PerPage,
		Total:   total,
	}, nil
}
