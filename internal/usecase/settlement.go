package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/services/performance"
	applogger "FinSignal/pkg/logger"
)

// Payoff holds the fixed-odds terms used for automatic settlement.
type Payoff struct {
	Stake  float64
	Payout float64
}

// CloseRule selects the bar a decision is settled against: the first bar of
// Timeframe stamped at or after expiry, accepted only within MaxLag of it.
type CloseRule struct {
	Timeframe domrepo.Timeframe
	MaxLag    time.Duration
}

// maxCloseWindow bounds how many bars one settlement reads back.
const maxCloseWindow = 1440

var (
	// ErrClosePending means no bar at or after expiry has been ingested yet.
	// The job is expected to be retried.
	ErrClosePending = errors.New("closing bar not available yet")
	// ErrCloseGap means the first bar after expiry is too far from it to
	// stand in for the expiry price.
	ErrCloseGap = errors.New("closing bar too far past expiry")
)

// SettlementUseCase applies outcomes to decisions, at most once each.
type SettlementUseCase struct {
	store      domrepo.DecisionStore
	market     domrepo.MarketData
	rule       CloseRule
	perf       *PerformanceUseCase
	publishers []domrepo.DecisionPublisher
	payoff     Payoff
	metrics    domrepo.Metrics
	l          *applogger.Logger
	now        func() time.Time
}

func NewSettlementUseCase(
	store domrepo.DecisionStore,
	market domrepo.MarketData,
	rule CloseRule,
	perf *PerformanceUseCase,
	payoff Payoff,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	publishers ...domrepo.DecisionPublisher,
) *SettlementUseCase {
	return &SettlementUseCase{
		store:      store,
		market:     market,
		rule:       rule.withDefaults(),
		perf:       perf,
		publishers: publishers,
		payoff:     payoff,
		metrics:    metrics,
		l:          l,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Settle records result and profit for decision id, then refreshes the
// aggregate and announces the settlement. Returns models.ErrNotFound,
// models.ErrAlreadySettled or models.ErrInvalidResult on rejection.
func (uc *SettlementUseCase) Settle(ctx context.Context, id int64, result models.Result, profitLoss float64) (*models.SignalDecision, error) {
	d, err := uc.store.Settle(ctx, id, result, profitLoss)
	if err != nil {
		return nil, err
	}
	uc.metrics.RecordSettlement(d.Result)
	uc.l.Info("decision settled",
		applogger.Int64("id", d.ID),
		applogger.String("result", string(d.Result)),
		applogger.Float64("profit_loss", d.ProfitLoss),
	)

	if _, err := uc.perf.Recompute(ctx); err != nil {
		uc.l.Error("performance recompute after settlement failed", applogger.Error(err))
	}
	broadcast(ctx, uc.publishers, newDecisionEvent(models.EventSignalSettled, *d, uc.now()), uc.metrics, uc.l)
	return d, nil
}

// AutoSettle settles a decision against the close of the first bar stamped at
// or after its expiry. Decisions that are gone or already settled are dropped
// without error so the job is not retried. ErrClosePending is returned while
// that bar has not been ingested.
func (uc *SettlementUseCase) AutoSettle(ctx context.Context, task models.SettlementTask) error {
	d, err := uc.store.Get(ctx, task.DecisionID)
	if errors.Is(err, models.ErrNotFound) {
		uc.l.Warn("auto settlement for unknown decision", applogger.Int64("id", task.DecisionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load decision %d: %w", task.DecisionID, err)
	}
	if d.Settled() {
		return nil
	}

	bar, err := uc.closingBar(ctx, d)
	if err != nil {
		return fmt.Errorf("decision %d (%s): %w", d.ID, d.Asset, err)
	}

	result, pl := performance.Settle(*d, bar.Close, uc.payoff.Stake, uc.payoff.Payout)
	_, err = uc.Settle(ctx, d.ID, result, pl)
	if errors.Is(err, models.ErrAlreadySettled) {
		return nil
	}
	return err
}

func (uc *SettlementUseCase) closingBar(ctx context.Context, d *models.SignalDecision) (models.Bar, error) {
	expiresAt := d.ExpiresAt()
	step := uc.rule.Timeframe.Duration()

	n := 2
	if behind := uc.now().Sub(expiresAt); behind > 0 {
		n += int(behind / step)
	}
	if n > maxCloseWindow {
		n = maxCloseWindow
	}

	series, err := uc.market.LatestSeries(ctx, d.Asset, n, uc.rule.Timeframe)
	if err != nil {
		return models.Bar{}, err
	}
	for _, b := range series {
		if b.Timestamp.Before(expiresAt) {
			continue
		}
		if lag := b.Timestamp.Sub(expiresAt); lag > uc.rule.MaxLag {
			uc.l.Warn("closing bar too far past expiry",
				applogger.Int64("id", d.ID),
				applogger.Duration("lag", lag))
			return models.Bar{}, ErrCloseGap
		}
		return b, nil
	}
	return models.Bar{}, ErrClosePending
}

func (r CloseRule) withDefaults() CloseRule {
	r.Timeframe = domrepo.NormalizeTimeframe(string(r.Timeframe))
	if r.MaxLag <= 0 {
		r.MaxLag = 5 * r.Timeframe.Duration()
	}
	return r
}
