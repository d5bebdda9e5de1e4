package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/services/performance"
	applogger "FinSignal/pkg/logger"
)

const verifyLockKey = "performance:verify"

// Locker guards work that must run on one instance at a time.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// PerformanceUseCase keeps the cached aggregate in step with the decision
// history. The history is the source of truth; the cache is disposable.
type PerformanceUseCase struct {
	store   domrepo.DecisionStore
	cache   domrepo.PerformanceCache
	locker  Locker
	metrics domrepo.Metrics
	l       *applogger.Logger
	now     func() time.Time

	// serializes recompute+store so an older scan never overwrites a newer one
	mu sync.Mutex
}

func NewPerformanceUseCase(store domrepo.DecisionStore, cache domrepo.PerformanceCache, locker Locker, metrics domrepo.Metrics, l *applogger.Logger) *PerformanceUseCase {
	return &PerformanceUseCase{
		store:   store,
		cache:   cache,
		locker:  locker,
		metrics: metrics,
		l:       l,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Recompute rebuilds the aggregate from all settled decisions and caches it.
// A cache write failure is logged; the fresh aggregate is still returned.
func (uc *PerformanceUseCase) Recompute(ctx context.Context) (models.PerformanceAggregate, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.recompute(ctx)
}

func (uc *PerformanceUseCase) recompute(ctx context.Context) (models.PerformanceAggregate, error) {
	settled, err := uc.store.ListSettled(ctx)
	if err != nil {
		uc.metrics.RecordError("store")
		return models.PerformanceAggregate{}, fmt.Errorf("list settled decisions: %w", err)
	}
	agg := performance.Recompute(settled, uc.now())
	uc.metrics.RecordPerformance(agg)

	if err := uc.cache.Store(ctx, agg); err != nil {
		uc.metrics.RecordError("cache")
		uc.l.Warn("performance cache write failed", applogger.Error(err))
	}
	return agg, nil
}

// Get serves the cached aggregate, recomputing on a miss or cache error.
func (uc *PerformanceUseCase) Get(ctx context.Context) (models.PerformanceAggregate, error) {
	agg, err := uc.cache.Load(ctx)
	if err == nil {
		return *agg, nil
	}
	return uc.Recompute(ctx)
}

// Verify recomputes the aggregate and reports whether the cached copy had
// drifted from the history. Another instance holding the lock skips the run.
func (uc *PerformanceUseCase) Verify(ctx context.Context) (bool, error) {
	if uc.locker != nil {
		ok, err := uc.locker.TryLock(ctx, verifyLockKey, time.Minute)
		if err != nil {
			return false, fmt.Errorf("acquire verify lock: %w", err)
		}
		if !ok {
			uc.l.Debug("performance verify already running elsewhere")
			return false, nil
		}
		defer func() { _ = uc.locker.Unlock(context.WithoutCancel(ctx), verifyLockKey) }()
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	cached, cerr := uc.cache.Load(ctx)
	fresh, err := uc.recompute(ctx)
	if err != nil {
		return false, err
	}
	if cerr != nil || cached.SameStats(fresh) {
		return false, nil
	}

	uc.metrics.RecordError("performance_drift")
	uc.l.Warn("performance aggregate drift corrected",
		applogger.Int("cached_total", cached.Total),
		applogger.Int("total", fresh.Total),
		applogger.Float64("cached_profit", cached.TotalProfit),
		applogger.Float64("profit", fresh.TotalProfit),
	)
	return true, nil
}

// RunVerifier calls Verify every interval until ctx is done.
func (uc *PerformanceUseCase) RunVerifier(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := uc.Verify(ctx); err != nil {
				uc.l.Error("performance verify failed", applogger.Error(err))
			}
		}
	}
}
