package usecase

import (
	"context"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/repository"
	"FinSignal/pkg/cache"
	applogger "FinSignal/pkg/logger"
)

type fakeMetrics struct {
	mu          sync.Mutex
	decisions   []models.Direction
	noDecisions []string
	settlements []models.Result
	errors      []string
	performance []models.PerformanceAggregate
}

func (m *fakeMetrics) RecordDecision(_ string, dir models.Direction, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, dir)
}

func (m *fakeMetrics) RecordNoDecision(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noDecisions = append(m.noDecisions, reason)
}

func (m *fakeMetrics) RecordSettlement(r models.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements = append(m.settlements, r)
}

func (m *fakeMetrics) RecordPerformance(agg models.PerformanceAggregate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performance = append(m.performance, agg)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakeMarket struct {
	series models.Series
	err    error
	calls  []string
	lastN  int
	lastTF domrepo.Timeframe
}

func (f *fakeMarket) LatestSeries(_ context.Context, symbol string, n int, tf domrepo.Timeframe) (models.Series, error) {
	f.calls = append(f.calls, symbol)
	f.lastN, f.lastTF = n, tf
	return f.series, f.err
}

type fakeEvaluator struct {
	ev  *models.Evaluation
	err error
}

func (f fakeEvaluator) Evaluate(context.Context, string, models.Series) (*models.Evaluation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.ev
	if f.ev.Decision != nil {
		d := *f.ev.Decision
		out.Decision = &d
	}
	return &out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.DecisionEvent
	err    error
}

func (p *fakePublisher) PublishDecision(_ context.Context, evt models.DecisionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

type fakeScheduler struct {
	scheduled []models.SignalDecision
}

func (s *fakeScheduler) ScheduleSettlement(_ context.Context, d models.SignalDecision) error {
	s.scheduled = append(s.scheduled, d)
	return nil
}

var t0 = time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)

func bars(closes ...float64) models.Series {
	return barsFrom(t0, closes...)
}

func barsFrom(start time.Time, closes ...float64) models.Series {
	s := make(models.Series, len(closes))
	for i, c := range closes {
		s[i] = models.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return s
}

func buyDecision(asset string, entry float64) *models.SignalDecision {
	return &models.SignalDecision{
		Asset:         asset,
		Direction:     models.DirectionBuy,
		EntryPrice:    entry,
		ExpiryMinutes: 5,
		Confidence:    70,
		CreatedAt:     t0,
		IsActive:      true,
	}
}

type fixture struct {
	store   *repository.MemoryDecisionStore
	cache   *repository.PerformanceCache
	mem     *cache.MemoryCache
	metrics *fakeMetrics
	perf    *PerformanceUseCase
	pub     *fakePublisher
	market  *fakeMarket
	settle  *SettlementUseCase
}

func newFixture() *fixture {
	f := &fixture{
		store:   repository.NewMemoryDecisionStore(),
		mem:     cache.NewMemoryCache(),
		metrics: &fakeMetrics{},
		pub:     &fakePublisher{},
		market:  &fakeMarket{},
	}
	f.cache = repository.NewPerformanceCache(f.mem)
	f.perf = NewPerformanceUseCase(f.store, f.cache, f.mem, f.metrics, applogger.NewNop())
	f.settle = NewSettlementUseCase(f.store, f.market, CloseRule{Timeframe: domrepo.TF1m}, f.perf, Payoff{Stake: 10, Payout: 0.85}, f.metrics, applogger.NewNop(), f.pub)
	f.settle.now = func() time.Time { return t0.Add(6 * time.Minute) }
	return f
}
