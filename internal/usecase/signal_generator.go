package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

// Evaluator runs one fusion over a series.
type Evaluator interface {
	Evaluate(ctx context.Context, asset string, s models.Series) (*models.Evaluation, error)
}

type GeneratorOption func(*SignalGenerator)

func WithPublishers(p ...domrepo.DecisionPublisher) GeneratorOption {
	return func(g *SignalGenerator) { g.publishers = append(g.publishers, p...) }
}

// WithScheduler enables automatic settlement at expiry.
func WithScheduler(s domrepo.SettlementScheduler) GeneratorOption {
	return func(g *SignalGenerator) { g.scheduler = s }
}

func WithLookback(n int, tf domrepo.Timeframe) GeneratorOption {
	return func(g *SignalGenerator) {
		if n > 0 {
			g.lookback = n
		}
		g.tf = domrepo.NormalizeTimeframe(string(tf))
	}
}

// SignalGenerator drives a fusion run end to end: bars in, a persisted and
// broadcast decision out.
type SignalGenerator struct {
	market     domrepo.MarketData
	engine     Evaluator
	store      domrepo.DecisionStore
	publishers []domrepo.DecisionPublisher
	scheduler  domrepo.SettlementScheduler
	metrics    domrepo.Metrics
	l          *applogger.Logger
	lookback   int
	tf         domrepo.Timeframe
}

func NewSignalGenerator(
	market domrepo.MarketData,
	engine Evaluator,
	store domrepo.DecisionStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...GeneratorOption,
) *SignalGenerator {
	g := &SignalGenerator{
		market:   market,
		engine:   engine,
		store:    store,
		metrics:  metrics,
		l:        l,
		lookback: 300,
		tf:       domrepo.DefaultTimeframe(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate runs the fusion core on a caller-supplied series without side effects.
func (g *SignalGenerator) Evaluate(ctx context.Context, asset string, s models.Series) (*models.Evaluation, error) {
	return g.engine.Evaluate(ctx, asset, s)
}

// Generate fetches the latest bars for asset and emits a decision when the
// fusion produces one. A missing feed is a NoDecision, not an error.
func (g *SignalGenerator) Generate(ctx context.Context, asset string) (*models.Evaluation, error) {
	start := time.Now()
	defer func() { g.metrics.RecordLatency("generate", time.Since(start).Seconds()) }()

	series, err := g.market.LatestSeries(ctx, asset, g.lookback, g.tf)
	if err != nil || len(series) == 0 {
		if err != nil {
			g.metrics.RecordError("market_data")
			g.l.Warn("market data unavailable", applogger.String("asset", asset), applogger.Error(err))
		}
		g.metrics.RecordNoDecision(models.ReasonDataUnavailable)
		return &models.Evaluation{Reason: models.ReasonDataUnavailable, Volatility: math.NaN()}, nil
	}

	ev, err := g.engine.Evaluate(ctx, asset, series)
	if err != nil {
		g.metrics.RecordError("input_fault")
		return nil, fmt.Errorf("evaluate %s: %w", asset, err)
	}
	if ev.Decision == nil {
		g.metrics.RecordNoDecision(ev.Reason)
		g.l.Info("no decision", applogger.String("asset", asset), applogger.String("reason", ev.Reason))
		return ev, nil
	}

	if err := g.store.Append(ctx, ev.Decision); err != nil {
		g.metrics.RecordError("store")
		return nil, fmt.Errorf("store decision: %w", err)
	}
	d := *ev.Decision
	g.metrics.RecordDecision(d.Asset, d.Direction, ev.Source)
	g.l.Info("decision emitted",
		applogger.Int64("id", d.ID),
		applogger.String("asset", d.Asset),
		applogger.String("direction", string(d.Direction)),
		applogger.Float64("confidence", d.Confidence),
		applogger.Int("expiry_minutes", d.ExpiryMinutes),
		applogger.String("source", ev.Source),
	)

	broadcast(ctx, g.publishers, newDecisionEvent(models.EventSignalCreated, d, d.CreatedAt), g.metrics, g.l)

	if g.scheduler != nil {
		if err := g.scheduler.ScheduleSettlement(ctx, d); err != nil {
			g.metrics.RecordError("schedule")
			g.l.Error("schedule settlement failed", applogger.Int64("id", d.ID), applogger.Error(err))
		}
	}
	return ev, nil
}
