package usecase

import (
	"context"
	"errors"
	"testing"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMarketDataUnavailable(t *testing.T) {
	for name, market := range map[string]*fakeMarket{
		"error": {err: errors.New("clickhouse down")},
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			g := NewSignalGenerator(market, fakeEvaluator{}, f.store, f.metrics, applogger.NewNop())

			ev, err := g.Generate(context.Background(), "EUR/USD")
			require.NoError(t, err)
			assert.Nil(t, ev.Decision)
			assert.Equal(t, models.ReasonDataUnavailable, ev.Reason)
			assert.Equal(t, []string{models.ReasonDataUnavailable}, f.metrics.noDecisions)
		})
	}
}

func TestGenerateInputFaultIsReturned(t *testing.T) {
	f := newFixture()
	eval := fakeEvaluator{err: models.NewInputFault("timestamps not strictly increasing at index 3")}
	g := NewSignalGenerator(&fakeMarket{series: bars(1.1)}, eval, f.store, f.metrics, applogger.NewNop())

	_, err := g.Generate(context.Background(), "EUR/USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInputFault)
	assert.Contains(t, f.metrics.errors, "input_fault")
}

func TestGenerateNoDecisionIsNotStored(t *testing.T) {
	f := newFixture()
	eval := fakeEvaluator{ev: &models.Evaluation{Reason: models.ReasonVoteTied, Source: models.SourceIndicatorVote}}
	pub := &fakePublisher{}
	g := NewSignalGenerator(&fakeMarket{series: bars(1.1)}, eval, f.store, f.metrics, applogger.NewNop(), WithPublishers(pub))

	ev, err := g.Generate(context.Background(), "EUR/USD")
	require.NoError(t, err)
	assert.Nil(t, ev.Decision)

	hist, total, err := f.store.History(context.Background(), domrepo.HistoryQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hist)
	assert.Zero(t, total)
	assert.Empty(t, pub.events)
	assert.Equal(t, []string{models.ReasonVoteTied}, f.metrics.noDecisions)
}

func TestGenerateEmitsDecision(t *testing.T) {
	f := newFixture()
	market := &fakeMarket{series: bars(1.1, 1.2)}
	eval := fakeEvaluator{ev: &models.Evaluation{Decision: buyDecision("EUR/USD (OTC)", 1.2), Source: models.SourceStructure}}
	failing := &fakePublisher{err: errors.New("ws closed")}
	sched := &fakeScheduler{}
	g := NewSignalGenerator(market, eval, f.store, f.metrics, applogger.NewNop(),
		WithPublishers(failing, f.pub),
		WithScheduler(sched),
		WithLookback(150, domrepo.TF1m),
	)

	ev, err := g.Generate(context.Background(), "EUR/USD (OTC)")
	require.NoError(t, err)
	require.NotNil(t, ev.Decision)
	assert.Equal(t, int64(1), ev.Decision.ID)
	assert.Equal(t, []string{"EUR/USD (OTC)"}, market.calls)

	stored, err := f.store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, *ev.Decision, *stored)

	require.Len(t, f.pub.events, 1)
	evt := f.pub.events[0]
	assert.Equal(t, models.EventSignalCreated, evt.Type)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, int64(1), evt.Decision.ID)
	assert.Len(t, failing.events, 1)
	assert.Contains(t, f.metrics.errors, "publish")

	require.Len(t, sched.scheduled, 1)
	assert.Equal(t, int64(1), sched.scheduled[0].ID)
	assert.Equal(t, []models.Direction{models.DirectionBuy}, f.metrics.decisions)
}

func TestEvaluateHasNoSideEffects(t *testing.T) {
	f := newFixture()
	eval := fakeEvaluator{ev: &models.Evaluation{Decision: buyDecision("EUR/USD", 1.1), Source: models.SourceIndicatorVote}}
	g := NewSignalGenerator(&fakeMarket{}, eval, f.store, f.metrics, applogger.NewNop(), WithPublishers(f.pub))

	ev, err := g.Evaluate(context.Background(), "EUR/USD", bars(1.1))
	require.NoError(t, err)
	require.NotNil(t, ev.Decision)
	assert.Zero(t, ev.Decision.ID)
	assert.Empty(t, f.pub.events)
}
