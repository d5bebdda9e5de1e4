package fusion

import (
	"context"
	"math"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/indicators"
	"FinSignal/internal/services/sentiment"
	applogger "FinSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

const pricePlaces = 5

// Engine turns a bar series plus optional structure and sentiment inputs into
// at most one SignalDecision. It holds no mutable state.
type Engine struct {
	cfg       Config
	structure domsvc.StructureAnalyzer
	sentiment domsvc.SentimentSource
	pick      ExpiryPicker
	now       func() time.Time
	l         *applogger.Logger
}

// Option configures Engine.
type Option func(*Engine)

func WithStructureAnalyzer(a domsvc.StructureAnalyzer) Option {
	return func(e *Engine) { e.structure = a }
}

func WithSentimentSource(s domsvc.SentimentSource) Option {
	return func(e *Engine) { e.sentiment = s }
}

func WithExpiryPicker(p ExpiryPicker) Option {
	return func(e *Engine) {
		if p != nil {
			e.pick = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.l = l
		}
	}
}

func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:  cfg,
		pick: RandomExpiry,
		now:  func() time.Time { return time.Now().UTC() },
		l:    applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

// Evaluate runs one fusion for asset. Malformed series return an InputFault;
// short series and tied votes return an Evaluation without a Decision.
func (e *Engine) Evaluate(ctx context.Context, asset string, s models.Series) (*models.Evaluation, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(s) < e.cfg.MinBars {
		return &models.Evaluation{Reason: models.ReasonInsufficientBars, Volatility: math.NaN()}, nil
	}

	es := indicators.Derive(s)
	opinion, reading := e.collect(ctx, asset, es)
	sent := sentiment.Classify(reading)

	ev := Fuse(asset, es, opinion, sent, e.cfg, e.pick, e.now())
	if sent != nil {
		e.l.Debug("sentiment context",
			applogger.String("asset", asset),
			applogger.Int("score", sent.Score),
			applogger.String("label", string(sent.Label)),
		)
	}
	return ev, nil
}

// collect calls the structure analyzer and sentiment source concurrently. A
// failed or timed-out call yields an absent input.
func (e *Engine) collect(ctx context.Context, asset string, es *models.EnrichedSeries) (*models.DirectionalOpinion, *models.FearGreedReading) {
	var (
		wg      sync.WaitGroup
		opinion *models.DirectionalOpinion
		reading *models.FearGreedReading
	)

	if e.structure != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := e.callContext(ctx)
			defer cancel()
			op, err := e.structure.Analyze(cctx, asset, es)
			if err != nil {
				e.l.Warn("structure analyzer unavailable", applogger.String("asset", asset), applogger.Error(err))
				return
			}
			if op != nil && (math.IsNaN(op.Confidence) || math.IsInf(op.Confidence, 0)) {
				e.l.Warn("structure opinion discarded", applogger.String("asset", asset), applogger.String("reason", "non-finite confidence"))
				return
			}
			opinion = op
		}()
	}

	if e.sentiment != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := e.callContext(ctx)
			defer cancel()
			r, err := e.sentiment.FearGreed(cctx)
			if err != nil {
				e.l.Warn("sentiment source unavailable", applogger.Error(err))
				return
			}
			reading = r
		}()
	}

	wg.Wait()
	return opinion, reading
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CollaboratorTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.CollaboratorTimeout)
	}
	return context.WithCancel(ctx)
}

// Fuse applies the decision rules to already collected inputs. A concrete
// structure opinion wins; otherwise the indicator vote decides with base
// confidence. Sentiment is carried as context only.
func Fuse(
	asset string,
	es *models.EnrichedSeries,
	opinion *models.DirectionalOpinion,
	sent *models.SentimentReading,
	cfg Config,
	pick ExpiryPicker,
	now time.Time,
) *models.Evaluation {
	vol := es.Latest(models.ColVolatility)
	if math.IsNaN(vol) {
		vol = cfg.DefaultVolatility
	}
	ev := &models.Evaluation{Opinion: opinion, Sentiment: sent, Volatility: vol}

	var (
		dir  models.Direction
		conf float64
	)
	if opinion != nil && opinion.Direction.Concrete() {
		dir, conf = opinion.Direction, opinion.Confidence
		ev.Source = models.SourceStructure
	} else {
		tally := Vote(es, cfg)
		ev.Votes = &tally
		ev.Source = models.SourceIndicatorVote
		dir, conf = Winner(tally), cfg.BaseConfidence
		if dir == models.DirectionNone {
			ev.Reason = models.ReasonVoteTied
			return ev
		}
	}

	ev.Decision = &models.SignalDecision{
		Asset:         asset,
		Direction:     dir,
		EntryPrice:    EntryPrice(es.LatestClose()),
		ExpiryMinutes: pick(ExpiryCandidates(asset, vol, cfg)),
		Confidence:    ClampConfidence(conf, cfg.MaxConfidence),
		CreatedAt:     now,
		IsActive:      true,
		Result:        models.ResultUnset,
	}
	return ev
}

// ClampConfidence bounds c to [0, max].
func ClampConfidence(c, max float64) float64 {
	return math.Max(0, math.Min(c, max))
}

// EntryPrice rounds the close to five decimal places. Prices that would round
// to zero keep their raw value.
func EntryPrice(close float64) float64 {
	p, _ := decimal.NewFromFloat(close).Round(pricePlaces).Float64()
	if p <= 0 {
		return close
	}
	return p
}
