package metrics

import (
	"FinSignal/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions   *prometheus.CounterVec
	noDecisions *prometheus.CounterVec
	settlements *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	winRate     prometheus.Gauge
	totalProfit prometheus.Gauge
	settled     prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_decisions_total",
				Help: "Decisions emitted by direction and source",
			},
			[]string{"asset", "direction", "source"},
		),
		noDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_no_decisions_total",
				Help: "Evaluations that produced no decision, by reason",
			},
			[]string{"reason"},
		),
		settlements: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_settlements_total",
				Help: "Settled decisions by result",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		winRate: f.NewGauge(prometheus.GaugeOpts{
			Name: "finsignal_win_rate_percent",
			Help: "Win rate over all settled decisions",
		}),
		totalProfit: f.NewGauge(prometheus.GaugeOpts{
			Name: "finsignal_total_profit",
			Help: "Sum of profit/loss over all settled decisions",
		}),
		settled: f.NewGauge(prometheus.GaugeOpts{
			Name: "finsignal_settled_decisions",
			Help: "Number of settled decisions",
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordDecision(asset string, dir models.Direction, source string) {
	r.decisions.WithLabelValues(asset, string(dir), source).Inc()
}

func (r *Recorder) RecordNoDecision(reason string) {
	r.noDecisions.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordSettlement(result models.Result) {
	r.settlements.WithLabelValues(string(result)).Inc()
}

// RecordPerformance mirrors the latest aggregate into gauges.
func (r *Recorder) RecordPerformance(agg models.PerformanceAggregate) {
	r.winRate.Set(agg.WinRate)
	r.totalProfit.Set(agg.TotalProfit)
	r.settled.Set(float64(agg.Total))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
