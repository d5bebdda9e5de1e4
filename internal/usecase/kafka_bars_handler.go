package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgkafka "FinSignal/pkg/kafka"
)

// KafkaBarsHandler consumes bar messages and writes them to bar storage.
type KafkaBarsHandler struct {
	topic   string
	writer  domrepo.BarWriter
	tf      domrepo.Timeframe
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, writer domrepo.BarWriter, tf domrepo.Timeframe, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, writer: writer, tf: domrepo.NormalizeTimeframe(string(tf)), metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// message schema: {symbol, t, o, h, l, c, v}; t in seconds or milliseconds
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("bar without symbol")
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	bar := models.Bar{
		Timestamp: time.Unix(m.T, 0).UTC(),
		Open:      m.O,
		High:      m.H,
		Low:       m.L,
		Close:     m.C,
		Volume:    m.V,
	}
	if err := bar.Validate(); err != nil {
		h.metrics.RecordError("consumer_invalid")
		return err
	}
	h.metrics.RecordLatency("ingest_e2e", time.Since(bar.Timestamp).Seconds())

	start := time.Now()
	err := h.writer.WriteBars(ctx, m.Symbol, h.tf, []models.Bar{bar})
	h.metrics.RecordLatency("bar_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)

// KafkaSettlementHandler applies settlements produced by an external process.
type KafkaSettlementHandler struct {
	topic string
	uc    *SettlementUseCase
}

func NewKafkaSettlementHandler(topic string, uc *SettlementUseCase) *KafkaSettlementHandler {
	return &KafkaSettlementHandler{topic: topic, uc: uc}
}

func (h *KafkaSettlementHandler) Topic() string { return h.topic }

// Handle treats replays of an already settled decision as delivered.
func (h *KafkaSettlementHandler) Handle(ctx context.Context, b []byte) error {
	var evt models.SettlementEvent
	if err := json.Unmarshal(b, &evt); err != nil {
		h.uc.metrics.RecordError("consumer_unmarshal")
		return err
	}
	result, err := models.ParseResult(evt.Result)
	if err != nil {
		h.uc.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("settlement %d: %w", evt.DecisionID, err)
	}
	_, err = h.uc.Settle(ctx, evt.DecisionID, result, evt.ProfitLoss)
	if errors.Is(err, models.ErrAlreadySettled) {
		return nil
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaSettlementHandler)(nil)
