package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"FinSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	topic string
	key   string
	value interface{}
}

type fakeProducer struct {
	msgs []recordedMessage
	err  error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, recordedMessage{topic: topic, key: string(key), value: value})
	return nil
}

func TestKafkaDecisionPublisher(t *testing.T) {
	p := &fakeProducer{}
	pub := NewKafkaDecisionPublisher(p, "finsignal.decisions")

	evt := models.DecisionEvent{
		Type:     models.EventSignalCreated,
		Decision: models.SignalDecision{ID: 7, Asset: "EUR/USD", Direction: models.DirectionBuy},
		At:       time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.PublishDecision(context.Background(), evt))
	require.Len(t, p.msgs, 1)
	assert.Equal(t, "finsignal.decisions", p.msgs[0].topic)
	assert.Equal(t, "EUR/USD", p.msgs[0].key)

	sent := p.msgs[0].value.(models.DecisionEvent)
	assert.NotEmpty(t, sent.ID)
	raw, err := json.Marshal(sent)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"signal.created"`)

	p.err = errors.New("broker down")
	assert.Error(t, pub.PublishDecision(context.Background(), evt))
}

type enqueued struct {
	msgType string
	payload interface{}
	at      time.Time
}

type fakeDelayedQueue struct{ jobs []enqueued }

func (f *fakeDelayedQueue) EnqueueAt(_ context.Context, msgType string, payload interface{}, at time.Time) error {
	f.jobs = append(f.jobs, enqueued{msgType, payload, at})
	return nil
}

func TestQueueSettlementScheduler(t *testing.T) {
	q := &fakeDelayedQueue{}
	s := NewQueueSettlementScheduler(q, 30*time.Second)
	created := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)

	d := models.SignalDecision{ID: 3, Asset: "Gold (OTC)", ExpiryMinutes: 5, CreatedAt: created}
	require.NoError(t, s.ScheduleSettlement(context.Background(), d))
	require.Len(t, q.jobs, 1)

	want := created.Add(5*time.Minute + 30*time.Second)
	assert.Equal(t, models.SettlementTaskType, q.jobs[0].msgType)
	assert.Equal(t, want, q.jobs[0].at)
	assert.Equal(t, models.SettlementTask{DecisionID: 3, Asset: "Gold (OTC)", DueAt: want}, q.jobs[0].payload)
}
