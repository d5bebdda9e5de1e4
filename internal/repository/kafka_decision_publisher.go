package repository

import (
	"context"
	"fmt"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"

	"github.com/google/uuid"
)

type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaDecisionPublisher writes decision events keyed by asset, so events of
// one asset stay ordered on a partition.
type KafkaDecisionPublisher struct {
	p     eventProducer
	topic string
}

func NewKafkaDecisionPublisher(p eventProducer, topic string) *KafkaDecisionPublisher {
	return &KafkaDecisionPublisher{p: p, topic: topic}
}

func (k *KafkaDecisionPublisher) PublishDecision(ctx context.Context, evt models.DecisionEvent) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if err := k.p.Publish(ctx, k.topic, []byte(evt.Decision.Asset), evt); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

var _ domrepo.DecisionPublisher = (*KafkaDecisionPublisher)(nil)
