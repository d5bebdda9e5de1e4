package usecase

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"

	"github.com/google/uuid"
)

func newDecisionEvent(kind string, d models.SignalDecision, at time.Time) models.DecisionEvent {
	return models.DecisionEvent{ID: uuid.NewString(), Type: kind, Decision: d, At: at}
}

// broadcast delivers evt to every publisher. Failures are logged and counted;
// the decision is already persisted at this point.
func broadcast(ctx context.Context, pubs []domrepo.DecisionPublisher, evt models.DecisionEvent, m domrepo.Metrics, l *applogger.Logger) {
	for _, p := range pubs {
		if err := p.PublishDecision(ctx, evt); err != nil {
			m.RecordError("publish")
			l.Warn("publish decision event failed",
				applogger.String("type", evt.Type),
				applogger.Int64("decision_id", evt.Decision.ID),
				applogger.Error(err),
			)
		}
	}
}
