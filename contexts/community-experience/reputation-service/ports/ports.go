package ports

import (
	"context"
	"time"

	contractsv1 "flow/contracts/gen/events/v1"
	"flow/contexts/community-experience/reputation-service/domain/entities"
)

// ReputationRepository reads and rescores worker profiles. The completed
// count is owned by the settlement transaction; this module only derives
// score and tier from it.
type ReputationRepository interface {
	GetReputation(ctx context.Context, userID string) (entities.WorkerReputation, error)
	UpdateScore(ctx context.Context, userID string, score float64, tier int, now time.Time) error
}

type EventEnvelope = contractsv1.Envelope

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// EventDedupStore provides idempotent processing guarantees for consumed events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type Clock interface {
	Now() time.Time
}
