package ports

import (
	"context"
	"time"

	contractsv1 "flow/contracts/gen/events/v1"
	"flow/contexts/project-funding/project-service/domain/entities"
	"flow/internal/shared/money"
)

type ProjectRepository interface {
	CreateProject(ctx context.Context, project entities.Project) error
	GetProject(ctx context.Context, projectID string) (entities.Project, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]entities.Project, error)
	// MarkFunded applies the draft → funded transition and locks escrow in one
	// guarded update; ErrProjectStateInvalid when the project already moved on.
	MarkFunded(ctx context.Context, projectID string, now time.Time) error
	AppendAudit(ctx context.Context, audit entities.ProjectAudit) error
	ListAudits(ctx context.Context, projectID string) ([]entities.ProjectAudit, error)
}

// EscrowFunder moves client funds into project escrow. Implemented by the
// finance context; the debit and the escrow lock entry commit together there.
type EscrowFunder interface {
	LockEscrow(ctx context.Context, projectID string, clientID string, amount money.Money) error
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
