package ports

import (
	"context"
	"time"

	contractsv1 "flow/contracts/gen/events/v1"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	"flow/internal/shared/money"
)

// ProjectProjection is the slice of project state the engine reads and
// advances; the project-funding context owns the full aggregate.
type ProjectProjection struct {
	ProjectID      string
	ClientID       string
	Title          string
	Status         string
	TaskType       entities.TaskType
	TotalAmount    money.Money
	EscrowLocked   bool
	TotalUnits     int
	CompletedUnits int
}

// ProjectStore reads project preconditions and applies engine-driven
// project transitions.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (ProjectProjection, error)
	// ActivateProject sets total_units exactly once and moves the project to
	// active. Fails with ErrPreconditionFailed when the project already left
	// the draft/funded states.
	ActivateProject(ctx context.Context, projectID string, totalUnits int, now time.Time) error
}

// TaskRepository owns task-unit persistence and the per-unit serialization
// guarantees of the state machine.
type TaskRepository interface {
	// CreateTaskUnits persists a full atomization batch or nothing.
	CreateTaskUnits(ctx context.Context, units []entities.TaskUnit) error
	GetTask(ctx context.Context, taskID string) (entities.TaskUnit, error)
	ListAvailableTasks(ctx context.Context, limit int) ([]entities.TaskUnit, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]entities.TaskUnit, error)
	// ClaimTask performs the available → assigned compare-and-swap; exactly
	// one concurrent caller wins, the rest get ErrAlreadyTaken.
	ClaimTask(ctx context.Context, taskID string, workerID string, now time.Time) (entities.TaskUnit, error)
	// SubmitTask atomically records the submission and moves the unit
	// assigned → submitted.
	SubmitTask(ctx context.Context, submission entities.Submission, now time.Time) (entities.TaskUnit, error)
	// TransitionStatus applies a guarded status move; ErrPreconditionFailed
	// when the unit is not in any of the from states.
	TransitionStatus(ctx context.Context, taskID string, from []entities.TaskStatus, to entities.TaskStatus, now time.Time) (entities.TaskUnit, error)
	CountActiveAssignments(ctx context.Context, workerID string) (int, error)
	ListVerifyingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]entities.TaskUnit, error)
	GetSubmission(ctx context.Context, taskID string) (entities.Submission, error)
}

// ValidationRepository owns peer-validation rows and their uniqueness.
type ValidationRepository interface {
	// CreateValidations inserts pending rows for selected validators;
	// duplicates for a (task, validator) pair fail with ErrDuplicateValidation.
	CreateValidations(ctx context.Context, validations []entities.Validation) error
	// RecordVerdict resolves a pending row exactly once.
	RecordVerdict(ctx context.Context, taskID string, validatorID string, verdict entities.Verdict, notes string, now time.Time) (entities.Validation, error)
	ListValidationsByTask(ctx context.Context, taskID string) ([]entities.Validation, error)
	GetValidation(ctx context.Context, taskID string, validatorID string) (entities.Validation, bool, error)
}

// WorkerProfile is the worker directory projection the engine needs for
// assignment caps and validator eligibility.
type WorkerProfile struct {
	UserID          string
	Role            string
	Verified        bool
	KYCCompleted    bool
	ReputationScore float64
	Tier            int
}

type WorkerDirectory interface {
	GetWorker(ctx context.Context, userID string) (WorkerProfile, error)
	// ListEligibleValidators returns verified workers above the reputation
	// threshold, excluding the given user ids.
	ListEligibleValidators(ctx context.Context, minReputation float64, exclude []string, limit int) ([]WorkerProfile, error)
}

// SettlementRecord carries every effect of a completed task unit.
type SettlementRecord struct {
	TaskID      string
	ProjectID   string
	WorkerID    string
	Reference   string
	Amount      money.Money
	CompletedAt time.Time
}

// SettlementStore commits the four settlement effects in one transaction:
// completion stamp, wallet credit, escrow payout entry, project counter.
// Replays keyed by Reference return applied=false and change nothing.
type SettlementStore interface {
	SettleTask(ctx context.Context, record SettlementRecord) (applied bool, err error)
}

// Alert mirrors the admin collaborator contract; emission never blocks a
// core transition.
type Alert struct {
	Title       string
	Description string
	Severity    string
	Kind        string
}

type AlertSink interface {
	Emit(ctx context.Context, alert Alert)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// EventDedupStore provides idempotent processing guarantees for consumed events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
