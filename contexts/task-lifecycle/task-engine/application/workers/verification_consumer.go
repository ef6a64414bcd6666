package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/application/commands"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

const (
	taskSubmittedTopic    = "task.submitted"
	defaultVerificationCG = "task-engine-verification-cg"
)

// VerificationConsumer moves submitted units into verification off the hot
// request path. Delivery is at-least-once; replays are deduped by event id
// and the verify command itself is a no-op once the unit leaves submitted.
type VerificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Verifier      commands.VerificationUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

// Start subscribes the engine to submission events.
func (c VerificationConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultVerificationCG
	}
	if err := c.Subscriber.Subscribe(ctx, taskSubmittedTopic, group, c.handleTaskSubmitted); err != nil {
		logger.Error("verification consumer subscribe failed",
			"event", "task_verification_consumer_subscribe_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"topic", taskSubmittedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("verification consumer subscriptions active",
		"event", "task_verification_consumer_started",
		"module", "task-lifecycle/task-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c VerificationConsumer) handleTaskSubmitted(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("task.submitted dedupe failed",
			"event", "task_submitted_dedupe_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("task.submitted replay skipped",
			"event", "task_submitted_replayed",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("task.submitted payload decode failed",
			"event", "task_submitted_decode_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if err := c.Verifier.VerifyTask(ctx, payload.TaskID); err != nil {
		logger.Error("task.submitted verification failed",
			"event", "task_submitted_verification_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"task_id", strings.TrimSpace(payload.TaskID),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("task.submitted consumed",
		"event", "task_submitted_consumed",
		"module", "task-lifecycle/task-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"task_id", strings.TrimSpace(payload.TaskID),
	)
	return nil
}

func (c VerificationConsumer) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now().UTC()
}

func (c VerificationConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
