package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/community-experience/reputation-service/application"
	"flow/contexts/community-experience/reputation-service/application/commands"
	"flow/contexts/community-experience/reputation-service/ports"
)

const (
	taskCompletedTopic  = "task.completed"
	defaultCompletionCG = "reputation-service-completion-cg"
)

// CompletionConsumer rescores workers as their units settle. Delivery is
// at-least-once; replays are deduped by event id and the recompute itself is
// idempotent.
type CompletionConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Recompute     commands.RecomputeUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

// Start subscribes the rescorer to settlement events.
func (c CompletionConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultCompletionCG
	}
	if err := c.Subscriber.Subscribe(ctx, taskCompletedTopic, group, c.handleTaskCompleted); err != nil {
		logger.Error("completion consumer subscribe failed",
			"event", "reputation_consumer_subscribe_failed",
			"module", "community-experience/reputation-service",
			"layer", "worker",
			"topic", taskCompletedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("completion consumer subscriptions active",
		"event", "reputation_consumer_started",
		"module", "community-experience/reputation-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c CompletionConsumer) handleTaskCompleted(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("task.completed dedupe failed",
			"event", "reputation_completed_dedupe_failed",
			"module", "community-experience/reputation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("task.completed replay skipped",
			"event", "reputation_completed_replayed",
			"module", "community-experience/reputation-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload struct {
		WorkerID string `json:"worker_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("task.completed payload decode failed",
			"event", "reputation_completed_decode_failed",
			"module", "community-experience/reputation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if _, err := c.Recompute.RecomputeWorker(ctx, payload.WorkerID); err != nil {
		logger.Error("task.completed rescore failed",
			"event", "reputation_completed_rescore_failed",
			"module", "community-experience/reputation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"worker_id", strings.TrimSpace(payload.WorkerID),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (c CompletionConsumer) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now().UTC()
}

func (c CompletionConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
