package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	reputationservice "flow/contexts/community-experience/reputation-service"
	"flow/contexts/community-experience/reputation-service/domain/entities"
	domainerrors "flow/contexts/community-experience/reputation-service/domain/errors"
	contractsv1 "flow/contracts/gen/events/v1"
	"flow/internal/platform/messaging"
)

func TestScoreForCompletedCurve(t *testing.T) {
	cases := []struct {
		completed int
		score     float64
	}{
		{0, 3.0},
		{5, 3.5},
		{10, 4.0},
		{20, 5.0},
		{50, 5.0},
		{-3, 3.0},
	}
	for _, tc := range cases {
		if got := entities.ScoreForCompleted(tc.completed); got != tc.score {
			t.Fatalf("completed=%d: expected score %.1f, got %.1f", tc.completed, tc.score, got)
		}
	}
}

func TestTierForScoreThresholds(t *testing.T) {
	cases := []struct {
		score float64
		tier  int
	}{
		{3.0, 1},
		{3.49, 1},
		{3.5, 2},
		{4.19, 2},
		{4.2, 3},
		{5.0, 3},
	}
	for _, tc := range cases {
		if got := entities.TierForScore(tc.score); got != tc.tier {
			t.Fatalf("score=%.2f: expected tier %d, got %d", tc.score, tc.tier, got)
		}
	}
}

func TestRecomputeWorkerRescoresFromCompletions(t *testing.T) {
	module := reputationservice.NewInMemoryModule(nil)
	module.Store.SetReputation(entities.WorkerReputation{UserID: "worker-12", CompletedTasks: 12})

	rescored, err := module.Recompute.RecomputeWorker(context.Background(), "worker-12")
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if rescored.ReputationScore != 4.2 {
		t.Fatalf("expected score 4.2 for 12 completions, got %.2f", rescored.ReputationScore)
	}
	if rescored.Tier != 3 {
		t.Fatalf("expected senior tier, got %d", rescored.Tier)
	}

	view, err := module.Handler.GetReputationHandler(context.Background(), "worker-12")
	if err != nil {
		t.Fatalf("get reputation failed: %v", err)
	}
	if view.ReputationScore != 4.2 || view.Tier != 3 {
		t.Fatalf("persisted view diverged: %+v", view)
	}
}

func TestRecomputeWorkerUnknownProfile(t *testing.T) {
	module := reputationservice.NewInMemoryModule(nil)

	_, err := module.Recompute.RecomputeWorker(context.Background(), "worker-ghost")
	if !errors.Is(err, domainerrors.ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestReserveEventDedup(t *testing.T) {
	module := reputationservice.NewInMemoryModule(nil)
	expires := time.Now().UTC().Add(time.Hour)

	seen, err := module.Store.ReserveEvent(context.Background(), "evt-1", "hash-a", expires)
	if err != nil || seen {
		t.Fatalf("first reservation must be fresh, seen=%v err=%v", seen, err)
	}
	seen, err = module.Store.ReserveEvent(context.Background(), "evt-1", "hash-a", expires)
	if err != nil || !seen {
		t.Fatalf("replay with same payload must report seen, seen=%v err=%v", seen, err)
	}
	_, err = module.Store.ReserveEvent(context.Background(), "evt-1", "hash-b", expires)
	if !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("same event id with different payload must conflict, got %v", err)
	}
}

func TestCompletionConsumerRescoresOnSettlement(t *testing.T) {
	store := reputationservice.NewInMemoryModule(nil).Store
	store.SetReputation(entities.WorkerReputation{UserID: "worker-bus", CompletedTasks: 7})

	bus, err := messaging.NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("bus init failed: %v", err)
	}
	consumer := reputationservice.NewCompletionConsumer(reputationservice.Dependencies{
		Profiles: store,
		Dedup:    store,
		Clock:    store,
	}, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{"worker_id": "worker-bus", "task_id": "task-77"})
	envelope := contractsv1.Envelope{
		EventID:       "evt-settle-1",
		EventType:     "task.completed",
		OccurredAt:    time.Now().UTC(),
		SourceService: "task-engine",
		SchemaVersion: 1,
		Data:          payload,
	}
	if err := bus.Publish(ctx, "task.completed", envelope); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		reputation, err := store.GetReputation(context.Background(), "worker-bus")
		if err == nil && reputation.ReputationScore == 3.7 {
			if reputation.Tier != 2 {
				t.Fatalf("expected trusted tier after rescore, got %d", reputation.Tier)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("rescore never landed, last view %+v err %v", reputation, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A replayed delivery of the same event is deduped and leaves the
	// recompute result unchanged.
	if err := bus.Publish(ctx, "task.completed", envelope); err != nil {
		t.Fatalf("replay publish failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	reputation, err := store.GetReputation(context.Background(), "worker-bus")
	if err != nil {
		t.Fatalf("get reputation failed: %v", err)
	}
	if reputation.ReputationScore != 3.7 {
		t.Fatalf("replay must not change the score, got %.2f", reputation.ReputationScore)
	}
}
