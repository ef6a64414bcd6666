package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/community-experience/reputation-service/application"
	"flow/contexts/community-experience/reputation-service/domain/entities"
	domainerrors "flow/contexts/community-experience/reputation-service/domain/errors"
	"flow/contexts/community-experience/reputation-service/ports"
)

// RecomputeUseCase rescores a worker from their completed-task count. The
// recompute is a pure function of the count, so it is safe to run on every
// completion event replay. Disputes never lower the score.
type RecomputeUseCase struct {
	Profiles ports.ReputationRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc RecomputeUseCase) RecomputeWorker(ctx context.Context, workerID string) (entities.WorkerReputation, error) {
	logger := application.ResolveLogger(uc.Logger)
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return entities.WorkerReputation{}, domainerrors.ErrInvalidInput
	}

	reputation, err := uc.Profiles.GetReputation(ctx, workerID)
	if err != nil {
		return entities.WorkerReputation{}, err
	}
	now := uc.now()
	score := entities.ScoreForCompleted(reputation.CompletedTasks)
	tier := entities.TierForScore(score)
	if err := uc.Profiles.UpdateScore(ctx, workerID, score, tier, now); err != nil {
		return entities.WorkerReputation{}, err
	}
	reputation.ReputationScore = score
	reputation.Tier = tier
	reputation.UpdatedAt = now

	logger.Info("worker reputation recomputed",
		"event", "reputation_recomputed",
		"module", "community-experience/reputation-service",
		"layer", "application",
		"worker_id", workerID,
		"completed_tasks", reputation.CompletedTasks,
		"score", score,
		"tier", tier,
	)
	return reputation, nil
}

func (uc RecomputeUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
