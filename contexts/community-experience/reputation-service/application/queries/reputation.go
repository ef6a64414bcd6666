package queries

import (
	"context"
	"log/slog"
	"strings"

	"flow/contexts/community-experience/reputation-service/domain/entities"
	domainerrors "flow/contexts/community-experience/reputation-service/domain/errors"
	"flow/contexts/community-experience/reputation-service/ports"
)

type ReputationQueries struct {
	Profiles ports.ReputationRepository
	Logger   *slog.Logger
}

func (q ReputationQueries) GetWorkerReputation(ctx context.Context, userID string) (entities.WorkerReputation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.WorkerReputation{}, domainerrors.ErrInvalidInput
	}
	return q.Profiles.GetReputation(ctx, userID)
}
