package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"flow/contexts/community-experience/reputation-service/application/queries"
	httptransport "flow/contexts/community-experience/reputation-service/transport/http"
)

type Handler struct {
	Queries queries.ReputationQueries
	Logger  *slog.Logger
}

func (h Handler) GetReputationHandler(ctx context.Context, userID string) (httptransport.ReputationResponse, error) {
	reputation, err := h.Queries.GetWorkerReputation(ctx, userID)
	if err != nil {
		return httptransport.ReputationResponse{}, err
	}
	response := httptransport.ReputationResponse{
		UserID:          reputation.UserID,
		CompletedTasks:  reputation.CompletedTasks,
		ReputationScore: reputation.ReputationScore,
		Tier:            reputation.Tier,
	}
	if !reputation.UpdatedAt.IsZero() {
		response.UpdatedAt = reputation.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return response, nil
}
