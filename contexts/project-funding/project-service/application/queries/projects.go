package queries

import (
	"context"
	"log/slog"
	"strings"

	"flow/contexts/project-funding/project-service/domain/entities"
	domainerrors "flow/contexts/project-funding/project-service/domain/errors"
	"flow/contexts/project-funding/project-service/ports"
)

type ProjectQueries struct {
	Projects ports.ProjectRepository
	Logger   *slog.Logger
}

func (q ProjectQueries) GetProject(ctx context.Context, projectID string) (entities.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectInput
	}
	return q.Projects.GetProject(ctx, projectID)
}

func (q ProjectQueries) ListClientProjects(ctx context.Context, clientID string) ([]entities.Project, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, domainerrors.ErrInvalidProjectInput
	}
	return q.Projects.ListProjectsByClient(ctx, clientID)
}

func (q ProjectQueries) ListAudits(ctx context.Context, projectID string) ([]entities.ProjectAudit, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, domainerrors.ErrInvalidProjectInput
	}
	return q.Projects.ListAudits(ctx, projectID)
}
