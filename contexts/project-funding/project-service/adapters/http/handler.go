package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"flow/contexts/project-funding/project-service/application/commands"
	"flow/contexts/project-funding/project-service/application/queries"
	"flow/contexts/project-funding/project-service/domain/entities"
	httptransport "flow/contexts/project-funding/project-service/transport/http"
)

type Handler struct {
	Projects commands.ProjectUseCase
	Queries  queries.ProjectQueries
	Logger   *slog.Logger
}

func (h Handler) CreateProjectHandler(
	ctx context.Context,
	clientID string,
	req httptransport.CreateProjectRequest,
) (httptransport.ProjectResponse, error) {
	project, err := h.Projects.CreateProject(ctx, commands.CreateProjectCommand{
		ClientID:    clientID,
		Title:       req.Title,
		Description: req.Description,
		TaskType:    entities.TaskType(req.TaskType),
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
	})
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return mapProject(project), nil
}

func (h Handler) FundProjectHandler(ctx context.Context, projectID string, clientID string) (httptransport.ProjectResponse, error) {
	project, err := h.Projects.FundProject(ctx, commands.FundProjectCommand{
		ProjectID: projectID,
		ClientID:  clientID,
	})
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return mapProject(project), nil
}

func (h Handler) GetProjectHandler(ctx context.Context, projectID string) (httptransport.ProjectResponse, error) {
	project, err := h.Queries.GetProject(ctx, projectID)
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return mapProject(project), nil
}

func (h Handler) ListClientProjectsHandler(ctx context.Context, clientID string) (httptransport.ProjectListResponse, error) {
	projects, err := h.Queries.ListClientProjects(ctx, clientID)
	if err != nil {
		return httptransport.ProjectListResponse{}, err
	}
	items := make([]httptransport.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		items = append(items, mapProject(project))
	}
	return httptransport.ProjectListResponse{Items: items}, nil
}

func (h Handler) ListProjectAuditsHandler(ctx context.Context, projectID string) (httptransport.ProjectAuditListResponse, error) {
	audits, err := h.Queries.ListAudits(ctx, projectID)
	if err != nil {
		return httptransport.ProjectAuditListResponse{}, err
	}
	items := make([]httptransport.ProjectAuditResponse, 0, len(audits))
	for _, audit := range audits {
		items = append(items, httptransport.ProjectAuditResponse{
			AuditID:   audit.AuditID,
			ProjectID: audit.ProjectID,
			ActorID:   audit.ActorID,
			Action:    audit.Action,
			Detail:    audit.Detail,
			CreatedAt: audit.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.ProjectAuditListResponse{Items: items}, nil
}

func mapProject(project entities.Project) httptransport.ProjectResponse {
	return httptransport.ProjectResponse{
		ProjectID:      project.ProjectID,
		ClientID:       project.ClientID,
		Title:          project.Title,
		Description:    project.Description,
		TaskType:       string(project.TaskType),
		TotalAmount:    project.TotalAmount.StringAmount(),
		Currency:       project.TotalAmount.Currency,
		Status:         string(project.Status),
		EscrowLocked:   project.EscrowLocked,
		TotalUnits:     project.TotalUnits,
		CompletedUnits: project.CompletedUnits,
	}
}
