package httpadapter

import (
	"context"
	"log/slog"

	"flow/contexts/task-lifecycle/task-engine/application/commands"
	"flow/contexts/task-lifecycle/task-engine/application/queries"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	httptransport "flow/contexts/task-lifecycle/task-engine/transport/http"
)

type Handler struct {
	Atomizer     commands.AtomizeUseCase
	Assignments  commands.AssignmentUseCase
	Submissions  commands.SubmissionUseCase
	Verification commands.VerificationUseCase
	Queries      queries.TaskQueries
	Logger       *slog.Logger
}

func (h Handler) AtomizeProjectHandler(
	ctx context.Context,
	projectID string,
	actorID string,
	req httptransport.AtomizeProjectRequest,
) (httptransport.AtomizeProjectResponse, error) {
	result, err := h.Atomizer.AtomizeProject(ctx, commands.AtomizeProjectCommand{
		ProjectID: projectID,
		ActorID:   actorID,
		UnitCount: req.UnitCount,
		Strategy: entities.StrategySpec{
			Kind:              entities.StrategyKind(req.Strategy),
			RequiredPeers:     req.RequiredPeers,
			RequiredApprovals: req.RequiredApprovals,
		},
	})
	if err != nil {
		return httptransport.AtomizeProjectResponse{}, err
	}
	return httptransport.AtomizeProjectResponse{
		ProjectID: result.ProjectID,
		UnitCount: len(result.Units),
		Tasks:     mapTasks(result.Units),
	}, nil
}

func (h Handler) ListAvailableTasksHandler(ctx context.Context, limit int) (httptransport.TaskListResponse, error) {
	tasks, err := h.Queries.ListAvailableTasks(ctx, limit)
	if err != nil {
		return httptransport.TaskListResponse{}, err
	}
	return httptransport.TaskListResponse{Items: mapTasks(tasks)}, nil
}

func (h Handler) GetTaskHandler(ctx context.Context, taskID string) (httptransport.TaskResponse, error) {
	task, err := h.Queries.GetTask(ctx, taskID)
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return mapTask(task), nil
}

func (h Handler) ListProjectTasksHandler(ctx context.Context, projectID string) (httptransport.TaskListResponse, error) {
	tasks, err := h.Queries.ListProjectTasks(ctx, projectID)
	if err != nil {
		return httptransport.TaskListResponse{}, err
	}
	return httptransport.TaskListResponse{Items: mapTasks(tasks)}, nil
}

func (h Handler) AcceptTaskHandler(ctx context.Context, taskID string, workerID string) (httptransport.TaskResponse, error) {
	task, err := h.Assignments.AcceptTask(ctx, commands.AcceptTaskCommand{
		TaskID:   taskID,
		WorkerID: workerID,
	})
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return mapTask(task), nil
}

func (h Handler) SubmitTaskHandler(
	ctx context.Context,
	taskID string,
	workerID string,
	req httptransport.SubmitTaskRequest,
) (httptransport.TaskResponse, error) {
	cmd := commands.SubmitTaskCommand{
		TaskID:         taskID,
		WorkerID:       workerID,
		Payload:        req.Payload,
		Photos:         req.Photos,
		SupervisorCode: req.SupervisorCode,
	}
	if req.Location != nil {
		cmd.Location = &entities.GeoPoint{
			Lat:      req.Location.Lat,
			Lng:      req.Location.Lng,
			Accuracy: req.Location.Accuracy,
		}
	}
	task, err := h.Submissions.SubmitTask(ctx, cmd)
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return mapTask(task), nil
}

func (h Handler) ValidateTaskHandler(
	ctx context.Context,
	taskID string,
	validatorID string,
	req httptransport.ValidateTaskRequest,
) (httptransport.ValidateTaskResponse, error) {
	result, err := h.Verification.RecordValidation(ctx, commands.RecordValidationCommand{
		TaskID:      taskID,
		ValidatorID: validatorID,
		Approve:     req.Approve,
		Notes:       req.Notes,
	})
	if err != nil {
		return httptransport.ValidateTaskResponse{}, err
	}
	return httptransport.ValidateTaskResponse{
		TaskID:      result.Validation.TaskID,
		ValidatorID: result.Validation.ValidatorID,
		Verdict:     string(result.Validation.Verdict),
		Decision:    string(result.Decision),
	}, nil
}

func (h Handler) ListTaskValidationsHandler(ctx context.Context, taskID string) (httptransport.ValidationListResponse, error) {
	validations, err := h.Queries.ListTaskValidations(ctx, taskID)
	if err != nil {
		return httptransport.ValidationListResponse{}, err
	}
	items := make([]httptransport.ValidationResponse, 0, len(validations))
	for _, validation := range validations {
		items = append(items, httptransport.ValidationResponse{
			ValidationID: validation.ValidationID,
			TaskID:       validation.TaskID,
			ValidatorID:  validation.ValidatorID,
			Verdict:      string(validation.Verdict),
			Notes:        validation.Notes,
		})
	}
	return httptransport.ValidationListResponse{Items: items}, nil
}

func mapTask(task entities.TaskUnit) httptransport.TaskResponse {
	return httptransport.TaskResponse{
		TaskID:               task.TaskID,
		ProjectID:            task.ProjectID,
		UnitIndex:            task.UnitIndex,
		Title:                task.Title,
		Description:          task.Description,
		TaskType:             string(task.Type),
		PayAmount:            task.PayAmount.StringAmount(),
		Currency:             task.PayAmount.Currency,
		EstimatedTimeSeconds: task.EstimatedTimeSeconds,
		Strategy:             string(task.Strategy.Kind),
		Status:               string(task.Status),
		AssigneeID:           task.AssigneeID,
	}
}

func mapTasks(tasks []entities.TaskUnit) []httptransport.TaskResponse {
	items := make([]httptransport.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, mapTask(task))
	}
	return items
}
