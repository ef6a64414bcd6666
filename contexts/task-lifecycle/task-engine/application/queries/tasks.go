package queries

import (
	"context"
	"log/slog"
	"strings"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

// TaskQueries serves the read side of the task marketplace.
type TaskQueries struct {
	Tasks       ports.TaskRepository
	Validations ports.ValidationRepository
	Logger      *slog.Logger
}

// ListAvailableTasks returns claimable units, oldest first.
func (q TaskQueries) ListAvailableTasks(ctx context.Context, limit int) ([]entities.TaskUnit, error) {
	logger := application.ResolveLogger(q.Logger)
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	tasks, err := q.Tasks.ListAvailableTasks(ctx, limit)
	if err != nil {
		logger.Error("available task listing failed",
			"event", "task_query_available_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}
	return tasks, nil
}

// GetTask returns one unit by id.
func (q TaskQueries) GetTask(ctx context.Context, taskID string) (entities.TaskUnit, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return entities.TaskUnit{}, domainerrors.ErrInvalidInput
	}
	return q.Tasks.GetTask(ctx, taskID)
}

// ListProjectTasks returns every unit of a project in unit-index order.
func (q TaskQueries) ListProjectTasks(ctx context.Context, projectID string) ([]entities.TaskUnit, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return q.Tasks.ListTasksByProject(ctx, projectID)
}

// ListTaskValidations returns the peer-review rows for a unit.
func (q TaskQueries) ListTaskValidations(ctx context.Context, taskID string) ([]entities.Validation, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return q.Validations.ListValidationsByTask(ctx, taskID)
}
