package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

// AcceptTaskCommand claims an available task unit for a worker.
type AcceptTaskCommand struct {
	TaskID   string
	WorkerID string
}

// AssignmentUseCase enforces the concurrent-assignment cap and runs the
// available → assigned compare-and-swap so exactly one claimant wins.
type AssignmentUseCase struct {
	Tasks         ports.TaskRepository
	Workers       ports.WorkerDirectory
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	AssignmentCap int
	Logger        *slog.Logger
}

func (uc AssignmentUseCase) AcceptTask(ctx context.Context, cmd AcceptTaskCommand) (entities.TaskUnit, error) {
	logger := application.ResolveLogger(uc.Logger)
	taskID := strings.TrimSpace(cmd.TaskID)
	workerID := strings.TrimSpace(cmd.WorkerID)
	logger.Info("task accept started",
		"event", "task_accept_started",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", taskID,
		"worker_id", workerID,
	)
	if taskID == "" || workerID == "" {
		return entities.TaskUnit{}, domainerrors.ErrInvalidInput
	}

	if _, err := uc.Workers.GetWorker(ctx, workerID); err != nil {
		return entities.TaskUnit{}, err
	}

	cap := uc.AssignmentCap
	if cap <= 0 {
		cap = 5
	}
	active, err := uc.Tasks.CountActiveAssignments(ctx, workerID)
	if err != nil {
		return entities.TaskUnit{}, err
	}
	if active >= cap {
		logger.Warn("task accept rejected at assignment cap",
			"event", "task_accept_cap_reached",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"worker_id", workerID,
			"active_assignments", active,
		)
		return entities.TaskUnit{}, domainerrors.ErrAssignmentLimit
	}

	now := uc.now()
	task, err := uc.Tasks.ClaimTask(ctx, taskID, workerID, now)
	if err != nil {
		if err == domainerrors.ErrAlreadyTaken {
			logger.Info("task accept lost claim race",
				"event", "task_accept_already_taken",
				"module", "task-lifecycle/task-engine",
				"layer", "application",
				"task_id", taskID,
				"worker_id", workerID,
			)
		}
		return entities.TaskUnit{}, err
	}

	if err := uc.appendAssignedEvent(ctx, task, now); err != nil {
		logger.Error("task assigned event append failed",
			"event", "task_accept_event_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"error", err.Error(),
		)
		return entities.TaskUnit{}, err
	}

	logger.Info("task accepted",
		"event", "task_accept_completed",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", task.TaskID,
		"worker_id", workerID,
	)
	return task, nil
}

func (uc AssignmentUseCase) appendAssignedEvent(ctx context.Context, task entities.TaskUnit, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newTaskEnvelope(eventID, EventTaskAssigned, task.TaskID, now, map[string]any{
		"task_id":    task.TaskID,
		"project_id": task.ProjectID,
		"worker_id":  task.AssigneeID,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc AssignmentUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
