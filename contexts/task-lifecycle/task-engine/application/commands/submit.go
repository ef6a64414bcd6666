package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

// SubmitTaskCommand records completed work for an assigned task unit.
type SubmitTaskCommand struct {
	TaskID         string
	WorkerID       string
	Payload        json.RawMessage
	Photos         []string
	Location       *entities.GeoPoint
	SupervisorCode string
}

// SubmissionUseCase validates evidence per task type and applies the
// assigned → submitted transition together with the submission row.
type SubmissionUseCase struct {
	Tasks  ports.TaskRepository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc SubmissionUseCase) SubmitTask(ctx context.Context, cmd SubmitTaskCommand) (entities.TaskUnit, error) {
	logger := application.ResolveLogger(uc.Logger)
	taskID := strings.TrimSpace(cmd.TaskID)
	workerID := strings.TrimSpace(cmd.WorkerID)
	logger.Info("task submission started",
		"event", "task_submit_started",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", taskID,
		"worker_id", workerID,
	)
	if taskID == "" || workerID == "" {
		return entities.TaskUnit{}, domainerrors.ErrInvalidInput
	}

	task, err := uc.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return entities.TaskUnit{}, err
	}
	if task.Status != entities.TaskStatusAssigned {
		logger.Warn("task submission blocked on status",
			"event", "task_submit_invalid_status",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"status", string(task.Status),
		)
		return entities.TaskUnit{}, domainerrors.ErrPreconditionFailed
	}
	if !strings.EqualFold(task.AssigneeID, workerID) {
		logger.Warn("task submission rejected for non-assignee",
			"event", "task_submit_not_assignee",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"worker_id", workerID,
		)
		return entities.TaskUnit{}, domainerrors.ErrIneligible
	}

	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TaskUnit{}, err
	}
	now := uc.now()
	submission := entities.Submission{
		SubmissionID:   submissionID,
		TaskID:         taskID,
		WorkerID:       workerID,
		Payload:        cmd.Payload,
		Photos:         cmd.Photos,
		Location:       cmd.Location,
		SupervisorCode: strings.TrimSpace(cmd.SupervisorCode),
		SubmittedAt:    now,
	}
	if task.RequiresPhysicalEvidence() && !submission.HasPhysicalEvidence() {
		logger.Warn("task submission missing physical evidence",
			"event", "task_submit_evidence_missing",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"task_type", string(task.Type),
			"photo_count", len(submission.Photos),
			"has_location", submission.Location != nil,
		)
		return entities.TaskUnit{}, domainerrors.ErrEvidenceMissing
	}

	updated, err := uc.Tasks.SubmitTask(ctx, submission, now)
	if err != nil {
		return entities.TaskUnit{}, err
	}

	if err := uc.appendSubmittedEvent(ctx, updated, submission, now); err != nil {
		logger.Error("task submitted event append failed",
			"event", "task_submit_event_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"error", err.Error(),
		)
		return entities.TaskUnit{}, err
	}

	logger.Info("task submitted",
		"event", "task_submit_completed",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", updated.TaskID,
		"submission_id", submissionID,
		"worker_id", workerID,
	)
	return updated, nil
}

func (uc SubmissionUseCase) appendSubmittedEvent(ctx context.Context, task entities.TaskUnit, submission entities.Submission, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newTaskEnvelope(eventID, EventTaskSubmitted, task.TaskID, now, map[string]any{
		"task_id":       task.TaskID,
		"project_id":    task.ProjectID,
		"submission_id": submission.SubmissionID,
		"worker_id":     submission.WorkerID,
		"strategy":      string(task.Strategy.Kind),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc SubmissionUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
