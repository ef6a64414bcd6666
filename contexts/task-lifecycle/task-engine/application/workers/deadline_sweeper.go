package workers

import (
	"context"
	"log/slog"
	"time"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

// DeadlineSweeper escalates units stuck in verification past the deadline,
// including units whose validator pool never reached the consensus size.
// Escalation goes to disputed for manual resolution; funds stay in escrow.
type DeadlineSweeper struct {
	Tasks     ports.TaskRepository
	Outbox    ports.OutboxWriter
	Alerts    ports.AlertSink
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Deadline  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce disputes a bounded batch of expired verifying units. Units that
// settle or dispute concurrently lose the status CAS and are skipped.
func (s DeadlineSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}
	deadline := s.Deadline
	if deadline <= 0 {
		deadline = 48 * time.Hour
	}
	now := s.now()
	cutoff := now.Add(-deadline)

	expired, err := s.Tasks.ListVerifyingOlderThan(ctx, cutoff, limit)
	if err != nil {
		logger.Error("deadline sweep list failed",
			"event", "task_sweep_list_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(expired) == 0 {
		logger.Debug("deadline sweep found no expired units",
			"event", "task_sweep_noop",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"cutoff", cutoff.Format(time.RFC3339),
		)
		return nil
	}

	escalated := 0
	for _, task := range expired {
		updated, err := s.Tasks.TransitionStatus(ctx, task.TaskID,
			[]entities.TaskStatus{entities.TaskStatusVerifying}, entities.TaskStatusDisputed, now)
		if err != nil {
			if err == domainerrors.ErrPreconditionFailed {
				continue
			}
			logger.Error("deadline sweep transition failed",
				"event", "task_sweep_transition_failed",
				"module", "task-lifecycle/task-engine",
				"layer", "worker",
				"task_id", task.TaskID,
				"error", err.Error(),
			)
			return err
		}
		if err := s.appendDisputedEvent(ctx, updated, now); err != nil {
			return err
		}
		if s.Alerts != nil {
			s.Alerts.Emit(ctx, ports.Alert{
				Title:       "Task verification deadline exceeded",
				Description: "task " + updated.TaskID + " exceeded the verification deadline and was escalated",
				Severity:    "warning",
				Kind:        "task_verification_expired",
			})
		}
		escalated++
	}

	logger.Info("deadline sweep cycle completed",
		"event", "task_sweep_completed",
		"module", "task-lifecycle/task-engine",
		"layer", "worker",
		"expired_count", len(expired),
		"escalated_count", escalated,
	)
	return nil
}

func (s DeadlineSweeper) appendDisputedEvent(ctx context.Context, task entities.TaskUnit, now time.Time) error {
	if s.Outbox == nil {
		return nil
	}
	logger := application.ResolveLogger(s.Logger)
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newEngineEnvelope(eventID, "task.disputed", task.TaskID, "task_id", now, map[string]any{
		"task_id":    task.TaskID,
		"project_id": task.ProjectID,
		"worker_id":  task.AssigneeID,
		"reason":     "verification deadline exceeded",
	})
	if err != nil {
		return err
	}
	if err := s.Outbox.AppendOutbox(ctx, envelope); err != nil {
		logger.Error("deadline sweep outbox append failed",
			"event", "task_sweep_outbox_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "worker",
			"task_id", task.TaskID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (s DeadlineSweeper) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
