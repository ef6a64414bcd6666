package commands

import (
	"context"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

// settleTask commits the completion effects for a verified unit. The store
// applies the completion stamp, the worker wallet credit, the escrow payout
// entry, and the project counter in one transaction keyed by the unit's
// settlement reference, so retries and concurrent tallies pay at most once.
func (uc VerificationUseCase) settleTask(ctx context.Context, task entities.TaskUnit) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	record := ports.SettlementRecord{
		TaskID:      task.TaskID,
		ProjectID:   task.ProjectID,
		WorkerID:    task.AssigneeID,
		Reference:   task.SettlementReference(),
		Amount:      task.PayAmount,
		CompletedAt: now,
	}
	applied, err := uc.Settlement.SettleTask(ctx, record)
	if err != nil {
		logger.Error("task settlement failed",
			"event", "task_settle_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", task.TaskID,
			"reference", record.Reference,
			"error", err.Error(),
		)
		return err
	}
	if !applied {
		logger.Info("task settlement replayed",
			"event", "task_settle_replayed",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", task.TaskID,
			"reference", record.Reference,
		)
		return nil
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newTaskEnvelope(eventID, EventTaskCompleted, task.TaskID, now, map[string]any{
			"task_id":    task.TaskID,
			"project_id": task.ProjectID,
			"worker_id":  task.AssigneeID,
			"amount":     task.PayAmount.StringAmount(),
			"currency":   task.PayAmount.Currency,
			"reference":  record.Reference,
		})
		if err != nil {
			return err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
	}

	logger.Info("task settled",
		"event", "task_settle_completed",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", task.TaskID,
		"worker_id", task.AssigneeID,
		"amount", task.PayAmount.StringAmount(),
		"reference", record.Reference,
	)
	return nil
}
