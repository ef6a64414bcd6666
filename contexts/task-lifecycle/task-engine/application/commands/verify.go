package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/domain/strategy"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

// VerificationUseCase routes submitted task units through their verification
// strategy: direct settlement, peer review fan-out, or dispute escalation.
type VerificationUseCase struct {
	Tasks                  ports.TaskRepository
	Validations            ports.ValidationRepository
	Workers                ports.WorkerDirectory
	Settlement             ports.SettlementStore
	Outbox                 ports.OutboxWriter
	Alerts                 ports.AlertSink
	Clock                  ports.Clock
	IDGen                  ports.IDGenerator
	Checker                strategy.AIChecker
	ValidatorMinReputation float64
	Logger                 *slog.Logger
}

// VerifyTask runs the post-submission evaluation step. Replays for a unit
// that already left the submitted state are no-ops.
func (uc VerificationUseCase) VerifyTask(ctx context.Context, taskID string) error {
	logger := application.ResolveLogger(uc.Logger)
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domainerrors.ErrInvalidInput
	}
	task, err := uc.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != entities.TaskStatusSubmitted {
		logger.Info("task verification skipped, unit already routed",
			"event", "task_verify_skipped",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"status", string(task.Status),
		)
		return nil
	}
	submission, err := uc.Tasks.GetSubmission(ctx, taskID)
	if err != nil {
		return err
	}

	strat := strategy.ForSpec(task.Strategy, uc.Checker)
	outcome, err := strat.Evaluate(ctx, task, submission)
	if err != nil {
		return err
	}
	logger.Info("task evaluated",
		"event", "task_verify_evaluated",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", taskID,
		"strategy", string(strat.Kind()),
		"outcome", string(outcome),
	)

	if strat.RequiresPeerReview(outcome) {
		return uc.startPeerReview(ctx, task, submission)
	}
	if outcome == strategy.OutcomePass {
		return uc.settleTask(ctx, task)
	}
	return uc.disputeTask(ctx, task, "automated verification did not pass")
}

// startPeerReview moves the unit to verifying and fans out pending validation
// rows to eligible reviewers. A pool smaller than the consensus size is left
// short on purpose; the deadline sweeper escalates units that never decide.
func (uc VerificationUseCase) startPeerReview(ctx context.Context, task entities.TaskUnit, submission entities.Submission) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	updated, err := uc.Tasks.TransitionStatus(ctx, task.TaskID,
		[]entities.TaskStatus{entities.TaskStatusSubmitted}, entities.TaskStatusVerifying, now)
	if err != nil {
		if err == domainerrors.ErrPreconditionFailed {
			return nil
		}
		return err
	}

	exclude := []string{task.AssigneeID}
	validators, err := uc.Workers.ListEligibleValidators(ctx, uc.ValidatorMinReputation, exclude, task.Strategy.RequiredPeers)
	if err != nil {
		return err
	}
	validations := make([]entities.Validation, 0, len(validators))
	for _, validator := range validators {
		validationID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		validations = append(validations, entities.Validation{
			ValidationID: validationID,
			TaskID:       task.TaskID,
			ValidatorID:  validator.UserID,
			Verdict:      entities.VerdictPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if len(validations) > 0 {
		if err := uc.Validations.CreateValidations(ctx, validations); err != nil && err != domainerrors.ErrDuplicateValidation {
			return err
		}
	}
	if len(validators) < task.Strategy.RequiredPeers {
		logger.Warn("peer review pool short of consensus size",
			"event", "task_verify_pool_short",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", task.TaskID,
			"required_peers", task.Strategy.RequiredPeers,
			"selected", len(validators),
		)
	}
	logger.Info("peer review started",
		"event", "task_verify_peer_review_started",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", updated.TaskID,
		"submission_id", submission.SubmissionID,
		"validator_count", len(validators),
	)
	return nil
}

// disputeTask escalates a unit for manual resolution. Funds stay in escrow.
func (uc VerificationUseCase) disputeTask(ctx context.Context, task entities.TaskUnit, reason string) error {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()
	updated, err := uc.Tasks.TransitionStatus(ctx, task.TaskID,
		[]entities.TaskStatus{entities.TaskStatusSubmitted, entities.TaskStatusVerifying}, entities.TaskStatusDisputed, now)
	if err != nil {
		if err == domainerrors.ErrPreconditionFailed {
			return nil
		}
		return err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newTaskEnvelope(eventID, EventTaskDisputed, updated.TaskID, now, map[string]any{
			"task_id":    updated.TaskID,
			"project_id": updated.ProjectID,
			"worker_id":  updated.AssigneeID,
			"reason":     reason,
		})
		if err != nil {
			return err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
	}
	if uc.Alerts != nil {
		uc.Alerts.Emit(ctx, ports.Alert{
			Title:       "Task unit disputed",
			Description: "task " + updated.TaskID + ": " + reason,
			Severity:    "warning",
			Kind:        "task_disputed",
		})
	}
	logger.Warn("task disputed",
		"event", "task_verify_disputed",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", updated.TaskID,
		"reason", reason,
	)
	return nil
}

func (uc VerificationUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
