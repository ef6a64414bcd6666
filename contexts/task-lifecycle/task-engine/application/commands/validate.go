package commands

import (
	"context"
	"strings"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/domain/strategy"
)

// RecordValidationCommand resolves one reviewer's pending validation row.
type RecordValidationCommand struct {
	TaskID      string
	ValidatorID string
	Approve     bool
	Notes       string
}

// RecordValidationResult reports the recorded verdict and the consensus
// decision it produced, if any.
type RecordValidationResult struct {
	Validation entities.Validation
	Decision   strategy.Decision
}

// RecordValidation accepts a verdict from a selected validator and re-tallies
// consensus. Only workers holding a pending row for the unit may vote, and
// each votes at most once.
func (uc VerificationUseCase) RecordValidation(ctx context.Context, cmd RecordValidationCommand) (RecordValidationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	taskID := strings.TrimSpace(cmd.TaskID)
	validatorID := strings.TrimSpace(cmd.ValidatorID)
	logger.Info("validation verdict processing started",
		"event", "task_validate_started",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", taskID,
		"validator_id", validatorID,
		"approve", cmd.Approve,
	)
	if taskID == "" || validatorID == "" {
		return RecordValidationResult{}, domainerrors.ErrInvalidInput
	}

	task, err := uc.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return RecordValidationResult{}, err
	}
	if task.Status != entities.TaskStatusVerifying {
		logger.Warn("validation verdict blocked on task status",
			"event", "task_validate_invalid_status",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"status", string(task.Status),
		)
		return RecordValidationResult{}, domainerrors.ErrPreconditionFailed
	}

	existing, found, err := uc.Validations.GetValidation(ctx, taskID, validatorID)
	if err != nil {
		return RecordValidationResult{}, err
	}
	if !found {
		logger.Warn("validation verdict from unselected reviewer",
			"event", "task_validate_not_selected",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"task_id", taskID,
			"validator_id", validatorID,
		)
		return RecordValidationResult{}, domainerrors.ErrIneligible
	}
	if existing.Recorded() {
		return RecordValidationResult{}, domainerrors.ErrDuplicateValidation
	}

	verdict := entities.VerdictRejected
	if cmd.Approve {
		verdict = entities.VerdictApproved
	}
	now := uc.now()
	validation, err := uc.Validations.RecordVerdict(ctx, taskID, validatorID, verdict, strings.TrimSpace(cmd.Notes), now)
	if err != nil {
		return RecordValidationResult{}, err
	}

	validations, err := uc.Validations.ListValidationsByTask(ctx, taskID)
	if err != nil {
		return RecordValidationResult{}, err
	}
	strat := strategy.ForSpec(task.Strategy, uc.Checker)
	decision := strat.OnValidation(task, validations)
	logger.Info("validation verdict recorded",
		"event", "task_validate_recorded",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"task_id", taskID,
		"validator_id", validatorID,
		"verdict", string(verdict),
		"decision", string(decision),
	)

	switch decision {
	case strategy.DecisionComplete:
		if err := uc.settleTask(ctx, task); err != nil {
			return RecordValidationResult{}, err
		}
	case strategy.DecisionDispute:
		if err := uc.disputeTask(ctx, task, "peer consensus rejected the submission"); err != nil {
			return RecordValidationResult{}, err
		}
	}
	return RecordValidationResult{Validation: validation, Decision: decision}, nil
}
