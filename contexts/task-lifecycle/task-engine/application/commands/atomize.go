package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/task-lifecycle/task-engine/application"
	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

// AtomizeProjectCommand requests splitting a funded project into payable units.
type AtomizeProjectCommand struct {
	ProjectID string
	ActorID   string
	UnitCount int
	Strategy  entities.StrategySpec
}

// AtomizeProjectResult reports the created batch.
type AtomizeProjectResult struct {
	ProjectID string
	Units     []entities.TaskUnit
}

// AtomizeUseCase turns a funded, escrow-locked project into a contiguous batch
// of task units whose pay amounts sum exactly to the project budget.
type AtomizeUseCase struct {
	Projects         ports.ProjectStore
	Tasks            ports.TaskRepository
	Outbox           ports.OutboxWriter
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	DefaultUnitCount int
	Logger           *slog.Logger
}

func (uc AtomizeUseCase) AtomizeProject(ctx context.Context, cmd AtomizeProjectCommand) (AtomizeProjectResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	projectID := strings.TrimSpace(cmd.ProjectID)
	logger.Info("project atomization started",
		"event", "task_atomize_started",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"project_id", projectID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)
	if projectID == "" {
		return AtomizeProjectResult{}, domainerrors.ErrInvalidInput
	}
	unitCount := cmd.UnitCount
	if unitCount == 0 {
		unitCount = uc.DefaultUnitCount
	}
	if unitCount <= 0 {
		logger.Warn("project atomization rejected invalid unit count",
			"event", "task_atomize_validation_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"project_id", projectID,
			"unit_count", unitCount,
		)
		return AtomizeProjectResult{}, domainerrors.ErrInvalidInput
	}

	project, err := uc.Projects.GetProject(ctx, projectID)
	if err != nil {
		return AtomizeProjectResult{}, err
	}
	if !project.EscrowLocked {
		logger.Warn("project atomization blocked on unlocked escrow",
			"event", "task_atomize_escrow_not_locked",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"project_id", projectID,
		)
		return AtomizeProjectResult{}, domainerrors.ErrPreconditionFailed
	}
	switch project.Status {
	case "draft", "funded":
	default:
		logger.Warn("project atomization blocked on project status",
			"event", "task_atomize_invalid_status",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"project_id", projectID,
			"status", project.Status,
		)
		return AtomizeProjectResult{}, domainerrors.ErrPreconditionFailed
	}

	shares, err := project.TotalAmount.Split(unitCount)
	if err != nil {
		return AtomizeProjectResult{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	strategy := normalizeStrategy(cmd.Strategy)
	units := make([]entities.TaskUnit, 0, unitCount)
	for i := 0; i < unitCount; i++ {
		taskID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return AtomizeProjectResult{}, err
		}
		units = append(units, entities.TaskUnit{
			TaskID:      taskID,
			ProjectID:   projectID,
			UnitIndex:   i + 1,
			Title:       fmt.Sprintf("%s (unit %d of %d)", project.Title, i+1, unitCount),
			Description: fmt.Sprintf("Unit %d of project %s", i+1, projectID),
			Type:        project.TaskType,
			PayAmount:   shares[i],
			Strategy:    strategy,
			Status:      entities.TaskStatusAvailable,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	// Batch insert first, then flip the project. A crash between the two
	// leaves the project re-activatable and the insert replays as a conflict.
	if err := uc.Tasks.CreateTaskUnits(ctx, units); err != nil {
		return AtomizeProjectResult{}, err
	}
	if err := uc.Projects.ActivateProject(ctx, projectID, unitCount, now); err != nil {
		return AtomizeProjectResult{}, err
	}

	if err := uc.appendAtomizedEvent(ctx, project, units, now); err != nil {
		logger.Error("project atomized event append failed",
			"event", "task_atomize_event_failed",
			"module", "task-lifecycle/task-engine",
			"layer", "application",
			"project_id", projectID,
			"error", err.Error(),
		)
		return AtomizeProjectResult{}, err
	}

	logger.Info("project atomized",
		"event", "task_atomize_completed",
		"module", "task-lifecycle/task-engine",
		"layer", "application",
		"project_id", projectID,
		"unit_count", unitCount,
		"total_amount", project.TotalAmount.StringAmount(),
	)
	return AtomizeProjectResult{ProjectID: projectID, Units: units}, nil
}

func (uc AtomizeUseCase) appendAtomizedEvent(ctx context.Context, project ports.ProjectProjection, units []entities.TaskUnit, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	taskIDs := make([]string, 0, len(units))
	for _, unit := range units {
		taskIDs = append(taskIDs, unit.TaskID)
	}
	envelope, err := newTaskEnvelope(eventID, EventProjectAtomized, project.ProjectID, now, map[string]any{
		"project_id":   project.ProjectID,
		"client_id":    project.ClientID,
		"unit_count":   len(units),
		"total_amount": project.TotalAmount.StringAmount(),
		"currency":     project.TotalAmount.Currency,
		"task_ids":     taskIDs,
	})
	if err != nil {
		return err
	}
	envelope.PartitionKeyPath = "project_id"
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func normalizeStrategy(spec entities.StrategySpec) entities.StrategySpec {
	switch spec.Kind {
	case entities.StrategyAIOnly, entities.StrategyPeerConsensus, entities.StrategySupervisor, entities.StrategyHybrid:
	default:
		spec.Kind = entities.StrategyPeerConsensus
	}
	if spec.RequiredPeers <= 0 {
		spec.RequiredPeers = 2
	}
	if spec.RequiredApprovals <= 0 {
		spec.RequiredApprovals = 1
	}
	if spec.RequiredApprovals > spec.RequiredPeers {
		spec.RequiredApprovals = spec.RequiredPeers
	}
	return spec
}

func (uc AtomizeUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
