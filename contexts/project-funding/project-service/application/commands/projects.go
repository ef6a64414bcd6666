package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/project-funding/project-service/application"
	"flow/contexts/project-funding/project-service/domain/entities"
	domainerrors "flow/contexts/project-funding/project-service/domain/errors"
	"flow/contexts/project-funding/project-service/ports"
	"flow/internal/shared/money"
)

// CreateProjectCommand registers a draft project for a client.
type CreateProjectCommand struct {
	ClientID    string
	Title       string
	Description string
	TaskType    entities.TaskType
	TotalAmount string
	Currency    string
}

// FundProjectCommand locks the project budget into escrow.
type FundProjectCommand struct {
	ProjectID string
	ClientID  string
}

// ProjectUseCase orchestrates project writes and the funding handshake with
// the finance context.
type ProjectUseCase struct {
	Projects ports.ProjectRepository
	Escrow   ports.EscrowFunder
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc ProjectUseCase) CreateProject(ctx context.Context, cmd CreateProjectCommand) (entities.Project, error) {
	logger := application.ResolveLogger(uc.Logger)
	clientID := strings.TrimSpace(cmd.ClientID)
	title := strings.TrimSpace(cmd.Title)
	logger.Info("project creation started",
		"event", "project_create_started",
		"module", "project-funding/project-service",
		"layer", "application",
		"client_id", clientID,
	)
	if clientID == "" || title == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectInput
	}
	switch cmd.TaskType {
	case entities.TaskTypeDigital, entities.TaskTypePhysical, entities.TaskTypeHybrid:
	default:
		return entities.Project{}, domainerrors.ErrInvalidProjectInput
	}
	amount, err := money.FromString(cmd.TotalAmount, cmd.Currency)
	if err != nil || !amount.Amount.IsPositive() {
		logger.Warn("project creation rejected invalid amount",
			"event", "project_create_invalid_amount",
			"module", "project-funding/project-service",
			"layer", "application",
			"client_id", clientID,
			"amount", cmd.TotalAmount,
		)
		return entities.Project{}, domainerrors.ErrInvalidProjectInput
	}

	projectID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Project{}, err
	}
	now := uc.now()
	project := entities.Project{
		ProjectID:   projectID,
		ClientID:    clientID,
		Title:       title,
		Description: strings.TrimSpace(cmd.Description),
		TaskType:    cmd.TaskType,
		TotalAmount: amount,
		Status:      entities.ProjectStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Projects.CreateProject(ctx, project); err != nil {
		return entities.Project{}, err
	}
	if err := uc.appendAudit(ctx, projectID, clientID, "project_created", title, now); err != nil {
		return entities.Project{}, err
	}
	if err := uc.appendEvent(ctx, "project.created", project, now); err != nil {
		return entities.Project{}, err
	}
	logger.Info("project created",
		"event", "project_create_completed",
		"module", "project-funding/project-service",
		"layer", "application",
		"project_id", projectID,
		"client_id", clientID,
		"total_amount", amount.StringAmount(),
	)
	return project, nil
}

// FundProject debits the client and locks escrow, then moves the project to
// funded. The finance side is idempotent by project reference, so a retry
// after a crash between the two steps cannot double-debit.
func (uc ProjectUseCase) FundProject(ctx context.Context, cmd FundProjectCommand) (entities.Project, error) {
	logger := application.ResolveLogger(uc.Logger)
	projectID := strings.TrimSpace(cmd.ProjectID)
	clientID := strings.TrimSpace(cmd.ClientID)
	logger.Info("project funding started",
		"event", "project_fund_started",
		"module", "project-funding/project-service",
		"layer", "application",
		"project_id", projectID,
		"client_id", clientID,
	)
	if projectID == "" || clientID == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectInput
	}

	project, err := uc.Projects.GetProject(ctx, projectID)
	if err != nil {
		return entities.Project{}, err
	}
	if !strings.EqualFold(project.ClientID, clientID) {
		return entities.Project{}, domainerrors.ErrProjectNotFound
	}
	if !project.Fundable() {
		logger.Warn("project funding blocked on state",
			"event", "project_fund_invalid_state",
			"module", "project-funding/project-service",
			"layer", "application",
			"project_id", projectID,
			"status", string(project.Status),
			"escrow_locked", project.EscrowLocked,
		)
		return entities.Project{}, domainerrors.ErrProjectStateInvalid
	}

	if err := uc.Escrow.LockEscrow(ctx, projectID, clientID, project.TotalAmount); err != nil {
		logger.Error("project escrow lock failed",
			"event", "project_fund_escrow_failed",
			"module", "project-funding/project-service",
			"layer", "application",
			"project_id", projectID,
			"error", err.Error(),
		)
		return entities.Project{}, err
	}

	now := uc.now()
	if err := uc.Projects.MarkFunded(ctx, projectID, now); err != nil {
		return entities.Project{}, err
	}
	project.Status = entities.ProjectStatusFunded
	project.EscrowLocked = true
	project.UpdatedAt = now

	if err := uc.appendAudit(ctx, projectID, clientID, "project_funded", project.TotalAmount.String(), now); err != nil {
		return entities.Project{}, err
	}
	if err := uc.appendEvent(ctx, "project.funded", project, now); err != nil {
		return entities.Project{}, err
	}
	logger.Info("project funded",
		"event", "project_fund_completed",
		"module", "project-funding/project-service",
		"layer", "application",
		"project_id", projectID,
		"total_amount", project.TotalAmount.StringAmount(),
	)
	return project, nil
}

func (uc ProjectUseCase) appendAudit(ctx context.Context, projectID, actorID, action, detail string, now time.Time) error {
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return uc.Projects.AppendAudit(ctx, entities.ProjectAudit{
		AuditID:   auditID,
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    action,
		Detail:    detail,
		CreatedAt: now,
	})
}

func (uc ProjectUseCase) appendEvent(ctx context.Context, eventType string, project entities.Project, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"project_id":   project.ProjectID,
		"client_id":    project.ClientID,
		"status":       string(project.Status),
		"total_amount": project.TotalAmount.StringAmount(),
		"currency":     project.TotalAmount.Currency,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       now.UTC(),
		SourceService:    "project-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "project_id",
		PartitionKey:     project.ProjectID,
		Data:             payload,
	})
}

func (uc ProjectUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
