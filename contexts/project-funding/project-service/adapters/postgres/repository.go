package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"flow/contexts/project-funding/project-service/domain/entities"
	domainerrors "flow/contexts/project-funding/project-service/domain/errors"
	"flow/contexts/project-funding/project-service/ports"
	"flow/internal/shared/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateProject(ctx context.Context, project entities.Project) error {
	row := projectModelFromEntity(project)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("project_repo_create_failed", err,
			"project_id", strings.TrimSpace(project.ProjectID),
		)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, projectID string) (entities.Project, error) {
	var row projectModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(projectID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Project{}, domainerrors.ErrProjectNotFound
		}
		return entities.Project{}, r.logError("project_repo_get_failed", err,
			"project_id", strings.TrimSpace(projectID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListProjectsByClient(ctx context.Context, clientID string) ([]entities.Project, error) {
	var rows []projectModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", strings.TrimSpace(clientID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("project_repo_list_by_client_failed", err,
			"client_id", strings.TrimSpace(clientID),
		)
	}
	items := make([]entities.Project, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkFunded(ctx context.Context, projectID string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&projectModel{}).
		Where("id = ?", strings.TrimSpace(projectID)).
		Where("status = ?", string(entities.ProjectStatusDraft)).
		Where("escrow_locked = ?", false).
		Updates(map[string]any{
			"status":        string(entities.ProjectStatusFunded),
			"escrow_locked": true,
			"updated_at":    now.UTC(),
		})
	if result.Error != nil {
		return r.logError("project_repo_mark_funded_failed", result.Error,
			"project_id", strings.TrimSpace(projectID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProjectStateInvalid
	}
	return nil
}

func (r *Repository) AppendAudit(ctx context.Context, audit entities.ProjectAudit) error {
	row := projectAuditModel{
		ID:        strings.TrimSpace(audit.AuditID),
		ProjectID: strings.TrimSpace(audit.ProjectID),
		ActorID:   strings.TrimSpace(audit.ActorID),
		Action:    audit.Action,
		Detail:    audit.Detail,
		CreatedAt: audit.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("project_repo_append_audit_failed", err,
			"project_id", row.ProjectID,
			"action", row.Action,
		)
	}
	return nil
}

func (r *Repository) ListAudits(ctx context.Context, projectID string) ([]entities.ProjectAudit, error) {
	var rows []projectAuditModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("project_repo_list_audits_failed", err,
			"project_id", strings.TrimSpace(projectID),
		)
	}
	items := make([]entities.ProjectAudit, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.ProjectAudit{
			AuditID:   row.ID,
			ProjectID: row.ProjectID,
			ActorID:   row.ActorID,
			Action:    row.Action,
			Detail:    row.Detail,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("project_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("project_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("project_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("project_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("project_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "project-funding/project-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("project repository operation failed", fields...)
	return err
}

type projectModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	ClientID       string          `gorm:"column:client_id"`
	Title          string          `gorm:"column:title"`
	Description    string          `gorm:"column:description"`
	Status         string          `gorm:"column:status"`
	TaskType       string          `gorm:"column:task_type"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount"`
	Currency       string          `gorm:"column:currency"`
	EscrowLocked   bool            `gorm:"column:escrow_locked"`
	TotalUnits     int             `gorm:"column:total_units"`
	CompletedUnits int             `gorm:"column:completed_units"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (projectModel) TableName() string {
	return "projects"
}

func projectModelFromEntity(project entities.Project) projectModel {
	row := projectModel{
		ID:             strings.TrimSpace(project.ProjectID),
		ClientID:       strings.TrimSpace(project.ClientID),
		Title:          project.Title,
		Description:    project.Description,
		Status:         string(project.Status),
		TaskType:       string(project.TaskType),
		TotalAmount:    project.TotalAmount.Amount,
		Currency:       project.TotalAmount.Currency,
		EscrowLocked:   project.EscrowLocked,
		TotalUnits:     project.TotalUnits,
		CompletedUnits: project.CompletedUnits,
		CreatedAt:      project.CreatedAt.UTC(),
		UpdatedAt:      project.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m projectModel) toEntity() entities.Project {
	return entities.Project{
		ProjectID:      m.ID,
		ClientID:       m.ClientID,
		Title:          m.Title,
		Description:    m.Description,
		Status:         entities.ProjectStatus(m.Status),
		TaskType:       entities.TaskType(m.TaskType),
		TotalAmount:    money.Money{Amount: m.TotalAmount, Currency: m.Currency},
		EscrowLocked:   m.EscrowLocked,
		TotalUnits:     m.TotalUnits,
		CompletedUnits: m.CompletedUnits,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type projectAuditModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	ProjectID string    `gorm:"column:project_id"`
	ActorID   string    `gorm:"column:actor_id"`
	Action    string    `gorm:"column:action"`
	Detail    string    `gorm:"column:detail"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (projectAuditModel) TableName() string {
	return "project_audits"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "project_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.ProjectRepository = (*Repository)(nil)
	_ ports.OutboxWriter      = (*Repository)(nil)
	_ ports.OutboxRepository  = (*Repository)(nil)
)
