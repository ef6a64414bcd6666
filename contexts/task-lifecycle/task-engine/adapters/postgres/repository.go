package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
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

	walletEntryTypeEarning = "earning"
	escrowEntryTypePayout  = "payout"
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

func (r *Repository) GetProject(ctx context.Context, projectID string) (ports.ProjectProjection, error) {
	var row projectModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(projectID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ProjectProjection{}, domainerrors.ErrProjectNotFound
		}
		return ports.ProjectProjection{}, r.logError("task_repo_get_project_failed", err,
			"project_id", strings.TrimSpace(projectID),
		)
	}
	return row.toProjection(), nil
}

func (r *Repository) ActivateProject(ctx context.Context, projectID string, totalUnits int, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&projectModel{}).
		Where("id = ?", strings.TrimSpace(projectID)).
		Where("status IN ?", []string{"draft", "funded"}).
		Updates(map[string]any{
			"status":      "active",
			"total_units": totalUnits,
			"updated_at":  now.UTC(),
		})
	if result.Error != nil {
		return r.logError("task_repo_activate_project_failed", result.Error,
			"project_id", strings.TrimSpace(projectID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPreconditionFailed
	}
	return nil
}

func (r *Repository) CreateTaskUnits(ctx context.Context, units []entities.TaskUnit) error {
	rows := make([]taskUnitModel, 0, len(units))
	for _, unit := range units {
		rows = append(rows, taskUnitModelFromEntity(unit))
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("task_repo_create_units_failed", err, "unit_count", len(units))
	}
	return nil
}

func (r *Repository) GetTask(ctx context.Context, taskID string) (entities.TaskUnit, error) {
	var row taskUnitModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(taskID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TaskUnit{}, domainerrors.ErrTaskNotFound
		}
		return entities.TaskUnit{}, r.logError("task_repo_get_task_failed", err, "task_id", strings.TrimSpace(taskID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAvailableTasks(ctx context.Context, limit int) ([]entities.TaskUnit, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []taskUnitModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.TaskStatusAvailable)).
		Order("created_at ASC, unit_index ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("task_repo_list_available_failed", err, "limit", limit)
	}
	return toTaskEntities(rows), nil
}

func (r *Repository) ListTasksByProject(ctx context.Context, projectID string) ([]entities.TaskUnit, error) {
	var rows []taskUnitModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("unit_index ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("task_repo_list_by_project_failed", err,
			"project_id", strings.TrimSpace(projectID),
		)
	}
	return toTaskEntities(rows), nil
}

// ClaimTask is the assignment race point. The conditional update serializes
// claimants on the row; exactly one transition wins.
func (r *Repository) ClaimTask(ctx context.Context, taskID string, workerID string, now time.Time) (entities.TaskUnit, error) {
	result := r.db.WithContext(ctx).
		Model(&taskUnitModel{}).
		Where("id = ?", strings.TrimSpace(taskID)).
		Where("status = ?", string(entities.TaskStatusAvailable)).
		Updates(map[string]any{
			"status":      string(entities.TaskStatusAssigned),
			"assignee_id": strings.TrimSpace(workerID),
			"assigned_at": now.UTC(),
			"updated_at":  now.UTC(),
		})
	if result.Error != nil {
		return entities.TaskUnit{}, r.logError("task_repo_claim_failed", result.Error,
			"task_id", strings.TrimSpace(taskID),
			"worker_id", strings.TrimSpace(workerID),
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetTask(ctx, taskID); err != nil {
			return entities.TaskUnit{}, err
		}
		return entities.TaskUnit{}, domainerrors.ErrAlreadyTaken
	}
	return r.GetTask(ctx, taskID)
}

func (r *Repository) SubmitTask(ctx context.Context, submission entities.Submission, now time.Time) (entities.TaskUnit, error) {
	row, err := submissionModelFromEntity(submission)
	if err != nil {
		return entities.TaskUnit{}, r.logError("task_repo_submit_encode_failed", err,
			"task_id", strings.TrimSpace(submission.TaskID),
		)
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		move := tx.Model(&taskUnitModel{}).
			Where("id = ?", strings.TrimSpace(submission.TaskID)).
			Where("status = ?", string(entities.TaskStatusAssigned)).
			Where("assignee_id = ?", strings.TrimSpace(submission.WorkerID)).
			Updates(map[string]any{
				"status":       string(entities.TaskStatusSubmitted),
				"submitted_at": now.UTC(),
				"updated_at":   now.UTC(),
			})
		if move.Error != nil {
			return move.Error
		}
		if move.RowsAffected == 0 {
			return domainerrors.ErrPreconditionFailed
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrPreconditionFailed) {
			return entities.TaskUnit{}, domainerrors.ErrPreconditionFailed
		}
		if isUniqueViolation(err) {
			return entities.TaskUnit{}, domainerrors.ErrConflict
		}
		return entities.TaskUnit{}, r.logError("task_repo_submit_failed", err,
			"task_id", strings.TrimSpace(submission.TaskID),
		)
	}
	return r.GetTask(ctx, submission.TaskID)
}

func (r *Repository) TransitionStatus(ctx context.Context, taskID string, from []entities.TaskStatus, to entities.TaskStatus, now time.Time) (entities.TaskUnit, error) {
	states := make([]string, 0, len(from))
	for _, status := range from {
		states = append(states, string(status))
	}
	result := r.db.WithContext(ctx).
		Model(&taskUnitModel{}).
		Where("id = ?", strings.TrimSpace(taskID)).
		Where("status IN ?", states).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return entities.TaskUnit{}, r.logError("task_repo_transition_failed", result.Error,
			"task_id", strings.TrimSpace(taskID),
			"to_status", string(to),
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetTask(ctx, taskID); err != nil {
			return entities.TaskUnit{}, err
		}
		return entities.TaskUnit{}, domainerrors.ErrPreconditionFailed
	}
	return r.GetTask(ctx, taskID)
}

func (r *Repository) CountActiveAssignments(ctx context.Context, workerID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&taskUnitModel{}).
		Where("assignee_id = ?", strings.TrimSpace(workerID)).
		Where("status IN ?", []string{
			string(entities.TaskStatusAssigned),
			string(entities.TaskStatusSubmitted),
			string(entities.TaskStatusVerifying),
		}).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("task_repo_count_active_failed", err, "worker_id", strings.TrimSpace(workerID))
	}
	return int(count), nil
}

func (r *Repository) ListVerifyingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]entities.TaskUnit, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []taskUnitModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.TaskStatusVerifying)).
		Where("updated_at < ?", cutoff.UTC()).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("task_repo_list_verifying_expired_failed", err, "limit", limit)
	}
	return toTaskEntities(rows), nil
}

func (r *Repository) GetSubmission(ctx context.Context, taskID string) (entities.Submission, error) {
	var row submissionModel
	err := r.db.WithContext(ctx).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		Order("submitted_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.Submission{}, r.logError("task_repo_get_submission_failed", err,
			"task_id", strings.TrimSpace(taskID),
		)
	}
	return row.toEntity()
}

func (r *Repository) CreateValidations(ctx context.Context, validations []entities.Validation) error {
	rows := make([]validationModel, 0, len(validations))
	for _, validation := range validations {
		rows = append(rows, validationModelFromEntity(validation))
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "validator_id"}},
		DoNothing: true,
	}).Create(&rows)
	if create.Error != nil {
		return r.logError("task_repo_create_validations_failed", create.Error,
			"validation_count", len(validations),
		)
	}
	return nil
}

// RecordVerdict resolves a pending row exactly once; the conditional update
// rejects both repeat verdicts and verdicts from unselected reviewers.
func (r *Repository) RecordVerdict(ctx context.Context, taskID string, validatorID string, verdict entities.Verdict, notes string, now time.Time) (entities.Validation, error) {
	result := r.db.WithContext(ctx).
		Model(&validationModel{}).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		Where("validator_id = ?", strings.TrimSpace(validatorID)).
		Where("verdict = ?", string(entities.VerdictPending)).
		Updates(map[string]any{
			"verdict":    string(verdict),
			"notes":      notes,
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return entities.Validation{}, r.logError("task_repo_record_verdict_failed", result.Error,
			"task_id", strings.TrimSpace(taskID),
			"validator_id", strings.TrimSpace(validatorID),
		)
	}
	if result.RowsAffected == 0 {
		existing, found, err := r.GetValidation(ctx, taskID, validatorID)
		if err != nil {
			return entities.Validation{}, err
		}
		if !found {
			return entities.Validation{}, domainerrors.ErrIneligible
		}
		if existing.Recorded() {
			return entities.Validation{}, domainerrors.ErrDuplicateValidation
		}
		return entities.Validation{}, domainerrors.ErrConflict
	}
	validation, _, err := r.GetValidation(ctx, taskID, validatorID)
	return validation, err
}

func (r *Repository) ListValidationsByTask(ctx context.Context, taskID string) ([]entities.Validation, error) {
	var rows []validationModel
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("task_repo_list_validations_failed", err,
			"task_id", strings.TrimSpace(taskID),
		)
	}
	items := make([]entities.Validation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetValidation(ctx context.Context, taskID string, validatorID string) (entities.Validation, bool, error) {
	var row validationModel
	err := r.db.WithContext(ctx).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		Where("validator_id = ?", strings.TrimSpace(validatorID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Validation{}, false, nil
		}
		return entities.Validation{}, false, r.logError("task_repo_get_validation_failed", err,
			"task_id", strings.TrimSpace(taskID),
			"validator_id", strings.TrimSpace(validatorID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetWorker(ctx context.Context, userID string) (ports.WorkerProfile, error) {
	var row workerProfileModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.WorkerProfile{}, domainerrors.ErrWorkerNotFound
		}
		return ports.WorkerProfile{}, r.logError("task_repo_get_worker_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toProfile(), nil
}

func (r *Repository) ListEligibleValidators(ctx context.Context, minReputation float64, exclude []string, limit int) ([]ports.WorkerProfile, error) {
	if limit <= 0 {
		limit = 2
	}
	tx := r.db.WithContext(ctx).
		Model(&workerProfileModel{}).
		Where("verified = ?", true).
		Where("reputation_score >= ?", minReputation)
	if len(exclude) > 0 {
		tx = tx.Where("user_id NOT IN ?", exclude)
	}
	var rows []workerProfileModel
	if err := tx.Order("reputation_score DESC, user_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("task_repo_list_validators_failed", err, "limit", limit)
	}
	items := make([]ports.WorkerProfile, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toProfile())
	}
	return items, nil
}

// SettleTask commits every completion effect in one transaction. The wallet
// row carries a unique reference; a replay inserts nothing and the whole
// transaction degrades to a no-op with applied=false.
func (r *Repository) SettleTask(ctx context.Context, record ports.SettlementRecord) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		walletRow := walletTransactionModel{
			ID:          uuid.NewString(),
			UserID:      strings.TrimSpace(record.WorkerID),
			EntryType:   walletEntryTypeEarning,
			Amount:      record.Amount.Amount,
			Currency:    record.Amount.Currency,
			Reference:   strings.TrimSpace(record.Reference),
			Status:      "completed",
			Description: "task unit payout",
			CreatedAt:   record.CompletedAt.UTC(),
			UpdatedAt:   record.CompletedAt.UTC(),
		}
		create := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).Create(&walletRow)
		if create.Error != nil {
			return create.Error
		}
		if create.RowsAffected == 0 {
			return nil
		}
		applied = true

		move := tx.Model(&taskUnitModel{}).
			Where("id = ?", strings.TrimSpace(record.TaskID)).
			Where("status IN ?", []string{
				string(entities.TaskStatusSubmitted),
				string(entities.TaskStatusVerifying),
			}).
			Updates(map[string]any{
				"status":       string(entities.TaskStatusCompleted),
				"completed_at": record.CompletedAt.UTC(),
				"updated_at":   record.CompletedAt.UTC(),
			})
		if move.Error != nil {
			return move.Error
		}
		if move.RowsAffected == 0 {
			return domainerrors.ErrPreconditionFailed
		}

		escrowRow := escrowEntryModel{
			ID:        uuid.NewString(),
			ProjectID: strings.TrimSpace(record.ProjectID),
			EntryType: escrowEntryTypePayout,
			Amount:    record.Amount.Amount,
			Currency:  record.Amount.Currency,
			Reference: strings.TrimSpace(record.Reference),
			CreatedAt: record.CompletedAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).Create(&escrowRow).Error; err != nil {
			return err
		}

		if err := tx.Model(&workerProfileModel{}).
			Where("user_id = ?", strings.TrimSpace(record.WorkerID)).
			Update("completed_tasks", gorm.Expr("completed_tasks + 1")).
			Error; err != nil {
			return err
		}

		project := tx.Model(&projectModel{}).
			Where("id = ?", strings.TrimSpace(record.ProjectID)).
			Updates(map[string]any{
				"completed_units": gorm.Expr("completed_units + 1"),
				"updated_at":      record.CompletedAt.UTC(),
			})
		if project.Error != nil {
			return project.Error
		}
		return tx.Model(&projectModel{}).
			Where("id = ?", strings.TrimSpace(record.ProjectID)).
			Where("total_units > 0").
			Where("completed_units >= total_units").
			Update("status", "completed").
			Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrPreconditionFailed) {
			return false, domainerrors.ErrPreconditionFailed
		}
		return false, r.logError("task_repo_settle_failed", err,
			"task_id", strings.TrimSpace(record.TaskID),
			"reference", strings.TrimSpace(record.Reference),
		)
	}
	return applied, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("task_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
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
		return r.logError("task_repo_append_outbox_insert_failed", create.Error,
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
		return r.logError("task_repo_append_outbox_load_existing_failed", err,
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
		return nil, r.logError("task_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("task_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("task_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("task_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "task-lifecycle/task-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("task repository operation failed", fields...)
	return err
}

type taskUnitModel struct {
	ID                   string          `gorm:"column:id;primaryKey"`
	ProjectID            string          `gorm:"column:project_id"`
	UnitIndex            int             `gorm:"column:unit_index"`
	Title                string          `gorm:"column:title"`
	Description          string          `gorm:"column:description"`
	TaskType             string          `gorm:"column:task_type"`
	PayAmount            decimal.Decimal `gorm:"column:pay_amount"`
	Currency             string          `gorm:"column:currency"`
	EstimatedTimeSeconds int             `gorm:"column:estimated_time_seconds"`
	Payload              []byte          `gorm:"column:payload"`
	StrategyKind         string          `gorm:"column:strategy_kind"`
	RequiredPeers        int             `gorm:"column:required_peers"`
	RequiredApprovals    int             `gorm:"column:required_approvals"`
	Status               string          `gorm:"column:status"`
	AssigneeID           *string         `gorm:"column:assignee_id"`
	AssignedAt           *time.Time      `gorm:"column:assigned_at"`
	SubmittedAt          *time.Time      `gorm:"column:submitted_at"`
	CompletedAt          *time.Time      `gorm:"column:completed_at"`
	CreatedAt            time.Time       `gorm:"column:created_at"`
	UpdatedAt            time.Time       `gorm:"column:updated_at"`
}

func (taskUnitModel) TableName() string {
	return "task_units"
}

func taskUnitModelFromEntity(unit entities.TaskUnit) taskUnitModel {
	row := taskUnitModel{
		ID:                   strings.TrimSpace(unit.TaskID),
		ProjectID:            strings.TrimSpace(unit.ProjectID),
		UnitIndex:            unit.UnitIndex,
		Title:                unit.Title,
		Description:          unit.Description,
		TaskType:             string(unit.Type),
		PayAmount:            unit.PayAmount.Amount,
		Currency:             unit.PayAmount.Currency,
		EstimatedTimeSeconds: unit.EstimatedTimeSeconds,
		Payload:              unit.Payload,
		StrategyKind:         string(unit.Strategy.Kind),
		RequiredPeers:        unit.Strategy.RequiredPeers,
		RequiredApprovals:    unit.Strategy.RequiredApprovals,
		Status:               string(unit.Status),
		AssignedAt:           unit.AssignedAt,
		SubmittedAt:          unit.SubmittedAt,
		CompletedAt:          unit.CompletedAt,
		CreatedAt:            unit.CreatedAt.UTC(),
		UpdatedAt:            unit.UpdatedAt.UTC(),
	}
	if strings.TrimSpace(unit.AssigneeID) != "" {
		assignee := strings.TrimSpace(unit.AssigneeID)
		row.AssigneeID = &assignee
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m taskUnitModel) toEntity() entities.TaskUnit {
	assignee := ""
	if m.AssigneeID != nil {
		assignee = *m.AssigneeID
	}
	return entities.TaskUnit{
		TaskID:               m.ID,
		ProjectID:            m.ProjectID,
		UnitIndex:            m.UnitIndex,
		Title:                m.Title,
		Description:          m.Description,
		Type:                 entities.TaskType(m.TaskType),
		PayAmount:            money.Money{Amount: m.PayAmount, Currency: m.Currency},
		EstimatedTimeSeconds: m.EstimatedTimeSeconds,
		Payload:              m.Payload,
		Strategy: entities.StrategySpec{
			Kind:              entities.StrategyKind(m.StrategyKind),
			RequiredPeers:     m.RequiredPeers,
			RequiredApprovals: m.RequiredApprovals,
		},
		Status:      entities.TaskStatus(m.Status),
		AssigneeID:  assignee,
		AssignedAt:  m.AssignedAt,
		SubmittedAt: m.SubmittedAt,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func toTaskEntities(rows []taskUnitModel) []entities.TaskUnit {
	items := make([]entities.TaskUnit, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type submissionModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	TaskID         string    `gorm:"column:task_id"`
	WorkerID       string    `gorm:"column:worker_id"`
	Payload        []byte    `gorm:"column:payload"`
	Photos         []byte    `gorm:"column:photos"`
	Location       []byte    `gorm:"column:location"`
	SupervisorCode string    `gorm:"column:supervisor_code"`
	SubmittedAt    time.Time `gorm:"column:submitted_at"`
}

func (submissionModel) TableName() string {
	return "task_submissions"
}

func submissionModelFromEntity(submission entities.Submission) (submissionModel, error) {
	photos, err := json.Marshal(submission.Photos)
	if err != nil {
		return submissionModel{}, err
	}
	var location []byte
	if submission.Location != nil {
		location, err = json.Marshal(submission.Location)
		if err != nil {
			return submissionModel{}, err
		}
	}
	return submissionModel{
		ID:             strings.TrimSpace(submission.SubmissionID),
		TaskID:         strings.TrimSpace(submission.TaskID),
		WorkerID:       strings.TrimSpace(submission.WorkerID),
		Payload:        submission.Payload,
		Photos:         photos,
		Location:       location,
		SupervisorCode: strings.TrimSpace(submission.SupervisorCode),
		SubmittedAt:    submission.SubmittedAt.UTC(),
	}, nil
}

func (m submissionModel) toEntity() (entities.Submission, error) {
	submission := entities.Submission{
		SubmissionID:   m.ID,
		TaskID:         m.TaskID,
		WorkerID:       m.WorkerID,
		Payload:        m.Payload,
		SupervisorCode: m.SupervisorCode,
		SubmittedAt:    m.SubmittedAt.UTC(),
	}
	if len(m.Photos) > 0 {
		if err := json.Unmarshal(m.Photos, &submission.Photos); err != nil {
			return entities.Submission{}, err
		}
	}
	if len(m.Location) > 0 {
		var location entities.GeoPoint
		if err := json.Unmarshal(m.Location, &location); err != nil {
			return entities.Submission{}, err
		}
		submission.Location = &location
	}
	return submission, nil
}

type validationModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	TaskID      string    `gorm:"column:task_id"`
	ValidatorID string    `gorm:"column:validator_id"`
	Verdict     string    `gorm:"column:verdict"`
	Notes       string    `gorm:"column:notes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (validationModel) TableName() string {
	return "task_validations"
}

func validationModelFromEntity(validation entities.Validation) validationModel {
	return validationModel{
		ID:          strings.TrimSpace(validation.ValidationID),
		TaskID:      strings.TrimSpace(validation.TaskID),
		ValidatorID: strings.TrimSpace(validation.ValidatorID),
		Verdict:     string(validation.Verdict),
		Notes:       validation.Notes,
		CreatedAt:   validation.CreatedAt.UTC(),
		UpdatedAt:   validation.UpdatedAt.UTC(),
	}
}

func (m validationModel) toEntity() entities.Validation {
	return entities.Validation{
		ValidationID: m.ID,
		TaskID:       m.TaskID,
		ValidatorID:  m.ValidatorID,
		Verdict:      entities.Verdict(m.Verdict),
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type projectModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	ClientID       string          `gorm:"column:client_id"`
	Title          string          `gorm:"column:title"`
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

func (m projectModel) toProjection() ports.ProjectProjection {
	return ports.ProjectProjection{
		ProjectID:      m.ID,
		ClientID:       m.ClientID,
		Title:          m.Title,
		Status:         m.Status,
		TaskType:       entities.TaskType(m.TaskType),
		TotalAmount:    money.Money{Amount: m.TotalAmount, Currency: m.Currency},
		EscrowLocked:   m.EscrowLocked,
		TotalUnits:     m.TotalUnits,
		CompletedUnits: m.CompletedUnits,
	}
}

type workerProfileModel struct {
	UserID          string  `gorm:"column:user_id;primaryKey"`
	Role            string  `gorm:"column:role"`
	Verified        bool    `gorm:"column:verified"`
	KYCCompleted    bool    `gorm:"column:kyc_completed"`
	ReputationScore float64 `gorm:"column:reputation_score"`
	Tier            int     `gorm:"column:tier"`
	CompletedTasks  int     `gorm:"column:completed_tasks"`
}

func (workerProfileModel) TableName() string {
	return "worker_profiles"
}

func (m workerProfileModel) toProfile() ports.WorkerProfile {
	return ports.WorkerProfile{
		UserID:          m.UserID,
		Role:            m.Role,
		Verified:        m.Verified,
		KYCCompleted:    m.KYCCompleted,
		ReputationScore: m.ReputationScore,
		Tier:            m.Tier,
	}
}

type walletTransactionModel struct {
	ID          string          `gorm:"column:id;primaryKey"`
	UserID      string          `gorm:"column:user_id"`
	EntryType   string          `gorm:"column:entry_type"`
	Amount      decimal.Decimal `gorm:"column:amount"`
	Currency    string          `gorm:"column:currency"`
	Reference   string          `gorm:"column:reference"`
	Status      string          `gorm:"column:status"`
	Description string          `gorm:"column:description"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (walletTransactionModel) TableName() string {
	return "wallet_transactions"
}

type escrowEntryModel struct {
	ID        string          `gorm:"column:id;primaryKey"`
	ProjectID string          `gorm:"column:project_id"`
	EntryType string          `gorm:"column:entry_type"`
	Amount    decimal.Decimal `gorm:"column:amount"`
	Currency  string          `gorm:"column:currency"`
	Reference string          `gorm:"column:reference"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (escrowEntryModel) TableName() string {
	return "escrow_ledger"
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
	return "task_engine_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "task_engine_event_dedup"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.TaskRepository       = (*Repository)(nil)
	_ ports.ValidationRepository = (*Repository)(nil)
	_ ports.WorkerDirectory      = (*Repository)(nil)
	_ ports.ProjectStore         = (*Repository)(nil)
	_ ports.SettlementStore      = (*Repository)(nil)
	_ ports.OutboxWriter         = (*Repository)(nil)
	_ ports.OutboxRepository     = (*Repository)(nil)
	_ ports.EventDedupStore      = (*Repository)(nil)
)
