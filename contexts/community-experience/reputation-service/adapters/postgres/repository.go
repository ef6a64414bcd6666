package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"flow/contexts/community-experience/reputation-service/domain/entities"
	domainerrors "flow/contexts/community-experience/reputation-service/domain/errors"
	"flow/contexts/community-experience/reputation-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) GetReputation(ctx context.Context, userID string) (entities.WorkerReputation, error) {
	var row workerProfileModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.WorkerReputation{}, domainerrors.ErrProfileNotFound
		}
		return entities.WorkerReputation{}, r.logError("reputation_repo_get_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return entities.WorkerReputation{
		UserID:          row.UserID,
		CompletedTasks:  row.CompletedTasks,
		ReputationScore: row.ReputationScore,
		Tier:            row.Tier,
		UpdatedAt:       row.UpdatedAt.UTC(),
	}, nil
}

func (r *Repository) UpdateScore(ctx context.Context, userID string, score float64, tier int, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&workerProfileModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Updates(map[string]any{
			"reputation_score": score,
			"tier":             tier,
			"updated_at":       now.UTC(),
		})
	if result.Error != nil {
		return r.logError("reputation_repo_update_score_failed", result.Error,
			"user_id", strings.TrimSpace(userID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProfileNotFound
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
		return false, r.logError("reputation_repo_reserve_event_failed", create.Error,
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
		return false, r.logError("reputation_repo_reserve_event_load_existing_failed", err,
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
		"module", "community-experience/reputation-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("reputation repository operation failed", fields...)
	return err
}

type workerProfileModel struct {
	UserID          string    `gorm:"column:user_id;primaryKey"`
	Role            string    `gorm:"column:role"`
	Verified        bool      `gorm:"column:verified"`
	KYCCompleted    bool      `gorm:"column:kyc_completed"`
	ReputationScore float64   `gorm:"column:reputation_score"`
	Tier            int       `gorm:"column:tier"`
	CompletedTasks  int       `gorm:"column:completed_tasks"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (workerProfileModel) TableName() string {
	return "worker_profiles"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "reputation_event_dedup"
}

var (
	_ ports.ReputationRepository = (*Repository)(nil)
	_ ports.EventDedupStore      = (*Repository)(nil)
)
