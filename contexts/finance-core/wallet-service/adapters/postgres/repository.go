package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"flow/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
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

func (r *Repository) ApplyCredit(ctx context.Context, tx entities.WalletTransaction) (bool, error) {
	row := transactionModelFromEntity(tx)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("wallet_repo_apply_credit_failed", create.Error,
			"reference", row.Reference,
			"user_id", row.UserID,
		)
	}
	return create.RowsAffected > 0, nil
}

// ApplyDebit checks the derived balance and inserts the debit inside one
// transaction. Serializing on the user's ledger rows keeps a concurrent pair
// of debits from overdrawing the wallet.
func (r *Repository) ApplyDebit(ctx context.Context, tx entities.WalletTransaction) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", strings.TrimSpace(tx.UserID)).Error; err != nil {
			return err
		}
		balance, err := r.balanceIn(dbtx, tx.UserID, tx.Amount.Currency)
		if err != nil {
			return err
		}
		remaining, err := balance.Sub(tx.Amount)
		if err != nil {
			return err
		}
		if remaining.Amount.IsNegative() {
			return domainerrors.ErrInsufficientFunds
		}
		row := transactionModelFromEntity(tx)
		create := dbtx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoNothing: true,
		}).Create(&row)
		if create.Error != nil {
			return create.Error
		}
		applied = create.RowsAffected > 0
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrInsufficientFunds) {
			return false, domainerrors.ErrInsufficientFunds
		}
		return false, r.logError("wallet_repo_apply_debit_failed", err,
			"reference", strings.TrimSpace(tx.Reference),
			"user_id", strings.TrimSpace(tx.UserID),
		)
	}
	return applied, nil
}

// RecordPending inserts the row only. Pending deposits are excluded from the
// derived balance until SettleDeposit flips them to completed.
func (r *Repository) RecordPending(ctx context.Context, tx entities.WalletTransaction) (bool, error) {
	row := transactionModelFromEntity(tx)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("wallet_repo_record_pending_failed", create.Error,
			"reference", row.Reference,
			"user_id", row.UserID,
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) SettleDeposit(ctx context.Context, transactionID string, now time.Time) (entities.WalletTransaction, error) {
	result := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("id = ?", strings.TrimSpace(transactionID)).
		Where("status = ?", string(entities.TransactionStatusPending)).
		Updates(map[string]any{
			"status":     string(entities.TransactionStatusCompleted),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return entities.WalletTransaction{}, r.logError("wallet_repo_settle_deposit_failed", result.Error,
			"transaction_id", strings.TrimSpace(transactionID),
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetTransaction(ctx, transactionID); err != nil {
			return entities.WalletTransaction{}, err
		}
		return entities.WalletTransaction{}, domainerrors.ErrConflict
	}
	return r.GetTransaction(ctx, transactionID)
}

func (r *Repository) GetBalance(ctx context.Context, userID string) (money.Money, error) {
	balance, err := r.balanceIn(r.db.WithContext(ctx), userID, money.DefaultCurrency)
	if err != nil {
		return money.Money{}, r.logError("wallet_repo_get_balance_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return balance, nil
}

// balanceIn derives the balance as credits minus debits. Debits count in
// every status: the withdrawal debit is committed at booking, and a terminal
// failure is reversed by its explicit refund credit, never by dropping the
// debit row. Deposit credits count only once the gateway confirms.
func (r *Repository) balanceIn(db *gorm.DB, userID string, currency string) (money.Money, error) {
	var raw struct {
		Credits decimal.Decimal
		Debits  decimal.Decimal
	}
	err := db.
		Model(&transactionModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN (entry_type IN ? AND status <> ?) OR (entry_type = ? AND status = ?) THEN amount ELSE 0 END), 0) AS credits, "+
				"COALESCE(SUM(CASE WHEN entry_type IN ? THEN amount ELSE 0 END), 0) AS debits",
			[]string{string(entities.EntryTypeEarning), string(entities.EntryTypeRefund)},
			string(entities.TransactionStatusFailed),
			string(entities.EntryTypeDeposit),
			string(entities.TransactionStatusCompleted),
			[]string{string(entities.EntryTypeWithdrawal), string(entities.EntryTypeEscrowFund)},
		).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Scan(&raw).
		Error
	if err != nil {
		return money.Money{}, err
	}
	return money.Money{Amount: raw.Credits.Sub(raw.Debits), Currency: currency}, nil
}

func (r *Repository) GetTransaction(ctx context.Context, transactionID string) (entities.WalletTransaction, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(transactionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.WalletTransaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.WalletTransaction{}, r.logError("wallet_repo_get_transaction_failed", err,
			"transaction_id", strings.TrimSpace(transactionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetTransactionByReference(ctx context.Context, reference string) (entities.WalletTransaction, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("reference = ?", strings.TrimSpace(reference)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.WalletTransaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.WalletTransaction{}, r.logError("wallet_repo_get_by_reference_failed", err,
			"reference", strings.TrimSpace(reference),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, limit int) ([]entities.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []transactionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("wallet_repo_list_transactions_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return toTransactionEntities(rows), nil
}

func (r *Repository) ListTransactionsByStatus(ctx context.Context, entryType entities.EntryType, status entities.TransactionStatus, limit int) ([]entities.WalletTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []transactionModel
	if err := r.db.WithContext(ctx).
		Where("entry_type = ?", string(entryType)).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("wallet_repo_list_by_status_failed", err,
			"entry_type", string(entryType),
			"status", string(status),
		)
	}
	return toTransactionEntities(rows), nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, transactionID string, from []entities.TransactionStatus, update ports.TransactionUpdate) (entities.WalletTransaction, error) {
	states := make([]string, 0, len(from))
	for _, status := range from {
		states = append(states, string(status))
	}
	fields := map[string]any{
		"status":     string(update.Status),
		"updated_at": update.UpdatedAt.UTC(),
	}
	if update.TransferCode != "" {
		fields["transfer_code"] = update.TransferCode
	}
	if update.FailureReason != "" {
		fields["failure_reason"] = update.FailureReason
	}
	if update.Attempts > 0 {
		fields["attempts"] = update.Attempts
	}
	result := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("id = ?", strings.TrimSpace(transactionID)).
		Where("status IN ?", states).
		Updates(fields)
	if result.Error != nil {
		return entities.WalletTransaction{}, r.logError("wallet_repo_update_transaction_failed", result.Error,
			"transaction_id", strings.TrimSpace(transactionID),
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetTransaction(ctx, transactionID); err != nil {
			return entities.WalletTransaction{}, err
		}
		return entities.WalletTransaction{}, domainerrors.ErrConflict
	}
	return r.GetTransaction(ctx, transactionID)
}

func (r *Repository) AppendEscrowEntry(ctx context.Context, entry entities.EscrowEntry) (bool, error) {
	row := escrowEntryModel{
		ID:        strings.TrimSpace(entry.EntryID),
		ProjectID: strings.TrimSpace(entry.ProjectID),
		EntryType: string(entry.EntryType),
		Amount:    entry.Amount.Amount,
		Currency:  entry.Amount.Currency,
		Reference: strings.TrimSpace(entry.Reference),
		CreatedAt: entry.CreatedAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("wallet_repo_append_escrow_failed", create.Error,
			"project_id", row.ProjectID,
			"reference", row.Reference,
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) ListEscrowEntries(ctx context.Context, projectID string) ([]entities.EscrowEntry, error) {
	var rows []escrowEntryModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("wallet_repo_list_escrow_failed", err,
			"project_id", strings.TrimSpace(projectID),
		)
	}
	items := make([]entities.EscrowEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.EscrowEntry{
			EntryID:   row.ID,
			ProjectID: row.ProjectID,
			EntryType: entities.EscrowEntryType(row.EntryType),
			Amount:    money.Money{Amount: row.Amount, Currency: row.Currency},
			Reference: row.Reference,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) AddBankAccount(ctx context.Context, account entities.BankAccount) error {
	row := bankAccountModelFromEntity(account)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("wallet_repo_add_bank_account_failed", err,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) GetBankAccount(ctx context.Context, userID string, accountID string) (entities.BankAccount, error) {
	var row bankAccountModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(accountID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.BankAccount{}, domainerrors.ErrBankAccountNotFound
		}
		return entities.BankAccount{}, r.logError("wallet_repo_get_bank_account_failed", err,
			"account_id", strings.TrimSpace(accountID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListBankAccounts(ctx context.Context, userID string) ([]entities.BankAccount, error) {
	var rows []bankAccountModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("wallet_repo_list_bank_accounts_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	items := make([]entities.BankAccount, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveRecipientCode(ctx context.Context, accountID string, recipientCode string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&bankAccountModel{}).
		Where("id = ?", strings.TrimSpace(accountID)).
		Updates(map[string]any{
			"recipient_code": strings.TrimSpace(recipientCode),
			"updated_at":     now.UTC(),
		})
	if result.Error != nil {
		return r.logError("wallet_repo_save_recipient_failed", result.Error,
			"account_id", strings.TrimSpace(accountID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBankAccountNotFound
	}
	return nil
}

func (r *Repository) GetProfile(ctx context.Context, userID string) (ports.ProfileView, error) {
	var row workerProfileModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ProfileView{}, domainerrors.ErrProfileNotFound
		}
		return ports.ProfileView{}, r.logError("wallet_repo_get_profile_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return ports.ProfileView{
		UserID:       row.UserID,
		Verified:     row.Verified,
		KYCCompleted: row.KYCCompleted,
	}, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("wallet_repo_append_outbox_marshal_failed", err,
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
		return r.logError("wallet_repo_append_outbox_insert_failed", create.Error,
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
		return r.logError("wallet_repo_append_outbox_load_existing_failed", err,
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
		return nil, r.logError("wallet_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("wallet_repo_mark_outbox_published_failed", result.Error,
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
		"module", "finance-core/wallet-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("wallet repository operation failed", fields...)
	return err
}

type transactionModel struct {
	ID            string          `gorm:"column:id;primaryKey"`
	UserID        string          `gorm:"column:user_id"`
	EntryType     string          `gorm:"column:entry_type"`
	Amount        decimal.Decimal `gorm:"column:amount"`
	Currency      string          `gorm:"column:currency"`
	Reference     string          `gorm:"column:reference"`
	Status        string          `gorm:"column:status"`
	Description   string          `gorm:"column:description"`
	TransferCode  string          `gorm:"column:transfer_code"`
	FailureReason string          `gorm:"column:failure_reason"`
	Attempts      int             `gorm:"column:attempts"`
	BankAccountID *string         `gorm:"column:bank_account_id"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (transactionModel) TableName() string {
	return "wallet_transactions"
}

func transactionModelFromEntity(tx entities.WalletTransaction) transactionModel {
	row := transactionModel{
		ID:            strings.TrimSpace(tx.TransactionID),
		UserID:        strings.TrimSpace(tx.UserID),
		EntryType:     string(tx.EntryType),
		Amount:        tx.Amount.Amount,
		Currency:      tx.Amount.Currency,
		Reference:     strings.TrimSpace(tx.Reference),
		Status:        string(tx.Status),
		Description:   tx.Description,
		TransferCode:  tx.TransferCode,
		FailureReason: tx.FailureReason,
		Attempts:      tx.Attempts,
		CreatedAt:     tx.CreatedAt.UTC(),
		UpdatedAt:     tx.UpdatedAt.UTC(),
	}
	if strings.TrimSpace(tx.BankAccountID) != "" {
		accountID := strings.TrimSpace(tx.BankAccountID)
		row.BankAccountID = &accountID
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m transactionModel) toEntity() entities.WalletTransaction {
	accountID := ""
	if m.BankAccountID != nil {
		accountID = *m.BankAccountID
	}
	return entities.WalletTransaction{
		TransactionID: m.ID,
		UserID:        m.UserID,
		EntryType:     entities.EntryType(m.EntryType),
		Amount:        money.Money{Amount: m.Amount, Currency: m.Currency},
		Reference:     m.Reference,
		Status:        entities.TransactionStatus(m.Status),
		Description:   m.Description,
		TransferCode:  m.TransferCode,
		FailureReason: m.FailureReason,
		Attempts:      m.Attempts,
		BankAccountID: accountID,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

func toTransactionEntities(rows []transactionModel) []entities.WalletTransaction {
	items := make([]entities.WalletTransaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
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

type bankAccountModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	UserID        string    `gorm:"column:user_id"`
	BankCode      string    `gorm:"column:bank_code"`
	BankName      string    `gorm:"column:bank_name"`
	AccountNumber string    `gorm:"column:account_number"`
	AccountName   string    `gorm:"column:account_name"`
	RecipientCode string    `gorm:"column:recipient_code"`
	Verified      bool      `gorm:"column:verified"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (bankAccountModel) TableName() string {
	return "bank_accounts"
}

func bankAccountModelFromEntity(account entities.BankAccount) bankAccountModel {
	return bankAccountModel{
		ID:            strings.TrimSpace(account.AccountID),
		UserID:        strings.TrimSpace(account.UserID),
		BankCode:      strings.TrimSpace(account.BankCode),
		BankName:      account.BankName,
		AccountNumber: strings.TrimSpace(account.AccountNumber),
		AccountName:   account.AccountName,
		RecipientCode: account.RecipientCode,
		Verified:      account.Verified,
		CreatedAt:     account.CreatedAt.UTC(),
		UpdatedAt:     account.UpdatedAt.UTC(),
	}
}

func (m bankAccountModel) toEntity() entities.BankAccount {
	return entities.BankAccount{
		AccountID:     m.ID,
		UserID:        m.UserID,
		BankCode:      m.BankCode,
		BankName:      m.BankName,
		AccountNumber: m.AccountNumber,
		AccountName:   m.AccountName,
		RecipientCode: m.RecipientCode,
		Verified:      m.Verified,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type workerProfileModel struct {
	UserID       string `gorm:"column:user_id;primaryKey"`
	Verified     bool   `gorm:"column:verified"`
	KYCCompleted bool   `gorm:"column:kyc_completed"`
}

func (workerProfileModel) TableName() string {
	return "worker_profiles"
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
	return "wallet_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.LedgerStore      = (*Repository)(nil)
	_ ports.EscrowStore      = (*Repository)(nil)
	_ ports.BankAccountStore = (*Repository)(nil)
	_ ports.ProfileStore     = (*Repository)(nil)
	_ ports.OutboxWriter     = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
)
