package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "flow/contexts/finance-core/wallet-service/application"
	"flow/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
)

// WithdrawalProcessor pushes pending withdrawals through the payment gateway.
// Gateway failures are retried across cycles up to MaxAttempts; a withdrawal
// that exhausts its attempts fails terminally and the debit is refunded.
type WithdrawalProcessor struct {
	Ledger      ports.LedgerStore
	Accounts    ports.BankAccountStore
	Gateway     ports.PaymentGateway
	Outbox      ports.OutboxWriter
	Alerts      ports.AlertSink
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	BatchSize   int
	MaxAttempts int
	Logger      *slog.Logger
}

func (p WithdrawalProcessor) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	limit := p.BatchSize
	if limit <= 0 {
		limit = 20
	}
	pending, err := p.Ledger.ListTransactionsByStatus(ctx, entities.EntryTypeWithdrawal, entities.TransactionStatusPending, limit)
	if err != nil {
		logger.Error("withdrawal processor list failed",
			"event", "wallet_withdrawal_list_failed",
			"module", "finance-core/wallet-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	for _, withdrawal := range pending {
		if err := p.processOne(ctx, withdrawal); err != nil {
			return err
		}
	}
	logger.Info("withdrawal processor cycle completed",
		"event", "wallet_withdrawal_cycle_completed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"processed_count", len(pending),
	)
	return nil
}

func (p WithdrawalProcessor) processOne(ctx context.Context, withdrawal entities.WalletTransaction) error {
	logger := application.ResolveLogger(p.Logger)
	now := p.now()

	account, err := p.Accounts.GetBankAccount(ctx, withdrawal.UserID, withdrawal.BankAccountID)
	if err != nil {
		return p.failTerminally(ctx, withdrawal, "bank account unavailable", now)
	}
	recipientCode := account.RecipientCode
	if recipientCode == "" {
		recipientCode, err = p.Gateway.CreateTransferRecipient(ctx, account.AccountName, account.AccountNumber, account.BankCode)
		if err != nil {
			return p.recordAttempt(ctx, withdrawal, err, now)
		}
		if err := p.Accounts.SaveRecipientCode(ctx, account.AccountID, recipientCode, now); err != nil {
			return err
		}
	}

	transferCode, status, err := p.Gateway.InitiateTransfer(ctx, recipientCode, withdrawal.Amount, withdrawal.Reference, "wallet withdrawal")
	if err != nil {
		return p.recordAttempt(ctx, withdrawal, err, now)
	}
	if status == ports.TransferStatusFailed {
		return p.failTerminally(ctx, withdrawal, "gateway rejected transfer", now)
	}

	if _, err := p.Ledger.UpdateTransaction(ctx, withdrawal.TransactionID,
		[]entities.TransactionStatus{entities.TransactionStatusPending},
		ports.TransactionUpdate{
			Status:       entities.TransactionStatusProcessing,
			TransferCode: transferCode,
			Attempts:     withdrawal.Attempts + 1,
			UpdatedAt:    now,
		}); err != nil {
		if err == domainerrors.ErrConflict {
			return nil
		}
		return err
	}
	logger.Info("withdrawal transfer initiated",
		"event", "wallet_withdrawal_initiated",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"transaction_id", withdrawal.TransactionID,
		"reference", withdrawal.Reference,
		"transfer_code", transferCode,
	)
	return nil
}

// recordAttempt bumps the retry counter, failing terminally once the budget
// is spent. Transient gateway errors never fail a withdrawal on their own.
func (p WithdrawalProcessor) recordAttempt(ctx context.Context, withdrawal entities.WalletTransaction, cause error, now time.Time) error {
	logger := application.ResolveLogger(p.Logger)
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	attempts := withdrawal.Attempts + 1
	logger.Warn("withdrawal transfer attempt failed",
		"event", "wallet_withdrawal_attempt_failed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"transaction_id", withdrawal.TransactionID,
		"reference", withdrawal.Reference,
		"attempt", attempts,
		"max_attempts", maxAttempts,
		"error", cause.Error(),
	)
	if attempts >= maxAttempts {
		return p.failTerminally(ctx, withdrawal, cause.Error(), now)
	}
	_, err := p.Ledger.UpdateTransaction(ctx, withdrawal.TransactionID,
		[]entities.TransactionStatus{entities.TransactionStatusPending},
		ports.TransactionUpdate{
			Status:        entities.TransactionStatusPending,
			Attempts:      attempts,
			FailureReason: cause.Error(),
			UpdatedAt:     now,
		})
	if err == domainerrors.ErrConflict {
		return nil
	}
	return err
}

// failTerminally marks the withdrawal failed and credits the debit back with
// a RFND- reference derived from the withdrawal, so the refund replays clean.
func (p WithdrawalProcessor) failTerminally(ctx context.Context, withdrawal entities.WalletTransaction, reason string, now time.Time) error {
	logger := application.ResolveLogger(p.Logger)
	if _, err := p.Ledger.UpdateTransaction(ctx, withdrawal.TransactionID,
		[]entities.TransactionStatus{entities.TransactionStatusPending, entities.TransactionStatusProcessing},
		ports.TransactionUpdate{
			Status:        entities.TransactionStatusFailed,
			FailureReason: reason,
			Attempts:      withdrawal.Attempts + 1,
			UpdatedAt:     now,
		}); err != nil {
		if err == domainerrors.ErrConflict {
			return nil
		}
		return err
	}

	refundID, err := p.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if _, err := p.Ledger.ApplyCredit(ctx, entities.WalletTransaction{
		TransactionID: refundID,
		UserID:        withdrawal.UserID,
		EntryType:     entities.EntryTypeRefund,
		Amount:        withdrawal.Amount,
		Reference:     "RFND-" + withdrawal.Reference,
		Status:        entities.TransactionStatusCompleted,
		Description:   "withdrawal refund",
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return err
	}

	if p.Alerts != nil {
		p.Alerts.Emit(ctx, ports.Alert{
			Title:       "Withdrawal failed",
			Description: "withdrawal " + withdrawal.Reference + " failed: " + reason,
			Severity:    "warning",
			Kind:        "withdrawal_failed",
		})
	}
	if err := p.appendEvent(ctx, "wallet.withdrawal_failed", withdrawal, reason, now); err != nil {
		return err
	}
	logger.Warn("withdrawal failed and refunded",
		"event", "wallet_withdrawal_failed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"transaction_id", withdrawal.TransactionID,
		"reference", withdrawal.Reference,
		"reason", reason,
	)
	return nil
}

func (p WithdrawalProcessor) appendEvent(ctx context.Context, eventType string, withdrawal entities.WalletTransaction, reason string, now time.Time) error {
	if p.Outbox == nil {
		return nil
	}
	eventID, err := p.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"transaction_id": withdrawal.TransactionID,
		"user_id":        withdrawal.UserID,
		"reference":      withdrawal.Reference,
		"amount":         withdrawal.Amount.StringAmount(),
		"currency":       withdrawal.Amount.Currency,
		"reason":         reason,
	})
	if err != nil {
		return err
	}
	return p.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       now.UTC(),
		SourceService:    "wallet-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "user_id",
		PartitionKey:     withdrawal.UserID,
		Data:             payload,
	})
}

func (p WithdrawalProcessor) now() time.Time {
	if p.Clock == nil {
		return time.Now().UTC()
	}
	return p.Clock.Now().UTC()
}
