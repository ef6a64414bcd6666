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

// TransferReconciler polls the gateway for in-flight withdrawals and settles
// them to their terminal state. A transfer still pending at the gateway is
// left alone for the next cycle.
type TransferReconciler struct {
	Ledger    ports.LedgerStore
	Gateway   ports.PaymentGateway
	Outbox    ports.OutboxWriter
	Alerts    ports.AlertSink
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

func (r TransferReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 20
	}
	inflight, err := r.Ledger.ListTransactionsByStatus(ctx, entities.EntryTypeWithdrawal, entities.TransactionStatusProcessing, limit)
	if err != nil {
		logger.Error("transfer reconciler list failed",
			"event", "wallet_reconcile_list_failed",
			"module", "finance-core/wallet-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(inflight) == 0 {
		return nil
	}

	now := r.now()
	for _, withdrawal := range inflight {
		status, err := r.Gateway.VerifyTransfer(ctx, withdrawal.Reference)
		if err != nil {
			logger.Warn("transfer verification unavailable",
				"event", "wallet_reconcile_verify_failed",
				"module", "finance-core/wallet-service",
				"layer", "worker",
				"transaction_id", withdrawal.TransactionID,
				"reference", withdrawal.Reference,
				"error", err.Error(),
			)
			continue
		}
		switch status {
		case ports.TransferStatusSuccess:
			if err := r.complete(ctx, withdrawal, now); err != nil {
				return err
			}
		case ports.TransferStatusFailed:
			if err := r.refund(ctx, withdrawal, now); err != nil {
				return err
			}
		}
	}
	logger.Info("transfer reconciler cycle completed",
		"event", "wallet_reconcile_cycle_completed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"checked_count", len(inflight),
	)
	return nil
}

func (r TransferReconciler) complete(ctx context.Context, withdrawal entities.WalletTransaction, now time.Time) error {
	logger := application.ResolveLogger(r.Logger)
	if _, err := r.Ledger.UpdateTransaction(ctx, withdrawal.TransactionID,
		[]entities.TransactionStatus{entities.TransactionStatusProcessing},
		ports.TransactionUpdate{
			Status:    entities.TransactionStatusCompleted,
			Attempts:  withdrawal.Attempts,
			UpdatedAt: now,
		}); err != nil {
		if err == domainerrors.ErrConflict {
			return nil
		}
		return err
	}
	if err := r.appendEvent(ctx, "wallet.withdrawal_completed", withdrawal, "", now); err != nil {
		return err
	}
	logger.Info("withdrawal completed",
		"event", "wallet_withdrawal_completed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"transaction_id", withdrawal.TransactionID,
		"reference", withdrawal.Reference,
	)
	return nil
}

func (r TransferReconciler) refund(ctx context.Context, withdrawal entities.WalletTransaction, now time.Time) error {
	if _, err := r.Ledger.UpdateTransaction(ctx, withdrawal.TransactionID,
		[]entities.TransactionStatus{entities.TransactionStatusProcessing},
		ports.TransactionUpdate{
			Status:        entities.TransactionStatusFailed,
			FailureReason: "gateway reported transfer failure",
			Attempts:      withdrawal.Attempts,
			UpdatedAt:     now,
		}); err != nil {
		if err == domainerrors.ErrConflict {
			return nil
		}
		return err
	}
	refundID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if _, err := r.Ledger.ApplyCredit(ctx, entities.WalletTransaction{
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
	if r.Alerts != nil {
		r.Alerts.Emit(ctx, ports.Alert{
			Title:       "Withdrawal transfer failed",
			Description: "transfer for " + withdrawal.Reference + " failed at the gateway; funds refunded",
			Severity:    "warning",
			Kind:        "withdrawal_failed",
		})
	}
	return r.appendEvent(ctx, "wallet.withdrawal_failed", withdrawal, "gateway reported transfer failure", now)
}

func (r TransferReconciler) appendEvent(ctx context.Context, eventType string, withdrawal entities.WalletTransaction, reason string, now time.Time) error {
	if r.Outbox == nil {
		return nil
	}
	eventID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"transaction_id": withdrawal.TransactionID,
		"user_id":        withdrawal.UserID,
		"reference":      withdrawal.Reference,
		"amount":         withdrawal.Amount.StringAmount(),
		"currency":       withdrawal.Amount.Currency,
	}
	if reason != "" {
		data["reason"] = reason
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
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

func (r TransferReconciler) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
