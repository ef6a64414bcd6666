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

// DepositReconciler polls the gateway for pending deposits and credits the
// wallet once the payment confirms. Deposits still pending at the gateway are
// left alone for the next cycle; abandoned payments are marked failed without
// any balance movement.
type DepositReconciler struct {
	Ledger    ports.LedgerStore
	Gateway   ports.PaymentGateway
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

func (r DepositReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 20
	}
	pending, err := r.Ledger.ListTransactionsByStatus(ctx, entities.EntryTypeDeposit, entities.TransactionStatusPending, limit)
	if err != nil {
		logger.Error("deposit reconciler list failed",
			"event", "wallet_deposit_reconcile_list_failed",
			"module", "finance-core/wallet-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := r.now()
	for _, deposit := range pending {
		status, err := r.Gateway.VerifyPayment(ctx, deposit.Reference)
		if err != nil {
			logger.Warn("deposit verification unavailable",
				"event", "wallet_deposit_verify_failed",
				"module", "finance-core/wallet-service",
				"layer", "worker",
				"transaction_id", deposit.TransactionID,
				"reference", deposit.Reference,
				"error", err.Error(),
			)
			continue
		}
		switch status {
		case ports.TransferStatusSuccess:
			if err := r.settle(ctx, deposit, now); err != nil {
				return err
			}
		case ports.TransferStatusFailed:
			if err := r.fail(ctx, deposit, now); err != nil {
				return err
			}
		}
	}
	logger.Info("deposit reconciler cycle completed",
		"event", "wallet_deposit_reconcile_cycle_completed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"checked_count", len(pending),
	)
	return nil
}

func (r DepositReconciler) settle(ctx context.Context, deposit entities.WalletTransaction, now time.Time) error {
	logger := application.ResolveLogger(r.Logger)
	settled, err := r.Ledger.SettleDeposit(ctx, deposit.TransactionID, now)
	if err != nil {
		if err == domainerrors.ErrConflict {
			return nil
		}
		return err
	}
	if err := r.appendEvent(ctx, "wallet.deposit_completed", settled, "", now); err != nil {
		return err
	}
	logger.Info("deposit credited",
		"event", "wallet_deposit_completed",
		"module", "finance-core/wallet-service",
		"layer", "worker",
		"transaction_id", settled.TransactionID,
		"reference", settled.Reference,
		"amount", settled.Amount.StringAmount(),
	)
	return nil
}

func (r DepositReconciler) fail(ctx context.Context, deposit entities.WalletTransaction, now time.Time) error {
	if _, err := r.Ledger.UpdateTransaction(ctx, deposit.TransactionID,
		[]entities.TransactionStatus{entities.TransactionStatusPending},
		ports.TransactionUpdate{
			Status:        entities.TransactionStatusFailed,
			FailureReason: "gateway reported payment failure",
			UpdatedAt:     now,
		}); err != nil {
		if err == domainerrors.ErrConflict {
			return nil
		}
		return err
	}
	return r.appendEvent(ctx, "wallet.deposit_failed", deposit, "gateway reported payment failure", now)
}

func (r DepositReconciler) appendEvent(ctx context.Context, eventType string, deposit entities.WalletTransaction, reason string, now time.Time) error {
	if r.Outbox == nil {
		return nil
	}
	eventID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"transaction_id": deposit.TransactionID,
		"user_id":        deposit.UserID,
		"reference":      deposit.Reference,
		"amount":         deposit.Amount.StringAmount(),
		"currency":       deposit.Amount.Currency,
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
		PartitionKey:     deposit.UserID,
		Data:             payload,
	})
}

func (r DepositReconciler) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
