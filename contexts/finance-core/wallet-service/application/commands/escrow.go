package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/finance-core/wallet-service/application"
	"flow/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
	"flow/internal/shared/money"
)

// EscrowUseCase moves client funds into and out of project escrow. The debit
// and the escrow entry share one reference, so a replayed funding call is a
// complete no-op.
type EscrowUseCase struct {
	Ledger ports.LedgerStore
	Escrow ports.EscrowStore
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// LockEscrow debits the client wallet and records the escrow lock entry.
// Reference format ESC-<project_id> keys both rows.
func (uc EscrowUseCase) LockEscrow(ctx context.Context, projectID string, clientID string, amount money.Money) error {
	logger := application.ResolveLogger(uc.Logger)
	projectID = strings.TrimSpace(projectID)
	clientID = strings.TrimSpace(clientID)
	if projectID == "" || clientID == "" || !amount.Amount.IsPositive() {
		return domainerrors.ErrInvalidInput
	}
	reference := "ESC-" + projectID
	now := uc.now()

	transactionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	applied, err := uc.Ledger.ApplyDebit(ctx, entities.WalletTransaction{
		TransactionID: transactionID,
		UserID:        clientID,
		EntryType:     entities.EntryTypeEscrowFund,
		Amount:        amount,
		Reference:     reference,
		Status:        entities.TransactionStatusCompleted,
		Description:   "project escrow funding",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		logger.Warn("escrow funding debit failed",
			"event", "wallet_escrow_lock_debit_failed",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"project_id", projectID,
			"client_id", clientID,
			"error", err.Error(),
		)
		return err
	}
	if !applied {
		logger.Info("escrow funding replayed",
			"event", "wallet_escrow_lock_replayed",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"project_id", projectID,
			"reference", reference,
		)
		return nil
	}

	entryID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if _, err := uc.Escrow.AppendEscrowEntry(ctx, entities.EscrowEntry{
		EntryID:   entryID,
		ProjectID: projectID,
		EntryType: entities.EscrowEntryFunding,
		Amount:    amount,
		Reference: reference,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	if err := uc.appendEvent(ctx, "escrow.locked", projectID, map[string]any{
		"project_id": projectID,
		"client_id":  clientID,
		"amount":     amount.StringAmount(),
		"currency":   amount.Currency,
		"reference":  reference,
	}, now); err != nil {
		return err
	}

	logger.Info("escrow locked",
		"event", "wallet_escrow_locked",
		"module", "finance-core/wallet-service",
		"layer", "application",
		"project_id", projectID,
		"client_id", clientID,
		"amount", amount.StringAmount(),
	)
	return nil
}

func (uc EscrowUseCase) appendEvent(ctx context.Context, eventType string, partitionKey string, data map[string]any, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       now.UTC(),
		SourceService:    "wallet-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "project_id",
		PartitionKey:     partitionKey,
		Data:             payload,
	})
}

func (uc EscrowUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
