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

// InitiateDepositCommand starts a gateway-hosted wallet top-up.
type InitiateDepositCommand struct {
	UserID   string
	Email    string
	Amount   string
	Currency string
}

// InitiatedDeposit pairs the pending ledger row with the gateway checkout URL
// the caller is redirected to.
type InitiatedDeposit struct {
	Transaction      entities.WalletTransaction
	AuthorizationURL string
}

// DepositUseCase books deposits. The booking only records a pending row; the
// balance credit happens when the deposit reconciler confirms the payment at
// the gateway.
type DepositUseCase struct {
	Ledger  ports.LedgerStore
	Gateway ports.PaymentGateway
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc DepositUseCase) InitiateDeposit(ctx context.Context, cmd InitiateDepositCommand) (InitiatedDeposit, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	email := strings.TrimSpace(cmd.Email)
	logger.Info("deposit initiation started",
		"event", "wallet_deposit_started",
		"module", "finance-core/wallet-service",
		"layer", "application",
		"user_id", userID,
		"amount", cmd.Amount,
	)
	if userID == "" || email == "" {
		return InitiatedDeposit{}, domainerrors.ErrInvalidInput
	}
	amount, err := money.FromString(cmd.Amount, cmd.Currency)
	if err != nil || !amount.Amount.IsPositive() {
		return InitiatedDeposit{}, domainerrors.ErrInvalidInput
	}

	transactionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return InitiatedDeposit{}, err
	}
	now := uc.now()
	deposit := entities.WalletTransaction{
		TransactionID: transactionID,
		UserID:        userID,
		EntryType:     entities.EntryTypeDeposit,
		Amount:        amount,
		Reference:     "DEP-" + transactionID,
		Status:        entities.TransactionStatusPending,
		Description:   "wallet deposit",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	authorizationURL, err := uc.Gateway.InitializePayment(ctx, email, amount, deposit.Reference)
	if err != nil {
		logger.Warn("deposit initialization rejected by gateway",
			"event", "wallet_deposit_gateway_failed",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"user_id", userID,
			"reference", deposit.Reference,
			"error", err.Error(),
		)
		return InitiatedDeposit{}, err
	}

	applied, err := uc.Ledger.RecordPending(ctx, deposit)
	if err != nil {
		return InitiatedDeposit{}, err
	}
	if !applied {
		return InitiatedDeposit{}, domainerrors.ErrDuplicateReference
	}

	if err := uc.appendEvent(ctx, "wallet.deposit_initiated", deposit, now); err != nil {
		return InitiatedDeposit{}, err
	}
	logger.Info("deposit booked",
		"event", "wallet_deposit_booked",
		"module", "finance-core/wallet-service",
		"layer", "application",
		"user_id", userID,
		"transaction_id", transactionID,
		"reference", deposit.Reference,
		"amount", amount.StringAmount(),
	)
	return InitiatedDeposit{Transaction: deposit, AuthorizationURL: authorizationURL}, nil
}

func (uc DepositUseCase) appendEvent(ctx context.Context, eventType string, tx entities.WalletTransaction, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"transaction_id": tx.TransactionID,
		"user_id":        tx.UserID,
		"amount":         tx.Amount.StringAmount(),
		"currency":       tx.Amount.Currency,
		"reference":      tx.Reference,
		"status":         string(tx.Status),
	})
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
		PartitionKeyPath: "user_id",
		PartitionKey:     tx.UserID,
		Data:             payload,
	})
}

func (uc DepositUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
