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

// RequestWithdrawalCommand asks to move wallet funds to a verified bank account.
type RequestWithdrawalCommand struct {
	UserID        string
	Amount        string
	Currency      string
	BankAccountID string
}

// WithdrawUseCase validates and books withdrawal requests. The request path
// only debits the wallet and records a pending row; the gateway transfer
// happens asynchronously in the withdrawal processor.
type WithdrawUseCase struct {
	Ledger       ports.LedgerStore
	Accounts     ports.BankAccountStore
	Profiles     ports.ProfileStore
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	KYCThreshold money.Money
	Logger       *slog.Logger
}

func (uc WithdrawUseCase) RequestWithdrawal(ctx context.Context, cmd RequestWithdrawalCommand) (entities.WalletTransaction, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	logger.Info("withdrawal request started",
		"event", "wallet_withdraw_started",
		"module", "finance-core/wallet-service",
		"layer", "application",
		"user_id", userID,
		"amount", cmd.Amount,
	)
	if userID == "" || strings.TrimSpace(cmd.BankAccountID) == "" {
		return entities.WalletTransaction{}, domainerrors.ErrInvalidInput
	}
	amount, err := money.FromString(cmd.Amount, cmd.Currency)
	if err != nil || !amount.Amount.IsPositive() {
		return entities.WalletTransaction{}, domainerrors.ErrInvalidInput
	}

	profile, err := uc.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return entities.WalletTransaction{}, err
	}
	if uc.KYCThreshold.Amount.IsPositive() && amount.Currency == uc.KYCThreshold.Currency &&
		amount.Amount.GreaterThanOrEqual(uc.KYCThreshold.Amount) && !profile.KYCCompleted {
		logger.Warn("withdrawal blocked pending identity verification",
			"event", "wallet_withdraw_kyc_required",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"user_id", userID,
			"amount", amount.StringAmount(),
			"threshold", uc.KYCThreshold.StringAmount(),
		)
		return entities.WalletTransaction{}, domainerrors.ErrVerificationRequired
	}

	account, err := uc.Accounts.GetBankAccount(ctx, userID, cmd.BankAccountID)
	if err != nil {
		return entities.WalletTransaction{}, err
	}
	if !account.Verified {
		return entities.WalletTransaction{}, domainerrors.ErrBankAccountUnverified
	}

	transactionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.WalletTransaction{}, err
	}
	now := uc.now()
	withdrawal := entities.WalletTransaction{
		TransactionID: transactionID,
		UserID:        userID,
		EntryType:     entities.EntryTypeWithdrawal,
		Amount:        amount,
		Reference:     "WDR-" + transactionID,
		Status:        entities.TransactionStatusPending,
		Description:   "wallet withdrawal",
		BankAccountID: account.AccountID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applied, err := uc.Ledger.ApplyDebit(ctx, withdrawal)
	if err != nil {
		if err == domainerrors.ErrInsufficientFunds {
			logger.Warn("withdrawal rejected on balance",
				"event", "wallet_withdraw_insufficient_funds",
				"module", "finance-core/wallet-service",
				"layer", "application",
				"user_id", userID,
				"amount", amount.StringAmount(),
			)
		}
		return entities.WalletTransaction{}, err
	}
	if !applied {
		return entities.WalletTransaction{}, domainerrors.ErrDuplicateReference
	}

	if err := uc.appendEvent(ctx, "wallet.withdrawal_requested", withdrawal, now); err != nil {
		return entities.WalletTransaction{}, err
	}
	logger.Info("withdrawal booked",
		"event", "wallet_withdraw_booked",
		"module", "finance-core/wallet-service",
		"layer", "application",
		"user_id", userID,
		"transaction_id", transactionID,
		"reference", withdrawal.Reference,
		"amount", amount.StringAmount(),
	)
	return withdrawal, nil
}

func (uc WithdrawUseCase) appendEvent(ctx context.Context, eventType string, tx entities.WalletTransaction, now time.Time) error {
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

func (uc WithdrawUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
