package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "flow/contexts/finance-core/wallet-service/application"
	"flow/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
)

// AddBankAccountCommand registers a payout destination after resolving the
// account name with the gateway.
type AddBankAccountCommand struct {
	UserID        string
	BankCode      string
	BankName      string
	AccountNumber string
}

// BankAccountUseCase manages payout destinations. Resolution against the
// gateway is the verification step; an account the gateway cannot resolve is
// never stored.
type BankAccountUseCase struct {
	Accounts ports.BankAccountStore
	Gateway  ports.PaymentGateway
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc BankAccountUseCase) AddBankAccount(ctx context.Context, cmd AddBankAccountCommand) (entities.BankAccount, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	accountNumber := strings.TrimSpace(cmd.AccountNumber)
	bankCode := strings.TrimSpace(cmd.BankCode)
	if userID == "" || accountNumber == "" || bankCode == "" {
		return entities.BankAccount{}, domainerrors.ErrInvalidInput
	}

	accountName, err := uc.Gateway.ResolveAccount(ctx, accountNumber, bankCode)
	if err != nil {
		logger.Warn("bank account resolution failed",
			"event", "wallet_bank_resolve_failed",
			"module", "finance-core/wallet-service",
			"layer", "application",
			"user_id", userID,
			"bank_code", bankCode,
			"error", err.Error(),
		)
		return entities.BankAccount{}, err
	}

	accountID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.BankAccount{}, err
	}
	now := uc.now()
	account := entities.BankAccount{
		AccountID:     accountID,
		UserID:        userID,
		BankCode:      bankCode,
		BankName:      strings.TrimSpace(cmd.BankName),
		AccountNumber: accountNumber,
		AccountName:   accountName,
		Verified:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.Accounts.AddBankAccount(ctx, account); err != nil {
		return entities.BankAccount{}, err
	}
	logger.Info("bank account added",
		"event", "wallet_bank_account_added",
		"module", "finance-core/wallet-service",
		"layer", "application",
		"user_id", userID,
		"account_id", accountID,
		"bank_code", bankCode,
	)
	return account, nil
}

func (uc BankAccountUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
