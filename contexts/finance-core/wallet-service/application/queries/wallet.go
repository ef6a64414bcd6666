package queries

import (
	"context"
	"log/slog"
	"strings"

	"flow/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
	"flow/internal/shared/money"
)

type WalletQueries struct {
	Ledger   ports.LedgerStore
	Accounts ports.BankAccountStore
	Escrow   ports.EscrowStore
	Gateway  ports.PaymentGateway
	Logger   *slog.Logger
}

func (q WalletQueries) GetBalance(ctx context.Context, userID string) (money.Money, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return money.Money{}, domainerrors.ErrInvalidInput
	}
	return q.Ledger.GetBalance(ctx, userID)
}

func (q WalletQueries) ListTransactions(ctx context.Context, userID string, limit int) ([]entities.WalletTransaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return q.Ledger.ListTransactions(ctx, userID, limit)
}

func (q WalletQueries) ListBankAccounts(ctx context.Context, userID string) ([]entities.BankAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return q.Accounts.ListBankAccounts(ctx, userID)
}

func (q WalletQueries) ListBanks(ctx context.Context) ([]ports.Bank, error) {
	return q.Gateway.ListBanks(ctx)
}

func (q WalletQueries) ListEscrowEntries(ctx context.Context, projectID string) ([]entities.EscrowEntry, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return q.Escrow.ListEscrowEntries(ctx, projectID)
}
