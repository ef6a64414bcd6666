package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"flow/contexts/finance-core/wallet-service/application/commands"
	"flow/contexts/finance-core/wallet-service/application/queries"
	"flow/contexts/finance-core/wallet-service/domain/entities"
	httptransport "flow/contexts/finance-core/wallet-service/transport/http"
)

type Handler struct {
	Withdrawals  commands.WithdrawUseCase
	Deposits     commands.DepositUseCase
	BankAccounts commands.BankAccountUseCase
	Queries      queries.WalletQueries
	Logger       *slog.Logger
}

func (h Handler) GetBalanceHandler(ctx context.Context, userID string) (httptransport.BalanceResponse, error) {
	balance, err := h.Queries.GetBalance(ctx, userID)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return httptransport.BalanceResponse{
		UserID:   userID,
		Balance:  balance.StringAmount(),
		Currency: balance.Currency,
	}, nil
}

func (h Handler) ListTransactionsHandler(ctx context.Context, userID string, limit int) (httptransport.TransactionListResponse, error) {
	transactions, err := h.Queries.ListTransactions(ctx, userID, limit)
	if err != nil {
		return httptransport.TransactionListResponse{}, err
	}
	items := make([]httptransport.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		items = append(items, mapTransaction(tx))
	}
	return httptransport.TransactionListResponse{Items: items}, nil
}

func (h Handler) RequestWithdrawalHandler(
	ctx context.Context,
	userID string,
	req httptransport.WithdrawRequest,
) (httptransport.TransactionResponse, error) {
	withdrawal, err := h.Withdrawals.RequestWithdrawal(ctx, commands.RequestWithdrawalCommand{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		BankAccountID: req.BankAccountID,
	})
	if err != nil {
		return httptransport.TransactionResponse{}, err
	}
	return mapTransaction(withdrawal), nil
}

func (h Handler) InitiateDepositHandler(
	ctx context.Context,
	userID string,
	req httptransport.DepositRequest,
) (httptransport.DepositResponse, error) {
	deposit, err := h.Deposits.InitiateDeposit(ctx, commands.InitiateDepositCommand{
		UserID:   userID,
		Email:    req.Email,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return httptransport.DepositResponse{}, err
	}
	return httptransport.DepositResponse{
		Transaction:      mapTransaction(deposit.Transaction),
		AuthorizationURL: deposit.AuthorizationURL,
	}, nil
}

func (h Handler) AddBankAccountHandler(
	ctx context.Context,
	userID string,
	req httptransport.AddBankAccountRequest,
) (httptransport.BankAccountResponse, error) {
	account, err := h.BankAccounts.AddBankAccount(ctx, commands.AddBankAccountCommand{
		UserID:        userID,
		BankCode:      req.BankCode,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		return httptransport.BankAccountResponse{}, err
	}
	return mapBankAccount(account), nil
}

func (h Handler) ListBankAccountsHandler(ctx context.Context, userID string) (httptransport.BankAccountListResponse, error) {
	accounts, err := h.Queries.ListBankAccounts(ctx, userID)
	if err != nil {
		return httptransport.BankAccountListResponse{}, err
	}
	items := make([]httptransport.BankAccountResponse, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, mapBankAccount(account))
	}
	return httptransport.BankAccountListResponse{Items: items}, nil
}

func (h Handler) ListBanksHandler(ctx context.Context) (httptransport.BankListResponse, error) {
	banks, err := h.Queries.ListBanks(ctx)
	if err != nil {
		return httptransport.BankListResponse{}, err
	}
	items := make([]httptransport.BankResponse, 0, len(banks))
	for _, bank := range banks {
		items = append(items, httptransport.BankResponse{Name: bank.Name, Code: bank.Code})
	}
	return httptransport.BankListResponse{Items: items}, nil
}

func (h Handler) ListEscrowEntriesHandler(ctx context.Context, projectID string) (httptransport.EscrowEntryListResponse, error) {
	entries, err := h.Queries.ListEscrowEntries(ctx, projectID)
	if err != nil {
		return httptransport.EscrowEntryListResponse{}, err
	}
	items := make([]httptransport.EscrowEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.EscrowEntryResponse{
			EntryID:   entry.EntryID,
			ProjectID: entry.ProjectID,
			EntryType: string(entry.EntryType),
			Amount:    entry.Amount.StringAmount(),
			Currency:  entry.Amount.Currency,
			Reference: entry.Reference,
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.EscrowEntryListResponse{Items: items}, nil
}

func mapTransaction(tx entities.WalletTransaction) httptransport.TransactionResponse {
	return httptransport.TransactionResponse{
		TransactionID: tx.TransactionID,
		UserID:        tx.UserID,
		EntryType:     string(tx.EntryType),
		Amount:        tx.Amount.StringAmount(),
		Currency:      tx.Amount.Currency,
		Reference:     tx.Reference,
		Status:        string(tx.Status),
		Description:   tx.Description,
		FailureReason: tx.FailureReason,
		CreatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     tx.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapBankAccount(account entities.BankAccount) httptransport.BankAccountResponse {
	return httptransport.BankAccountResponse{
		AccountID:     account.AccountID,
		UserID:        account.UserID,
		BankCode:      account.BankCode,
		BankName:      account.BankName,
		AccountNumber: account.AccountNumber,
		AccountName:   account.AccountName,
		Verified:      account.Verified,
	}
}
