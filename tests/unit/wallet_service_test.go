package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	walletservice "flow/contexts/finance-core/wallet-service"
	"flow/contexts/finance-core/wallet-service/adapters/memory"
	"flow/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
	wallethttp "flow/contexts/finance-core/wallet-service/transport/http"
	"flow/internal/shared/money"
)

func seedWalletUser(store *memory.Store, userID string, balance string, kycDone bool) {
	opening, _ := money.FromString(balance, "NGN")
	store.SeedBalance(userID, opening)
	store.SetProfile(ports.ProfileView{UserID: userID, Verified: true, KYCCompleted: kycDone})
}

func seedVerifiedAccount(t *testing.T, store *memory.Store, userID string, accountID string) {
	t.Helper()
	now := time.Now().UTC()
	if err := store.AddBankAccount(context.Background(), entities.BankAccount{
		AccountID:     accountID,
		UserID:        userID,
		BankCode:      "011",
		BankName:      "First Test Bank",
		AccountNumber: "0123456789",
		AccountName:   "ACCOUNT HOLDER 011",
		Verified:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		t.Fatalf("seed bank account: %v", err)
	}
}

func TestWithdrawalRejectedOnInsufficientFunds(t *testing.T) {
	module := walletservice.NewInMemoryModule(nil)
	seedWalletUser(module.Store, "user-poor", "100.00", true)
	seedVerifiedAccount(t, module.Store, "user-poor", "acct-1")

	_, err := module.Handler.RequestWithdrawalHandler(context.Background(), "user-poor",
		wallethttp.WithdrawRequest{Amount: "250.00", Currency: "NGN", BankAccountID: "acct-1"})
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	listed, err := module.Handler.ListTransactionsHandler(context.Background(), "user-poor", 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(listed.Items) != 0 {
		t.Fatalf("rejected withdrawal must not book a row, got %d", len(listed.Items))
	}
	balance, _ := module.Store.GetBalance(context.Background(), "user-poor")
	if balance.StringAmount() != "100.00" {
		t.Fatalf("balance changed on rejection: %s", balance.StringAmount())
	}
}

func TestWithdrawalAboveThresholdRequiresIdentityVerification(t *testing.T) {
	module := walletservice.NewInMemoryModule(nil)
	seedWalletUser(module.Store, "user-unverified", "80000.00", false)
	seedVerifiedAccount(t, module.Store, "user-unverified", "acct-2")

	_, err := module.Handler.RequestWithdrawalHandler(context.Background(), "user-unverified",
		wallethttp.WithdrawRequest{Amount: "50000.00", Currency: "NGN", BankAccountID: "acct-2"})
	if !errors.Is(err, domainerrors.ErrVerificationRequired) {
		t.Fatalf("expected verification required, got %v", err)
	}

	resp, err := module.Handler.RequestWithdrawalHandler(context.Background(), "user-unverified",
		wallethttp.WithdrawRequest{Amount: "49999.99", Currency: "NGN", BankAccountID: "acct-2"})
	if err != nil {
		t.Fatalf("below-threshold withdrawal failed: %v", err)
	}
	if resp.Status != string(entities.TransactionStatusPending) {
		t.Fatalf("expected pending withdrawal, got %s", resp.Status)
	}
}

func TestWithdrawalToUnverifiedAccountRejected(t *testing.T) {
	module := walletservice.NewInMemoryModule(nil)
	seedWalletUser(module.Store, "user-acct", "500.00", true)
	now := time.Now().UTC()
	if err := module.Store.AddBankAccount(context.Background(), entities.BankAccount{
		AccountID:     "acct-raw",
		UserID:        "user-acct",
		BankCode:      "032",
		AccountNumber: "0987654321",
		Verified:      false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		t.Fatalf("seed bank account: %v", err)
	}

	_, err := module.Handler.RequestWithdrawalHandler(context.Background(), "user-acct",
		wallethttp.WithdrawRequest{Amount: "100.00", Currency: "NGN", BankAccountID: "acct-raw"})
	if !errors.Is(err, domainerrors.ErrBankAccountUnverified) {
		t.Fatalf("expected unverified account rejection, got %v", err)
	}
}

func TestWithdrawalProcessorRetriesThenRefunds(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	deps := walletservice.Dependencies{
		Ledger:   store,
		Escrow:   store,
		Accounts: store,
		Profiles: store,
		Gateway:  gateway,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
	}
	module := walletservice.NewModule(deps)
	seedWalletUser(store, "user-retry", "300.00", true)
	seedVerifiedAccount(t, store, "user-retry", "acct-3")

	booked, err := module.Handler.RequestWithdrawalHandler(context.Background(), "user-retry",
		wallethttp.WithdrawRequest{Amount: "200.00", Currency: "NGN", BankAccountID: "acct-3"})
	if err != nil {
		t.Fatalf("withdrawal request failed: %v", err)
	}
	balance, _ := store.GetBalance(context.Background(), "user-retry")
	if balance.StringAmount() != "100.00" {
		t.Fatalf("debit not applied, balance %s", balance.StringAmount())
	}

	processor := walletservice.NewWithdrawalProcessor(deps, nil, nil)
	processor.MaxAttempts = 2
	gateway.SetUnavailable(true)

	for i := 0; i < 2; i++ {
		if err := processor.RunOnce(context.Background()); err != nil {
			t.Fatalf("processor cycle %d failed: %v", i+1, err)
		}
	}

	failed, err := store.GetTransaction(context.Background(), booked.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if failed.Status != entities.TransactionStatusFailed {
		t.Fatalf("expected terminal failure after retry budget, got %s", failed.Status)
	}
	refunded, _ := store.GetBalance(context.Background(), "user-retry")
	if refunded.StringAmount() != "300.00" {
		t.Fatalf("refund missing, balance %s", refunded.StringAmount())
	}
	refund, err := store.GetTransactionByReference(context.Background(), "RFND-"+failed.Reference)
	if err != nil {
		t.Fatalf("refund row missing: %v", err)
	}
	if refund.EntryType != entities.EntryTypeRefund {
		t.Fatalf("expected refund entry, got %s", refund.EntryType)
	}
}

func TestTransferReconcilerSettlesTerminalStates(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	deps := walletservice.Dependencies{
		Ledger:   store,
		Escrow:   store,
		Accounts: store,
		Profiles: store,
		Gateway:  gateway,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
	}
	module := walletservice.NewModule(deps)
	seedWalletUser(store, "user-settle", "1000.00", true)
	seedVerifiedAccount(t, store, "user-settle", "acct-4")

	first, err := module.Handler.RequestWithdrawalHandler(context.Background(), "user-settle",
		wallethttp.WithdrawRequest{Amount: "400.00", Currency: "NGN", BankAccountID: "acct-4"})
	if err != nil {
		t.Fatalf("first withdrawal failed: %v", err)
	}
	second, err := module.Handler.RequestWithdrawalHandler(context.Background(), "user-settle",
		wallethttp.WithdrawRequest{Amount: "300.00", Currency: "NGN", BankAccountID: "acct-4"})
	if err != nil {
		t.Fatalf("second withdrawal failed: %v", err)
	}

	processor := walletservice.NewWithdrawalProcessor(deps, nil, nil)
	if err := processor.RunOnce(context.Background()); err != nil {
		t.Fatalf("processor failed: %v", err)
	}

	gateway.SettleTransfer(first.Reference, ports.TransferStatusSuccess)
	gateway.SettleTransfer(second.Reference, ports.TransferStatusFailed)

	reconciler := walletservice.NewTransferReconciler(deps, nil, nil)
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("reconciler failed: %v", err)
	}

	completed, _ := store.GetTransaction(context.Background(), first.TransactionID)
	if completed.Status != entities.TransactionStatusCompleted {
		t.Fatalf("expected completed withdrawal, got %s", completed.Status)
	}
	failed, _ := store.GetTransaction(context.Background(), second.TransactionID)
	if failed.Status != entities.TransactionStatusFailed {
		t.Fatalf("expected failed withdrawal, got %s", failed.Status)
	}
	balance, _ := store.GetBalance(context.Background(), "user-settle")
	if balance.StringAmount() != "600.00" {
		t.Fatalf("expected 1000 - 400 after refund, got %s", balance.StringAmount())
	}
}

func TestDepositCreditsOnlyAfterGatewayConfirms(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	deps := walletservice.Dependencies{
		Ledger:   store,
		Escrow:   store,
		Accounts: store,
		Profiles: store,
		Gateway:  gateway,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
	}
	module := walletservice.NewModule(deps)
	seedWalletUser(store, "user-topup", "100.00", true)

	booked, err := module.Handler.InitiateDepositHandler(context.Background(), "user-topup",
		wallethttp.DepositRequest{Amount: "500.00", Currency: "NGN", Email: "topup@example.test"})
	if err != nil {
		t.Fatalf("deposit initiation failed: %v", err)
	}
	if booked.AuthorizationURL == "" {
		t.Fatalf("expected gateway checkout URL")
	}
	if booked.Transaction.Status != string(entities.TransactionStatusPending) {
		t.Fatalf("expected pending deposit, got %s", booked.Transaction.Status)
	}
	balance, _ := store.GetBalance(context.Background(), "user-topup")
	if balance.StringAmount() != "100.00" {
		t.Fatalf("pending deposit must not credit the balance, got %s", balance.StringAmount())
	}

	reconciler := walletservice.NewDepositReconciler(deps, nil)
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("deposit reconciler failed: %v", err)
	}

	settled, err := store.GetTransaction(context.Background(), booked.Transaction.TransactionID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if settled.Status != entities.TransactionStatusCompleted {
		t.Fatalf("expected completed deposit, got %s", settled.Status)
	}
	balance, _ = store.GetBalance(context.Background(), "user-topup")
	if balance.StringAmount() != "600.00" {
		t.Fatalf("confirmed deposit not credited, balance %s", balance.StringAmount())
	}

	// A second cycle over the already-settled deposit applies nothing.
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("replayed reconciler cycle failed: %v", err)
	}
	balance, _ = store.GetBalance(context.Background(), "user-topup")
	if balance.StringAmount() != "600.00" {
		t.Fatalf("reconciler replay double-credited, balance %s", balance.StringAmount())
	}
}

func TestAbandonedDepositFailsWithoutCredit(t *testing.T) {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	deps := walletservice.Dependencies{
		Ledger:   store,
		Escrow:   store,
		Accounts: store,
		Profiles: store,
		Gateway:  gateway,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
	}
	module := walletservice.NewModule(deps)
	seedWalletUser(store, "user-abandon", "50.00", true)

	booked, err := module.Handler.InitiateDepositHandler(context.Background(), "user-abandon",
		wallethttp.DepositRequest{Amount: "900.00", Currency: "NGN", Email: "abandon@example.test"})
	if err != nil {
		t.Fatalf("deposit initiation failed: %v", err)
	}
	gateway.SettleTransfer(booked.Transaction.Reference, ports.TransferStatusFailed)

	reconciler := walletservice.NewDepositReconciler(deps, nil)
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("deposit reconciler failed: %v", err)
	}

	failed, _ := store.GetTransaction(context.Background(), booked.Transaction.TransactionID)
	if failed.Status != entities.TransactionStatusFailed {
		t.Fatalf("expected failed deposit, got %s", failed.Status)
	}
	balance, _ := store.GetBalance(context.Background(), "user-abandon")
	if balance.StringAmount() != "50.00" {
		t.Fatalf("failed deposit must not move the balance, got %s", balance.StringAmount())
	}
}

func TestEscrowLockReplayIsNoop(t *testing.T) {
	module := walletservice.NewInMemoryModule(nil)
	seedWalletUser(module.Store, "client-fund", "5000.00", true)
	amount, _ := money.FromString("2000.00", "NGN")

	if err := module.Escrow.LockEscrow(context.Background(), "proj-esc", "client-fund", amount); err != nil {
		t.Fatalf("first lock failed: %v", err)
	}
	if err := module.Escrow.LockEscrow(context.Background(), "proj-esc", "client-fund", amount); err != nil {
		t.Fatalf("replayed lock must be a no-op: %v", err)
	}

	balance, _ := module.Store.GetBalance(context.Background(), "client-fund")
	if balance.StringAmount() != "3000.00" {
		t.Fatalf("replay double-debited, balance %s", balance.StringAmount())
	}
	entries, _ := module.Store.ListEscrowEntries(context.Background(), "proj-esc")
	if len(entries) != 1 {
		t.Fatalf("expected one escrow entry, got %d", len(entries))
	}
	if entries[0].EntryType != entities.EscrowEntryFunding {
		t.Fatalf("expected funding entry, got %s", entries[0].EntryType)
	}
}

func TestAddBankAccountResolvesViaGateway(t *testing.T) {
	module := walletservice.NewInMemoryModule(nil)

	added, err := module.Handler.AddBankAccountHandler(context.Background(), "user-new",
		wallethttp.AddBankAccountRequest{BankCode: "011", BankName: "First Test Bank", AccountNumber: "0123456789"})
	if err != nil {
		t.Fatalf("add bank account failed: %v", err)
	}
	if !added.Verified {
		t.Fatalf("resolved account should be verified")
	}
	if added.AccountName == "" {
		t.Fatalf("expected gateway-resolved account name")
	}

	_, err = module.Handler.AddBankAccountHandler(context.Background(), "user-new",
		wallethttp.AddBankAccountRequest{BankCode: "011", AccountNumber: "123"})
	if !errors.Is(err, domainerrors.ErrGatewayRejected) {
		t.Fatalf("expected gateway rejection for malformed account number, got %v", err)
	}
}
