package postgresadapter

import (
	"context"
	"testing"
	"time"

	"flow/contexts/finance-core/wallet-service/domain/entities"
	"flow/internal/shared/money"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const transactionsSchema = `CREATE TABLE wallet_transactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	entry_type TEXT NOT NULL,
	amount NUMERIC NOT NULL,
	currency TEXT NOT NULL,
	reference TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	transfer_code TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	attempts INTEGER NOT NULL DEFAULT 0,
	bank_account_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

const escrowSchema = `CREATE TABLE escrow_ledger (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	entry_type TEXT NOT NULL,
	amount NUMERIC NOT NULL,
	currency TEXT NOT NULL,
	reference TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
)`

func newLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("resolve sql handle: %v", err)
	}
	// A fresh connection would see an empty in-memory database.
	sqlDB.SetMaxOpenConns(1)
	for _, schema := range []string{transactionsSchema, escrowSchema} {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func seedLedgerRow(t *testing.T, db *gorm.DB, userID string, entryType entities.EntryType, amount string, status entities.TransactionStatus, reference string) {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}
	now := time.Now().UTC()
	row := transactionModel{
		ID:        "txn-" + reference,
		UserID:    userID,
		EntryType: string(entryType),
		Amount:    value,
		Currency:  money.DefaultCurrency,
		Reference: reference,
		Status:    string(status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed ledger row %s: %v", reference, err)
	}
}

func TestDerivedBalanceKeepsFailedWithdrawalDebit(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewRepository(db, nil)

	seedLedgerRow(t, db, "worker-ledger", entities.EntryTypeEarning, "300", entities.TransactionStatusCompleted, "TASK-ledger-1")
	seedLedgerRow(t, db, "worker-ledger", entities.EntryTypeWithdrawal, "200", entities.TransactionStatusFailed, "WDR-ledger-1")
	seedLedgerRow(t, db, "worker-ledger", entities.EntryTypeRefund, "200", entities.TransactionStatusCompleted, "RFND-WDR-ledger-1")

	balance, err := repo.GetBalance(context.Background(), "worker-ledger")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.StringAmount() != "300.00" {
		t.Fatalf("derived balance after failed withdrawal plus refund = %s, want 300.00", balance.StringAmount())
	}
}

func TestDerivedBalanceCountsPendingWithdrawalDebit(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewRepository(db, nil)

	seedLedgerRow(t, db, "worker-pending", entities.EntryTypeEarning, "300", entities.TransactionStatusCompleted, "TASK-pending-1")
	seedLedgerRow(t, db, "worker-pending", entities.EntryTypeWithdrawal, "120", entities.TransactionStatusPending, "WDR-pending-1")

	balance, err := repo.GetBalance(context.Background(), "worker-pending")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.StringAmount() != "180.00" {
		t.Fatalf("derived balance with booked withdrawal = %s, want 180.00", balance.StringAmount())
	}
}

func TestDerivedBalanceCreditsDepositOnlyWhenCompleted(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	seedLedgerRow(t, db, "worker-dep", entities.EntryTypeEarning, "100", entities.TransactionStatusCompleted, "TASK-dep-1")

	now := time.Now().UTC()
	amount, err := money.FromString("500", "")
	if err != nil {
		t.Fatalf("parse deposit amount: %v", err)
	}
	applied, err := repo.RecordPending(ctx, entities.WalletTransaction{
		TransactionID: "txn-dep-1",
		UserID:        "worker-dep",
		EntryType:     entities.EntryTypeDeposit,
		Amount:        amount,
		Reference:     "DEP-dep-1",
		Status:        entities.TransactionStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil || !applied {
		t.Fatalf("record pending deposit: applied=%v err=%v", applied, err)
	}

	balance, err := repo.GetBalance(ctx, "worker-dep")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.StringAmount() != "100.00" {
		t.Fatalf("pending deposit moved the balance: %s, want 100.00", balance.StringAmount())
	}

	if _, err := repo.SettleDeposit(ctx, "txn-dep-1", now); err != nil {
		t.Fatalf("settle deposit: %v", err)
	}
	balance, err = repo.GetBalance(ctx, "worker-dep")
	if err != nil {
		t.Fatalf("get balance after settle: %v", err)
	}
	if balance.StringAmount() != "600.00" {
		t.Fatalf("settled deposit not credited: %s, want 600.00", balance.StringAmount())
	}
}

func TestEscrowEntryReplayKeepsSingleRow(t *testing.T) {
	db := newLedgerDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	amount, err := money.FromString("3000", "")
	if err != nil {
		t.Fatalf("parse escrow amount: %v", err)
	}
	entry := entities.EscrowEntry{
		EntryID:   "esc-entry-1",
		ProjectID: "proj-esc-repo",
		EntryType: entities.EscrowEntryFunding,
		Amount:    amount,
		Reference: "ESC-proj-esc-repo",
		CreatedAt: time.Now().UTC(),
	}
	applied, err := repo.AppendEscrowEntry(ctx, entry)
	if err != nil || !applied {
		t.Fatalf("append escrow entry: applied=%v err=%v", applied, err)
	}

	entry.EntryID = "esc-entry-2"
	applied, err = repo.AppendEscrowEntry(ctx, entry)
	if err != nil {
		t.Fatalf("replay escrow entry: %v", err)
	}
	if applied {
		t.Fatalf("replayed escrow entry was applied")
	}

	entries, err := repo.ListEscrowEntries(ctx, "proj-esc-repo")
	if err != nil {
		t.Fatalf("list escrow entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one escrow entry, got %d", len(entries))
	}
	if entries[0].EntryType != entities.EscrowEntryFunding {
		t.Fatalf("expected funding entry, got %s", entries[0].EntryType)
	}
}
