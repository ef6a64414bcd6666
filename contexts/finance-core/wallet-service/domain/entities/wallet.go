package entities

import (
	"time"

	"flow/internal/shared/money"
)

type EntryType string

const (
	EntryTypeDeposit    EntryType = "deposit"
	EntryTypeEarning    EntryType = "earning"
	EntryTypeWithdrawal EntryType = "withdrawal"
	EntryTypeRefund     EntryType = "refund"
	EntryTypeEscrowFund EntryType = "escrow_fund"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// WalletTransaction is one ledger row. Reference is unique across the ledger
// and is the idempotency key for every money movement.
type WalletTransaction struct {
	TransactionID string
	UserID        string
	EntryType     EntryType
	Amount        money.Money
	Reference     string
	Status        TransactionStatus
	Description   string
	TransferCode  string
	FailureReason string
	Attempts      int
	BankAccountID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Debit reports whether the row reduces the user balance.
func (t WalletTransaction) Debit() bool {
	return t.EntryType == EntryTypeWithdrawal || t.EntryType == EntryTypeEscrowFund
}

type EscrowEntryType string

const (
	EscrowEntryFunding EscrowEntryType = "funding"
	EscrowEntryPayout  EscrowEntryType = "payout"
	EscrowEntryRefund  EscrowEntryType = "refund"
)

// EscrowEntry is one append-only movement on a project's escrow.
type EscrowEntry struct {
	EntryID   string
	ProjectID string
	EntryType EscrowEntryType
	Amount    money.Money
	Reference string
	CreatedAt time.Time
}

// BankAccount is a payout destination. RecipientCode caches the gateway-side
// transfer recipient after first use.
type BankAccount struct {
	AccountID     string
	UserID        string
	BankCode      string
	BankName      string
	AccountNumber string
	AccountName   string
	RecipientCode string
	Verified      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
