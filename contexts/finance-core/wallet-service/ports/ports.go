package ports

import (
	"context"
	"time"

	contractsv1 "flow/contracts/gen/events/v1"
	"flow/contexts/finance-core/wallet-service/domain/entities"
	"flow/internal/shared/money"
)

// LedgerStore owns wallet transactions and derived balances. Credits and
// debits are idempotent by reference: a reference seen before applies nothing
// and returns applied=false.
type LedgerStore interface {
	ApplyCredit(ctx context.Context, tx entities.WalletTransaction) (applied bool, err error)
	// ApplyDebit checks the available balance and inserts the debit row in one
	// step; ErrInsufficientFunds leaves no row behind.
	ApplyDebit(ctx context.Context, tx entities.WalletTransaction) (applied bool, err error)
	GetBalance(ctx context.Context, userID string) (money.Money, error)
	GetTransaction(ctx context.Context, transactionID string) (entities.WalletTransaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (entities.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]entities.WalletTransaction, error)
	ListTransactionsByStatus(ctx context.Context, entryType entities.EntryType, status entities.TransactionStatus, limit int) ([]entities.WalletTransaction, error)
	// UpdateTransaction applies a guarded status move plus bookkeeping fields.
	UpdateTransaction(ctx context.Context, transactionID string, from []entities.TransactionStatus, update TransactionUpdate) (entities.WalletTransaction, error)
	// RecordPending inserts a row without moving the balance. Deposits book
	// this way and only credit on gateway confirmation.
	RecordPending(ctx context.Context, tx entities.WalletTransaction) (applied bool, err error)
	// SettleDeposit moves a pending deposit to completed and credits the
	// balance in one step; a deposit no longer pending returns ErrConflict.
	SettleDeposit(ctx context.Context, transactionID string, now time.Time) (entities.WalletTransaction, error)
}

// TransactionUpdate carries the mutable bookkeeping of a ledger row.
type TransactionUpdate struct {
	Status        entities.TransactionStatus
	TransferCode  string
	FailureReason string
	Attempts      int
	UpdatedAt     time.Time
}

type EscrowStore interface {
	AppendEscrowEntry(ctx context.Context, entry entities.EscrowEntry) (applied bool, err error)
	ListEscrowEntries(ctx context.Context, projectID string) ([]entities.EscrowEntry, error)
}

type BankAccountStore interface {
	AddBankAccount(ctx context.Context, account entities.BankAccount) error
	GetBankAccount(ctx context.Context, userID string, accountID string) (entities.BankAccount, error)
	ListBankAccounts(ctx context.Context, userID string) ([]entities.BankAccount, error)
	SaveRecipientCode(ctx context.Context, accountID string, recipientCode string, now time.Time) error
}

// ProfileView exposes the KYC flags the withdrawal path needs.
type ProfileView struct {
	UserID       string
	Verified     bool
	KYCCompleted bool
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (ProfileView, error)
}

type Bank struct {
	Name string
	Code string
}

type TransferStatus string

const (
	TransferStatusPending TransferStatus = "pending"
	TransferStatusSuccess TransferStatus = "success"
	TransferStatusFailed  TransferStatus = "failed"
)

// PaymentGateway is the external money-movement collaborator. Implementations
// log every call to the gateway audit trail.
type PaymentGateway interface {
	InitializePayment(ctx context.Context, email string, amount money.Money, reference string) (authorizationURL string, err error)
	VerifyPayment(ctx context.Context, reference string) (TransferStatus, error)
	ResolveAccount(ctx context.Context, accountNumber string, bankCode string) (accountName string, err error)
	ListBanks(ctx context.Context) ([]Bank, error)
	CreateTransferRecipient(ctx context.Context, name string, accountNumber string, bankCode string) (recipientCode string, err error)
	InitiateTransfer(ctx context.Context, recipientCode string, amount money.Money, reference string, reason string) (transferCode string, status TransferStatus, err error)
	VerifyTransfer(ctx context.Context, reference string) (TransferStatus, error)
}

type Alert struct {
	Title       string
	Description string
	Severity    string
	Kind        string
}

type AlertSink interface {
	Emit(ctx context.Context, alert Alert)
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
