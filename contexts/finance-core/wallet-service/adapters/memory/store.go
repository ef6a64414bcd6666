package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"flow/contexts/finance-core/wallet-service/domain/entities"
	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
	"flow/internal/shared/money"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store keeps the ledger, escrow entries, and bank accounts under one mutex,
// mirroring the relational adapter's balance-and-insert atomicity.
type Store struct {
	mu sync.RWMutex

	transactions map[string]entities.WalletTransaction
	byReference  map[string]string
	balances     map[string]money.Money
	escrow       map[string][]entities.EscrowEntry
	escrowRefs   map[string]struct{}
	accounts     map[string]entities.BankAccount
	profiles     map[string]ports.ProfileView
	outbox       map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		transactions: make(map[string]entities.WalletTransaction),
		byReference:  make(map[string]string),
		balances:     make(map[string]money.Money),
		escrow:       make(map[string][]entities.EscrowEntry),
		escrowRefs:   make(map[string]struct{}),
		accounts:     make(map[string]entities.BankAccount),
		profiles:     make(map[string]ports.ProfileView),
		outbox:       make(map[string]outboxRecord),
	}
}

func (s *Store) SetProfile(profile ports.ProfileView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[strings.TrimSpace(profile.UserID)] = profile
}

// SeedBalance credits an opening balance outside the ledger, for tests.
func (s *Store) SeedBalance(userID string, balance money.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[strings.TrimSpace(userID)] = balance
}

func (s *Store) ApplyCredit(_ context.Context, tx entities.WalletTransaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, used := s.byReference[tx.Reference]; used {
		return false, nil
	}
	balance, ok := s.balances[tx.UserID]
	if !ok {
		balance = money.Zero(tx.Amount.Currency)
	}
	credited, err := balance.Add(tx.Amount)
	if err != nil {
		return false, err
	}
	s.balances[tx.UserID] = credited
	s.transactions[tx.TransactionID] = tx
	s.byReference[tx.Reference] = tx.TransactionID
	return true, nil
}

func (s *Store) ApplyDebit(_ context.Context, tx entities.WalletTransaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, used := s.byReference[tx.Reference]; used {
		return false, nil
	}
	balance, ok := s.balances[tx.UserID]
	if !ok {
		balance = money.Zero(tx.Amount.Currency)
	}
	remaining, err := balance.Sub(tx.Amount)
	if err != nil {
		return false, err
	}
	if remaining.Amount.IsNegative() {
		return false, domainerrors.ErrInsufficientFunds
	}
	s.balances[tx.UserID] = remaining
	s.transactions[tx.TransactionID] = tx
	s.byReference[tx.Reference] = tx.TransactionID
	return true, nil
}

func (s *Store) RecordPending(_ context.Context, tx entities.WalletTransaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, used := s.byReference[tx.Reference]; used {
		return false, nil
	}
	s.transactions[tx.TransactionID] = tx
	s.byReference[tx.Reference] = tx.TransactionID
	return true, nil
}

func (s *Store) SettleDeposit(_ context.Context, transactionID string, now time.Time) (entities.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[strings.TrimSpace(transactionID)]
	if !ok {
		return entities.WalletTransaction{}, domainerrors.ErrTransactionNotFound
	}
	if tx.Status != entities.TransactionStatusPending {
		return entities.WalletTransaction{}, domainerrors.ErrConflict
	}
	balance, ok := s.balances[tx.UserID]
	if !ok {
		balance = money.Zero(tx.Amount.Currency)
	}
	credited, err := balance.Add(tx.Amount)
	if err != nil {
		return entities.WalletTransaction{}, err
	}
	s.balances[tx.UserID] = credited
	tx.Status = entities.TransactionStatusCompleted
	tx.UpdatedAt = now.UTC()
	s.transactions[tx.TransactionID] = tx
	return tx, nil
}

func (s *Store) GetBalance(_ context.Context, userID string) (money.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.balances[strings.TrimSpace(userID)]
	if !ok {
		return money.Zero(money.DefaultCurrency), nil
	}
	return balance, nil
}

func (s *Store) GetTransaction(_ context.Context, transactionID string) (entities.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[strings.TrimSpace(transactionID)]
	if !ok {
		return entities.WalletTransaction{}, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Store) GetTransactionByReference(_ context.Context, reference string) (entities.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byReference[strings.TrimSpace(reference)]
	if !ok {
		return entities.WalletTransaction{}, domainerrors.ErrTransactionNotFound
	}
	return s.transactions[id], nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, limit int) ([]entities.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	items := make([]entities.WalletTransaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == strings.TrimSpace(userID) {
			items = append(items, tx)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListTransactionsByStatus(_ context.Context, entryType entities.EntryType, status entities.TransactionStatus, limit int) ([]entities.WalletTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	items := make([]entities.WalletTransaction, 0)
	for _, tx := range s.transactions {
		if tx.EntryType == entryType && tx.Status == status {
			items = append(items, tx)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) UpdateTransaction(_ context.Context, transactionID string, from []entities.TransactionStatus, update ports.TransactionUpdate) (entities.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[strings.TrimSpace(transactionID)]
	if !ok {
		return entities.WalletTransaction{}, domainerrors.ErrTransactionNotFound
	}
	matched := false
	for _, status := range from {
		if tx.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return entities.WalletTransaction{}, domainerrors.ErrConflict
	}
	tx.Status = update.Status
	if update.TransferCode != "" {
		tx.TransferCode = update.TransferCode
	}
	if update.FailureReason != "" {
		tx.FailureReason = update.FailureReason
	}
	if update.Attempts > 0 {
		tx.Attempts = update.Attempts
	}
	tx.UpdatedAt = update.UpdatedAt.UTC()
	s.transactions[tx.TransactionID] = tx
	return tx, nil
}

func (s *Store) AppendEscrowEntry(_ context.Context, entry entities.EscrowEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(entry.Reference)
	if _, ok := s.escrowRefs[key]; ok {
		return false, nil
	}
	s.escrowRefs[key] = struct{}{}
	s.escrow[entry.ProjectID] = append(s.escrow[entry.ProjectID], entry)
	return true, nil
}

func (s *Store) ListEscrowEntries(_ context.Context, projectID string) ([]entities.EscrowEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.escrow[strings.TrimSpace(projectID)]
	out := make([]entities.EscrowEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) AddBankAccount(_ context.Context, account entities.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountID]; ok {
		return domainerrors.ErrConflict
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) GetBankAccount(_ context.Context, userID string, accountID string) (entities.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[strings.TrimSpace(accountID)]
	if !ok || account.UserID != strings.TrimSpace(userID) {
		return entities.BankAccount{}, domainerrors.ErrBankAccountNotFound
	}
	return account, nil
}

func (s *Store) ListBankAccounts(_ context.Context, userID string) ([]entities.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.BankAccount, 0)
	for _, account := range s.accounts {
		if account.UserID == strings.TrimSpace(userID) {
			items = append(items, account)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) SaveRecipientCode(_ context.Context, accountID string, recipientCode string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[strings.TrimSpace(accountID)]
	if !ok {
		return domainerrors.ErrBankAccountNotFound
	}
	account.RecipientCode = strings.TrimSpace(recipientCode)
	account.UpdatedAt = now.UTC()
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (ports.ProfileView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return ports.ProfileView{}, domainerrors.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.LedgerStore      = (*Store)(nil)
	_ ports.EscrowStore      = (*Store)(nil)
	_ ports.BankAccountStore = (*Store)(nil)
	_ ports.ProfileStore     = (*Store)(nil)
	_ ports.OutboxWriter     = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
)
