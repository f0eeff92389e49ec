// Package memory provides an in-memory Store for tests and the CLI's
// dry-run paths.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
	"github.com/genfin-dev/genfin/internal/store"
)

// Store keeps everything in mutex-guarded maps. Reads return copies so
// callers cannot mutate internal state.
type Store struct {
	mu           sync.Mutex
	accounts     map[int]model.Account
	accountNames map[string]int
	transactions map[uuid.UUID]model.Transaction
	txOrder      []uuid.UUID
	recons       map[int][]model.ReconciliationRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:     make(map[int]model.Account),
		accountNames: make(map[string]int),
		transactions: make(map[uuid.UUID]model.Transaction),
		recons:       make(map[int][]model.ReconciliationRecord),
	}
}

func (s *Store) SaveAccount(_ context.Context, a model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return fmt.Errorf("%w: account %d", store.ErrDuplicate, a.ID)
	}
	if _, exists := s.accountNames[a.Name]; exists {
		return fmt.Errorf("%w: account name %q", store.ErrDuplicate, a.Name)
	}
	s.accounts[a.ID] = a
	s.accountNames[a.Name] = a.ID
	return nil
}

func (s *Store) GetAccount(_ context.Context, id int) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: account %d", store.ErrNotFound, id)
	}
	return a, nil
}

func (s *Store) GetAccountByName(_ context.Context, name string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.accountNames[name]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: account %q", store.ErrNotFound, name)
	}
	return s.accounts[id], nil
}

func (s *Store) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	return copyTx(tx), nil
}

func (s *Store) ListTransactions(_ context.Context, accountID int) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, id := range s.txOrder {
		tx := s.transactions[id]
		if _, ok := tx.PostingFor(accountID); ok {
			out = append(out, copyTx(tx))
		}
	}
	return out, nil
}

func (s *Store) ListApplied(_ context.Context, appliesTo uuid.UUID) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, id := range s.txOrder {
		tx := s.transactions[id]
		if tx.AppliesTo == appliesTo {
			out = append(out, copyTx(tx))
		}
	}
	return out, nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, status model.DocStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	tx.Status = status
	s.transactions[id] = tx
	return nil
}

func (s *Store) ApplyPostings(_ context.Context, tx model.Transaction, balances map[int]money.Money, statuses ...store.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before touching state, so a failure leaves the
	// store exactly as it was.
	if _, exists := s.transactions[tx.ID]; exists {
		return fmt.Errorf("%w: transaction %s", store.ErrDuplicate, tx.ID)
	}
	for id := range balances {
		if _, ok := s.accounts[id]; !ok {
			return fmt.Errorf("%w: account %d", store.ErrNotFound, id)
		}
	}
	for _, su := range statuses {
		if _, ok := s.transactions[su.TransactionID]; !ok {
			return fmt.Errorf("%w: transaction %s", store.ErrNotFound, su.TransactionID)
		}
	}

	s.transactions[tx.ID] = copyTx(tx)
	s.txOrder = append(s.txOrder, tx.ID)
	for id, bal := range balances {
		a := s.accounts[id]
		a.Balance = bal
		s.accounts[id] = a
	}
	for _, su := range statuses {
		t := s.transactions[su.TransactionID]
		t.Status = su.Status
		s.transactions[su.TransactionID] = t
	}
	return nil
}

func (s *Store) SetPrinted(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.transactions[id]; !ok {
			return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
		}
	}
	for _, id := range ids {
		tx := s.transactions[id]
		tx.Printed = true
		s.transactions[id] = tx
	}
	return nil
}

func (s *Store) CommitReconciliation(_ context.Context, rec model.ReconciliationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[rec.AccountID]
	if !ok {
		return fmt.Errorf("%w: account %d", store.ErrNotFound, rec.AccountID)
	}
	for _, id := range rec.ClearedTransactionIDs {
		if _, ok := s.transactions[id]; !ok {
			return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
		}
	}

	for _, id := range rec.ClearedTransactionIDs {
		tx := s.transactions[id]
		tx.Cleared = true
		tx.Reconciled = true
		s.transactions[id] = tx
	}
	a.LastReconciledBalance = rec.StatementEndingBalance
	s.accounts[rec.AccountID] = a
	s.recons[rec.AccountID] = append(s.recons[rec.AccountID], rec)
	return nil
}

func (s *Store) ReconciliationHistory(_ context.Context, accountID int) ([]model.ReconciliationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.recons[accountID]
	out := make([]model.ReconciliationRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func copyTx(tx model.Transaction) model.Transaction {
	postings := make([]model.Posting, len(tx.Postings))
	copy(postings, tx.Postings)
	tx.Postings = postings
	return tx
}

var _ store.Store = (*Store)(nil)
