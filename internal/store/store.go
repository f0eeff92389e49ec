// Package store defines the persistence contract for the ledger.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

var (
	// ErrNotFound is returned when a requested account or transaction
	// does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a saved record collides with an
	// existing one (account ID or name, transaction ID).
	ErrDuplicate = errors.New("store: duplicate")
)

// StatusUpdate flips one transaction's document status as part of a larger
// unit of work.
type StatusUpdate struct {
	TransactionID uuid.UUID
	Status        model.DocStatus
}

// Store persists accounts, transactions, and reconciliation records.
// Multi-record methods are atomic: either every write lands or none does.
type Store interface {
	SaveAccount(ctx context.Context, a model.Account) error
	GetAccount(ctx context.Context, id int) (model.Account, error)
	GetAccountByName(ctx context.Context, name string) (model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (model.Transaction, error)
	ListTransactions(ctx context.Context, accountID int) ([]model.Transaction, error)

	// ListApplied returns the payments recorded against a bill or invoice.
	ListApplied(ctx context.Context, appliesTo uuid.UUID) ([]model.Transaction, error)

	// UpdateStatus flips one transaction's document status on its own.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocStatus) error

	// ApplyPostings persists the transaction, writes the given new account
	// balances, and applies any document status updates, all in one unit
	// of work.
	ApplyPostings(ctx context.Context, tx model.Transaction, balances map[int]money.Money, statuses ...StatusUpdate) error

	// SetPrinted marks the given check transactions printed.
	SetPrinted(ctx context.Context, ids []uuid.UUID) error

	// CommitReconciliation archives the record, marks its cleared
	// transactions reconciled, and advances the account's last reconciled
	// balance to the statement ending balance, in one atomic write.
	CommitReconciliation(ctx context.Context, rec model.ReconciliationRecord) error

	ReconciliationHistory(ctx context.Context, accountID int) ([]model.ReconciliationRecord, error)
}
