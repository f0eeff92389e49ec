// Package ledger owns accounts and the double-entry transaction log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/events"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
	"github.com/genfin-dev/genfin/internal/store"
)

var (
	// ErrDuplicateAccount rejects opening an account whose ID or name is taken.
	ErrDuplicateAccount = errors.New("ledger: duplicate account")
	// ErrUnknownAccount rejects a posting against a nonexistent account.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrNotFound is returned when a transaction does not exist.
	ErrNotFound = errors.New("ledger: transaction not found")
	// ErrAlreadyVoid rejects voiding a transaction twice.
	ErrAlreadyVoid = errors.New("ledger: transaction already void")
)

// Policy is the explicit configuration the ledger is constructed with.
type Policy struct {
	// AllowPartialBillPayments permits bills to move through a
	// partially-paid state instead of requiring payment in full.
	AllowPartialBillPayments bool
	// Scale is the minor-unit digit count for all amounts.
	Scale int32
	// OpeningEquityAccountID is the equity account nonzero opening
	// balances post against.
	OpeningEquityAccountID int
}

// DefaultPolicy matches the shipped chart of accounts: two-decimal amounts,
// full bill payments only.
func DefaultPolicy() Policy {
	return Policy{Scale: 2, OpeningEquityAccountID: 3020}
}

// Ledger validates and commits transactions and serializes all mutation of
// an account's balance behind a per-account lock.
type Ledger struct {
	store  store.Store
	pub    events.Publisher
	policy Policy

	mapMu sync.Mutex
	muMap map[int]*sync.Mutex
}

// New creates a Ledger over the given store.
func New(st store.Store, pub events.Publisher, policy Policy) *Ledger {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Ledger{
		store:  st,
		pub:    pub,
		policy: policy,
		muMap:  make(map[int]*sync.Mutex),
	}
}

// Policy returns the policy the ledger was constructed with.
func (l *Ledger) Policy() Policy {
	return l.policy
}

// Store exposes the underlying store for read-side collaborators.
func (l *Ledger) Store() store.Store {
	return l.store
}

func (l *Ledger) accountLock(id int) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	mu, ok := l.muMap[id]
	if !ok {
		mu = &sync.Mutex{}
		l.muMap[id] = mu
	}
	return mu
}

// lockAccounts acquires every account's lock in ascending ID order so two
// multi-account operations can never deadlock, and returns the unlock func.
func (l *Ledger) lockAccounts(ids []int) func() {
	unique := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Ints(unique)

	locks := make([]*sync.Mutex, len(unique))
	for i, id := range unique {
		locks[i] = l.accountLock(id)
		locks[i].Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// WithAccountLock runs fn while holding the account's write lock, so the
// caller's read-compute-commit cannot interleave with a concurrent post or
// reconciliation against the same account.
func (l *Ledger) WithAccountLock(id int, fn func() error) error {
	mu := l.accountLock(id)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// OpenAccount adds an account to the chart. A nonzero opening balance posts
// a balancing journal entry against the policy's opening-equity account, so
// the books stay closed.
func (l *Ledger) OpenAccount(ctx context.Context, id int, name string, typ model.AccountType, opening money.Money) (model.Account, error) {
	return l.CreateAccount(ctx, model.Account{ID: id, Name: name, Type: typ}, opening)
}

// CreateAccount is OpenAccount for a fully populated account record, keeping
// tax line and description.
func (l *Ledger) CreateAccount(ctx context.Context, acct model.Account, opening money.Money) (model.Account, error) {
	if acct.ID <= 0 {
		return model.Account{}, fmt.Errorf("ledger: account ID %d must be positive", acct.ID)
	}
	if acct.Name == "" {
		return model.Account{}, errors.New("ledger: account name required")
	}
	if !acct.Type.Valid() {
		return model.Account{}, fmt.Errorf("ledger: invalid account type %q", acct.Type)
	}

	// A nonzero opening needs the opening-equity account for its balancing
	// posting. Check before creating anything, so a failed open leaves no
	// account behind and the caller can simply retry.
	if !opening.IsZero() {
		if acct.ID == l.policy.OpeningEquityAccountID {
			return model.Account{}, fmt.Errorf("ledger: opening-equity account %d cannot open with a balance", acct.ID)
		}
		if _, err := l.store.GetAccount(ctx, l.policy.OpeningEquityAccountID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return model.Account{}, fmt.Errorf("%w: opening-equity account %d", ErrUnknownAccount, l.policy.OpeningEquityAccountID)
			}
			return model.Account{}, fmt.Errorf("loading opening-equity account %d: %w", l.policy.OpeningEquityAccountID, err)
		}
	}

	acct.Balance = money.Zero(opening.Scale())
	acct.LastReconciledBalance = money.Zero(opening.Scale())
	if err := l.store.SaveAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.Account{}, fmt.Errorf("%w: %q", ErrDuplicateAccount, acct.Name)
		}
		return model.Account{}, fmt.Errorf("opening account %q: %w", acct.Name, err)
	}

	if !opening.IsZero() {
		side := acct.Type.NormalSide()
		amt := opening
		if amt.IsNegative() {
			amt = amt.Abs()
			side = opposite(side)
		}
		_, err := l.PostTransaction(ctx, PostParams{
			Kind: model.KindJournalEntry,
			Date: time.Now(),
			Memo: fmt.Sprintf("Opening balance for %s", acct.Name),
			Postings: []model.Posting{
				{AccountID: acct.ID, Amount: amt, Side: side},
				{AccountID: l.policy.OpeningEquityAccountID, Amount: amt, Side: opposite(side)},
			},
		})
		if err != nil {
			return model.Account{}, fmt.Errorf("posting opening balance for %q: %w", acct.Name, err)
		}
	}

	return l.store.GetAccount(ctx, acct.ID)
}

// PostParams holds everything needed to post one transaction.
type PostParams struct {
	Kind        model.TransactionKind
	Date        time.Time
	Memo        string
	Postings    []model.Posting
	CheckNumber int
	Cleared     bool
	// Status overrides the kind's initial status when set.
	Status model.DocStatus
	// VoidOf marks this transaction as the reversing entry of another.
	VoidOf uuid.UUID
	// AppliesTo links a payment to the bill or invoice it pays down.
	AppliesTo uuid.UUID
	// StatusUpdates are document-status flips applied in the same unit of
	// work as the postings.
	StatusUpdates []store.StatusUpdate
}

// PostTransaction validates the postings, applies their effect to every
// referenced account balance, and persists the transaction in one unit of
// work.
func (l *Ledger) PostTransaction(ctx context.Context, p PostParams) (model.Transaction, error) {
	if !p.Kind.Valid() {
		return model.Transaction{}, fmt.Errorf("ledger: invalid transaction kind %q", p.Kind)
	}
	if err := validatePostings(p.Postings); err != nil {
		return model.Transaction{}, err
	}

	ids := make([]int, 0, len(p.Postings))
	for _, posting := range p.Postings {
		ids = append(ids, posting.AccountID)
	}
	unlock := l.lockAccounts(ids)
	defer unlock()

	return l.postLocked(ctx, p)
}

// postLocked commits a validated transaction. Call with the locks of every
// referenced account held.
func (l *Ledger) postLocked(ctx context.Context, p PostParams) (model.Transaction, error) {
	balances, err := l.newBalances(ctx, p.Postings)
	if err != nil {
		return model.Transaction{}, err
	}

	status := p.Status
	if status == "" {
		status = p.Kind.InitialStatus()
	}
	tx := model.Transaction{
		ID:          uuid.New(),
		Date:        p.Date,
		Memo:        p.Memo,
		Kind:        p.Kind,
		Postings:    p.Postings,
		Status:      status,
		CheckNumber: p.CheckNumber,
		Cleared:     p.Cleared,
		VoidOf:      p.VoidOf,
		AppliesTo:   p.AppliesTo,
	}
	if err := l.store.ApplyPostings(ctx, tx, balances, p.StatusUpdates...); err != nil {
		return model.Transaction{}, fmt.Errorf("committing transaction: %w", err)
	}

	if err := l.pub.Publish(events.TopicTransactionPosted, events.TransactionPosted{
		TransactionID: tx.ID.String(),
		Kind:          string(tx.Kind),
		Date:          tx.Date,
		Memo:          tx.Memo,
		Amount:        tx.Amount().String(),
	}); err != nil {
		return tx, fmt.Errorf("transaction %s committed but event publish failed: %w", tx.ID, err)
	}
	return tx, nil
}

// newBalances resolves every referenced account and computes its post-commit
// balance. Call with the account locks held.
func (l *Ledger) newBalances(ctx context.Context, postings []model.Posting) (map[int]money.Money, error) {
	balances := make(map[int]money.Money)
	types := make(map[int]model.AccountType)
	for _, p := range postings {
		if _, ok := balances[p.AccountID]; !ok {
			acct, err := l.store.GetAccount(ctx, p.AccountID)
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrUnknownAccount, p.AccountID)
			}
			if err != nil {
				return nil, fmt.Errorf("loading account %d: %w", p.AccountID, err)
			}
			balances[p.AccountID] = acct.Balance
			types[p.AccountID] = acct.Type
		}

		delta := p.Amount
		if p.Side != types[p.AccountID].NormalSide() {
			delta = delta.Neg()
		}
		next, err := balances[p.AccountID].Add(delta)
		if err != nil {
			return nil, fmt.Errorf("applying posting to account %d: %w", p.AccountID, err)
		}
		balances[p.AccountID] = next
	}
	return balances, nil
}

// VoidTransaction posts an equal-and-opposite reversing entry and marks the
// original void in the same unit of work. The original record is never
// mutated beyond its status, preserving the audit trail. Extra status
// updates (e.g. reopening the bill a voided payment was applied to) commit
// atomically with the reversal.
func (l *Ledger) VoidTransaction(ctx context.Context, id uuid.UUID, extra ...store.StatusUpdate) (model.Transaction, error) {
	orig, err := l.store.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction %s: %w", id, err)
	}

	ids := make([]int, 0, len(orig.Postings))
	for _, p := range orig.Postings {
		ids = append(ids, p.AccountID)
	}
	unlock := l.lockAccounts(ids)
	defer unlock()

	// Re-read under the locks so competing voids serialize on the status.
	if orig, err = l.store.GetTransaction(ctx, id); err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction %s: %w", id, err)
	}
	if orig.Status == model.StatusVoid {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrAlreadyVoid, id)
	}

	reversed := make([]model.Posting, len(orig.Postings))
	for i, p := range orig.Postings {
		reversed[i] = model.Posting{AccountID: p.AccountID, Amount: p.Amount, Side: opposite(p.Side)}
	}
	return l.postLocked(ctx, PostParams{
		Kind:     model.KindJournalEntry,
		Date:     time.Now(),
		Memo:     fmt.Sprintf("Void of %s", orig.Memo),
		Postings: reversed,
		Status:   model.StatusPosted,
		VoidOf:   orig.ID,
		StatusUpdates: append([]store.StatusUpdate{
			{TransactionID: orig.ID, Status: model.StatusVoid},
		}, extra...),
	})
}

// GetBalance returns an account's current balance.
func (l *Ledger) GetBalance(ctx context.Context, accountID int) (money.Money, error) {
	acct, err := l.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return money.Money{}, fmt.Errorf("%w: %d", ErrUnknownAccount, accountID)
	}
	if err != nil {
		return money.Money{}, err
	}
	return acct.Balance, nil
}

// BalanceAsOf replays the account's postings up to and including the given
// date. State is never mutated.
func (l *Ledger) BalanceAsOf(ctx context.Context, accountID int, asOf time.Time) (money.Money, error) {
	acct, err := l.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return money.Money{}, fmt.Errorf("%w: %d", ErrUnknownAccount, accountID)
	}
	if err != nil {
		return money.Money{}, err
	}

	txs, err := l.store.ListTransactions(ctx, accountID)
	if err != nil {
		return money.Money{}, fmt.Errorf("listing transactions for account %d: %w", accountID, err)
	}

	balance := money.Zero(acct.Balance.Scale())
	for _, tx := range txs {
		if tx.Date.After(asOf) {
			continue
		}
		for _, p := range tx.Postings {
			if p.AccountID != accountID {
				continue
			}
			delta := p.Amount
			if p.Side != acct.Type.NormalSide() {
				delta = delta.Neg()
			}
			if balance, err = balance.Add(delta); err != nil {
				return money.Money{}, err
			}
		}
	}
	return balance, nil
}

// GetAccount returns an account by ID.
func (l *Ledger) GetAccount(ctx context.Context, accountID int) (model.Account, error) {
	acct, err := l.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, fmt.Errorf("%w: %d", ErrUnknownAccount, accountID)
	}
	return acct, err
}

// GetTransaction returns a transaction by ID.
func (l *Ledger) GetTransaction(ctx context.Context, id uuid.UUID) (model.Transaction, error) {
	tx, err := l.store.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx, err
}

func opposite(s model.Side) model.Side {
	if s == model.SideDebit {
		return model.SideCredit
	}
	return model.SideDebit
}
