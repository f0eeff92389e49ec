// Package recon reconciles a ledger account against a bank statement.
//
// The engine does the arithmetic and the commit; deciding which
// transactions cleared (matching statement lines to ledger entries) is the
// caller's job, typically a bank feed or a person with a paper statement.
package recon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/events"
	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

var (
	// ErrUnknownCleared rejects a statement that clears a transaction the
	// account does not have.
	ErrUnknownCleared = errors.New("recon: cleared transaction not found on account")
	// ErrAlreadyReconciled rejects clearing a transaction locked in by an
	// earlier reconciliation.
	ErrAlreadyReconciled = errors.New("recon: transaction already reconciled")
)

// Statement is the external bank statement view of an account.
type Statement struct {
	AccountID             int
	EndingBalance         money.Money
	AsOfDate              time.Time
	ClearedTransactionIDs []uuid.UUID
}

// Result is the outcome of a reconciliation attempt. A nonzero Difference
// is an expected outcome, not an error: the caller inspects the breakdown
// and retries with a corrected clearance set or statement.
type Result struct {
	AccountID                int
	StatementEndingBalance   money.Money
	ClearedNet               money.Money
	CalculatedBookBalance    money.Money
	OutstandingChecksTotal   money.Money
	DepositsInTransitTotal   money.Money
	AdjustedStatementBalance money.Money
	Difference               money.Money
	Succeeded                bool
	RecordID                 uuid.UUID // set when the attempt committed
}

// Engine runs reconciliations against a ledger.
type Engine struct {
	ledger *ledger.Ledger
	pub    events.Publisher
}

// NewEngine creates an Engine. A nil publisher disables events.
func NewEngine(l *ledger.Ledger, pub events.Publisher) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Engine{ledger: l, pub: pub}
}

// Reconcile compares the account's book against the statement.
//
//	cleared net        = Σ signed bank effect of cleared transactions
//	book balance       = last reconciled balance + cleared net
//	adjusted statement = ending balance + outstanding checks − deposits in transit
//	difference         = adjusted statement − book balance
//
// On a zero difference the cleared transactions are marked reconciled and
// the account's last reconciled balance advances to the statement ending
// balance, in one atomic write. On any other difference nothing changes.
func (e *Engine) Reconcile(ctx context.Context, stmt Statement) (Result, error) {
	var result Result
	err := e.ledger.WithAccountLock(stmt.AccountID, func() error {
		var err error
		result, err = e.reconcileLocked(ctx, stmt)
		return err
	})
	return result, err
}

func (e *Engine) reconcileLocked(ctx context.Context, stmt Statement) (Result, error) {
	acct, err := e.ledger.GetAccount(ctx, stmt.AccountID)
	if err != nil {
		return Result{}, err
	}

	txs, err := e.ledger.Store().ListTransactions(ctx, stmt.AccountID)
	if err != nil {
		return Result{}, fmt.Errorf("listing transactions for account %d: %w", stmt.AccountID, err)
	}
	byID := make(map[uuid.UUID]model.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	cleared := make(map[uuid.UUID]bool, len(stmt.ClearedTransactionIDs))
	for _, id := range stmt.ClearedTransactionIDs {
		tx, ok := byID[id]
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownCleared, id)
		}
		if tx.Reconciled {
			return Result{}, fmt.Errorf("%w: %s", ErrAlreadyReconciled, id)
		}
		cleared[id] = true
	}

	scale := acct.Balance.Scale()
	clearedNet := money.Zero(scale)
	outstandingChecks := money.Zero(scale)
	depositsInTransit := money.Zero(scale)

	for _, tx := range txs {
		if tx.Reconciled {
			continue
		}
		effect, err := bankEffect(acct, tx, scale)
		if err != nil {
			return Result{}, err
		}
		if cleared[tx.ID] {
			if clearedNet, err = clearedNet.Add(effect); err != nil {
				return Result{}, err
			}
			continue
		}
		// Outstanding: a negative effect is an uncashed check or pending
		// withdrawal, a positive one a deposit in transit. The signs fall
		// out of the arithmetic; overdrafts need no special case.
		switch {
		case effect.IsNegative():
			if outstandingChecks, err = outstandingChecks.Add(effect.Abs()); err != nil {
				return Result{}, err
			}
		case effect.IsPositive():
			if depositsInTransit, err = depositsInTransit.Add(effect); err != nil {
				return Result{}, err
			}
		}
	}

	book, err := acct.LastReconciledBalance.Add(clearedNet)
	if err != nil {
		return Result{}, err
	}
	adjusted, err := stmt.EndingBalance.Add(outstandingChecks)
	if err != nil {
		return Result{}, err
	}
	if adjusted, err = adjusted.Sub(depositsInTransit); err != nil {
		return Result{}, err
	}
	difference, err := adjusted.Sub(book)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		AccountID:                stmt.AccountID,
		StatementEndingBalance:   stmt.EndingBalance,
		ClearedNet:               clearedNet,
		CalculatedBookBalance:    book,
		OutstandingChecksTotal:   outstandingChecks,
		DepositsInTransitTotal:   depositsInTransit,
		AdjustedStatementBalance: adjusted,
		Difference:               difference,
	}
	if !difference.IsZero() {
		return result, nil
	}

	rec := model.ReconciliationRecord{
		ID:                     uuid.New(),
		AccountID:              stmt.AccountID,
		StatementDate:          stmt.AsOfDate,
		StatementEndingBalance: stmt.EndingBalance,
		ClearedNet:             clearedNet,
		OutstandingChecksTotal: outstandingChecks,
		DepositsInTransitTotal: depositsInTransit,
		Difference:             difference,
		ClearedTransactionIDs:  stmt.ClearedTransactionIDs,
		Succeeded:              true,
		CreatedAt:              time.Now(),
	}
	if err := e.ledger.Store().CommitReconciliation(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("committing reconciliation: %w", err)
	}
	result.Succeeded = true
	result.RecordID = rec.ID

	if err := e.pub.Publish(events.TopicReconciliationCommitted, events.ReconciliationCommitted{
		AccountID:     stmt.AccountID,
		StatementDate: stmt.AsOfDate,
		EndingBalance: stmt.EndingBalance.String(),
		ClearedCount:  len(stmt.ClearedTransactionIDs),
	}); err != nil {
		return result, fmt.Errorf("reconciliation committed but event publish failed: %w", err)
	}
	return result, nil
}

// bankEffect is a transaction's signed effect on the statement account:
// positive for money in, negative for money out.
func bankEffect(acct model.Account, tx model.Transaction, scale int32) (money.Money, error) {
	effect := money.Zero(scale)
	var err error
	for _, p := range tx.Postings {
		if p.AccountID != acct.ID {
			continue
		}
		delta := p.Amount
		if p.Side != acct.Type.NormalSide() {
			delta = delta.Neg()
		}
		if effect, err = effect.Add(delta); err != nil {
			return money.Money{}, err
		}
	}
	return effect, nil
}

// History returns the account's archived reconciliation records.
func (e *Engine) History(ctx context.Context, accountID int) ([]model.ReconciliationRecord, error) {
	return e.ledger.Store().ReconciliationHistory(ctx, accountID)
}

// PostServiceFee records a bank fee found on the statement as an ordinary
// balanced transaction (debit expense, credit bank), already cleared so the
// session arithmetic sees it.
func (e *Engine) PostServiceFee(ctx context.Context, bankAccountID, expenseAccountID int, amount money.Money, d time.Time) (model.Transaction, error) {
	return e.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind:    model.KindJournalEntry,
		Date:    d,
		Memo:    "Bank service fee",
		Cleared: true,
		Postings: []model.Posting{
			{AccountID: expenseAccountID, Amount: amount, Side: model.SideDebit},
			{AccountID: bankAccountID, Amount: amount, Side: model.SideCredit},
		},
	})
}

// PostInterest records statement interest earned (debit bank, credit
// income), already cleared.
func (e *Engine) PostInterest(ctx context.Context, bankAccountID, incomeAccountID int, amount money.Money, d time.Time) (model.Transaction, error) {
	return e.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind:    model.KindJournalEntry,
		Date:    d,
		Memo:    "Interest earned",
		Cleared: true,
		Postings: []model.Posting{
			{AccountID: bankAccountID, Amount: amount, Side: model.SideDebit},
			{AccountID: incomeAccountID, Amount: amount, Side: model.SideCredit},
		},
	})
}
