package docflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

// CheckParams describes a written check.
type CheckParams struct {
	BankAccountID    int
	ExpenseAccountID int
	Amount           money.Money
	CheckNumber      int
	Date             time.Time
	Memo             string
}

// WriteCheck posts a check (debit expense, credit bank) with status pending.
// The bank balance reflects the check immediately; the lifecycle tracks the
// paper.
func (s *Service) WriteCheck(ctx context.Context, p CheckParams) (model.Transaction, error) {
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind:        model.KindCheck,
		Date:        p.Date,
		Memo:        p.Memo,
		CheckNumber: p.CheckNumber,
		Postings: []model.Posting{
			{AccountID: p.ExpenseAccountID, Amount: p.Amount, Side: model.SideDebit},
			{AccountID: p.BankAccountID, Amount: p.Amount, Side: model.SideCredit},
		},
	})
}

// SaveCheck moves a pending check to saved. No balances move.
func (s *Service) SaveCheck(ctx context.Context, id uuid.UUID) error {
	return s.withDocLock(id, func() error {
		check, err := s.loadDocument(ctx, id, model.KindCheck)
		if err != nil {
			return err
		}
		if check.Status != model.StatusPending {
			return fmt.Errorf("docflow: check %s is %s, expected %s", id, check.Status, model.StatusPending)
		}
		return s.ledger.Store().UpdateStatus(ctx, id, model.StatusSaved)
	})
}

// PrintChecks flags saved checks printed. Printing is orthogonal to the
// status machine; a printed check is still saved until voided. Every check
// is verified before any flag flips, so a bad ID prints nothing.
func (s *Service) PrintChecks(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		check, err := s.loadDocument(ctx, id, model.KindCheck)
		if err != nil {
			return err
		}
		if check.Status != model.StatusSaved {
			return fmt.Errorf("%w: check %s is %s", ErrNotPrintable, id, check.Status)
		}
	}
	return s.ledger.Store().SetPrinted(ctx, ids)
}

// VoidCheck posts a reversing transaction (restores the bank balance,
// reverses the expense) and sets the check void. Voiding twice fails.
func (s *Service) VoidCheck(ctx context.Context, id uuid.UUID) (model.Transaction, error) {
	if _, err := s.loadDocument(ctx, id, model.KindCheck); err != nil {
		return model.Transaction{}, err
	}
	return s.ledger.VoidTransaction(ctx, id)
}
