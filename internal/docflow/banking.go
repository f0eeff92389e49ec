package docflow

import (
	"context"
	"errors"
	"time"

	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

// ErrSameAccount rejects a transfer whose source and destination coincide.
var ErrSameAccount = errors.New("docflow: transfer needs two distinct accounts")

// PostDeposit records money arriving in a bank account (debit bank, credit
// the source, typically an income account).
func (s *Service) PostDeposit(ctx context.Context, bankAccountID, sourceAccountID int, amount money.Money, date time.Time, memo string) (model.Transaction, error) {
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind: model.KindDeposit,
		Date: date,
		Memo: memo,
		Postings: []model.Posting{
			{AccountID: bankAccountID, Amount: amount, Side: model.SideDebit},
			{AccountID: sourceAccountID, Amount: amount, Side: model.SideCredit},
		},
	})
}

// RecordPayment records a customer payment not tied to any invoice (debit
// bank, credit accounts receivable). Payments against a specific invoice go
// through ApplyPayment so the invoice status follows.
func (s *Service) RecordPayment(ctx context.Context, bankAccountID, receivableAccountID int, amount money.Money, date time.Time, memo string) (model.Transaction, error) {
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind: model.KindPayment,
		Date: date,
		Memo: memo,
		Postings: []model.Posting{
			{AccountID: bankAccountID, Amount: amount, Side: model.SideDebit},
			{AccountID: receivableAccountID, Amount: amount, Side: model.SideCredit},
		},
	})
}

// Transfer moves money between two accounts (debit destination, credit
// source). Both accounts' locks are taken in ascending ID order by the
// ledger, so opposing concurrent transfers cannot deadlock.
func (s *Service) Transfer(ctx context.Context, fromAccountID, toAccountID int, amount money.Money, date time.Time, memo string) (model.Transaction, error) {
	if fromAccountID == toAccountID {
		return model.Transaction{}, ErrSameAccount
	}
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind: model.KindTransfer,
		Date: date,
		Memo: memo,
		Postings: []model.Posting{
			{AccountID: toAccountID, Amount: amount, Side: model.SideDebit},
			{AccountID: fromAccountID, Amount: amount, Side: model.SideCredit},
		},
	})
}
