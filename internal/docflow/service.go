// Package docflow drives the document lifecycles (bills, invoices, checks)
// on top of the ledger. Every money-affecting transition is one balanced
// ledger transaction plus the status flip, committed in the same unit of
// work.
package docflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
	"github.com/genfin-dev/genfin/internal/store"
)

var (
	// ErrWrongKind rejects an operation on the wrong document type.
	ErrWrongKind = errors.New("docflow: wrong document kind")
	// ErrAlreadyPaid rejects paying a document that is already paid.
	ErrAlreadyPaid = errors.New("docflow: document already paid")
	// ErrVoidDocument rejects operating on a voided document.
	ErrVoidDocument = errors.New("docflow: document is void")
	// ErrOverpayment rejects a payment exceeding the balance due.
	ErrOverpayment = errors.New("docflow: payment exceeds balance due")
	// ErrPartialNotAllowed rejects a partial bill payment when the policy
	// disables them.
	ErrPartialNotAllowed = errors.New("docflow: partial bill payments disabled")
	// ErrNotPrintable rejects printing a check that has not been saved.
	ErrNotPrintable = errors.New("docflow: check not saved")
	// ErrPaymentsApplied rejects voiding a document that has payments
	// against it.
	ErrPaymentsApplied = errors.New("docflow: payments applied")
)

// Service exposes the document workflows. Check-then-act transitions on a
// document (load, inspect status and balance due, post) serialize behind a
// per-document lock, so two concurrent payments cannot both observe the
// same open balance.
type Service struct {
	ledger *ledger.Ledger

	mapMu sync.Mutex
	muMap map[uuid.UUID]*sync.Mutex
}

// NewService creates a document workflow service over a ledger.
func NewService(l *ledger.Ledger) *Service {
	return &Service{ledger: l, muMap: make(map[uuid.UUID]*sync.Mutex)}
}

func (s *Service) docLock(id uuid.UUID) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	mu, ok := s.muMap[id]
	if !ok {
		mu = &sync.Mutex{}
		s.muMap[id] = mu
	}
	return mu
}

// withDocLock runs fn while holding the document's lock.
func (s *Service) withDocLock(id uuid.UUID, fn func() error) error {
	mu := s.docLock(id)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// BillParams describes a vendor bill: an expense incurred now, payable later.
type BillParams struct {
	ExpenseAccountID int
	PayableAccountID int
	Amount           money.Money
	Date             time.Time
	Memo             string
}

// EnterBill posts a bill (debit expense, credit accounts payable) with
// status unpaid.
func (s *Service) EnterBill(ctx context.Context, p BillParams) (model.Transaction, error) {
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind: model.KindBill,
		Date: p.Date,
		Memo: p.Memo,
		Postings: []model.Posting{
			{AccountID: p.ExpenseAccountID, Amount: p.Amount, Side: model.SideDebit},
			{AccountID: p.PayableAccountID, Amount: p.Amount, Side: model.SideCredit},
		},
	})
}

// PayBill pays down a bill from a bank account (debit AP, credit bank).
// Full payment moves the bill to paid; a smaller amount moves it to
// partially paid when the policy allows partial payments.
func (s *Service) PayBill(ctx context.Context, billID uuid.UUID, bankAccountID int, amount money.Money, date time.Time) (model.Transaction, error) {
	var tx model.Transaction
	err := s.withDocLock(billID, func() error {
		var err error
		tx, err = s.payBillLocked(ctx, billID, bankAccountID, amount, date)
		return err
	})
	return tx, err
}

func (s *Service) payBillLocked(ctx context.Context, billID uuid.UUID, bankAccountID int, amount money.Money, date time.Time) (model.Transaction, error) {
	bill, err := s.loadDocument(ctx, billID, model.KindBill)
	if err != nil {
		return model.Transaction{}, err
	}
	if bill.Status == model.StatusPaid {
		return model.Transaction{}, fmt.Errorf("%w: bill %s", ErrAlreadyPaid, billID)
	}

	due, err := s.BalanceDue(ctx, billID)
	if err != nil {
		return model.Transaction{}, err
	}
	cmp, err := amount.Cmp(due)
	if err != nil {
		return model.Transaction{}, err
	}
	if cmp > 0 {
		return model.Transaction{}, fmt.Errorf("%w: %s against %s due", ErrOverpayment, amount, due)
	}
	if cmp < 0 && !s.ledger.Policy().AllowPartialBillPayments {
		return model.Transaction{}, fmt.Errorf("%w: %s against %s due", ErrPartialNotAllowed, amount, due)
	}

	payableID, err := counterAccount(bill, model.SideCredit)
	if err != nil {
		return model.Transaction{}, err
	}

	status := model.StatusPartiallyPaid
	if cmp == 0 {
		status = model.StatusPaid
	}
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind:      model.KindPayment,
		Date:      date,
		Memo:      fmt.Sprintf("Payment on %s", bill.Memo),
		AppliesTo: billID,
		Postings: []model.Posting{
			{AccountID: payableID, Amount: amount, Side: model.SideDebit},
			{AccountID: bankAccountID, Amount: amount, Side: model.SideCredit},
		},
		StatusUpdates: []store.StatusUpdate{
			{TransactionID: billID, Status: status},
		},
	})
}

// InvoiceParams describes a customer invoice: income earned now, collected
// later.
type InvoiceParams struct {
	ReceivableAccountID int
	IncomeAccountID     int
	Amount              money.Money
	Date                time.Time
	Memo                string
}

// CreateInvoice posts an invoice (debit accounts receivable, credit income)
// with status open.
func (s *Service) CreateInvoice(ctx context.Context, p InvoiceParams) (model.Transaction, error) {
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind: model.KindInvoice,
		Date: p.Date,
		Memo: p.Memo,
		Postings: []model.Posting{
			{AccountID: p.ReceivableAccountID, Amount: p.Amount, Side: model.SideDebit},
			{AccountID: p.IncomeAccountID, Amount: p.Amount, Side: model.SideCredit},
		},
	})
}

// ApplyPayment applies a customer payment to an invoice (debit bank, credit
// AR). The invoice's status follows its balance due: paid at zero,
// partially paid below the original amount, open otherwise.
func (s *Service) ApplyPayment(ctx context.Context, invoiceID uuid.UUID, bankAccountID int, amount money.Money, date time.Time) (model.Transaction, error) {
	var tx model.Transaction
	err := s.withDocLock(invoiceID, func() error {
		var err error
		tx, err = s.applyPaymentLocked(ctx, invoiceID, bankAccountID, amount, date)
		return err
	})
	return tx, err
}

func (s *Service) applyPaymentLocked(ctx context.Context, invoiceID uuid.UUID, bankAccountID int, amount money.Money, date time.Time) (model.Transaction, error) {
	invoice, err := s.loadDocument(ctx, invoiceID, model.KindInvoice)
	if err != nil {
		return model.Transaction{}, err
	}
	if invoice.Status == model.StatusPaid {
		return model.Transaction{}, fmt.Errorf("%w: invoice %s", ErrAlreadyPaid, invoiceID)
	}

	due, err := s.BalanceDue(ctx, invoiceID)
	if err != nil {
		return model.Transaction{}, err
	}
	cmp, err := amount.Cmp(due)
	if err != nil {
		return model.Transaction{}, err
	}
	if cmp > 0 {
		return model.Transaction{}, fmt.Errorf("%w: %s against %s due", ErrOverpayment, amount, due)
	}

	receivableID, err := counterAccount(invoice, model.SideDebit)
	if err != nil {
		return model.Transaction{}, err
	}

	remaining, err := due.Sub(amount)
	if err != nil {
		return model.Transaction{}, err
	}
	return s.ledger.PostTransaction(ctx, ledger.PostParams{
		Kind:      model.KindPayment,
		Date:      date,
		Memo:      fmt.Sprintf("Payment on %s", invoice.Memo),
		AppliesTo: invoiceID,
		Postings: []model.Posting{
			{AccountID: bankAccountID, Amount: amount, Side: model.SideDebit},
			{AccountID: receivableID, Amount: amount, Side: model.SideCredit},
		},
		StatusUpdates: []store.StatusUpdate{
			{TransactionID: invoiceID, Status: invoiceStatus(invoice.Amount(), remaining)},
		},
	})
}

// VoidBill voids an unpaid bill with a reversing entry. A bill with
// payments applied cannot be voided; reverse the payments first.
func (s *Service) VoidBill(ctx context.Context, billID uuid.UUID) (model.Transaction, error) {
	var tx model.Transaction
	err := s.withDocLock(billID, func() error {
		bill, err := s.loadDocument(ctx, billID, model.KindBill)
		if err != nil {
			return err
		}
		if bill.Status != model.StatusUnpaid {
			return fmt.Errorf("%w: bill %s is %s; reverse its payments first",
				ErrPaymentsApplied, billID, bill.Status)
		}
		tx, err = s.ledger.VoidTransaction(ctx, billID)
		return err
	})
	return tx, err
}

// BalanceDue computes a document's remaining balance purely from ledger
// state: the original amount minus every non-void payment applied to it.
func (s *Service) BalanceDue(ctx context.Context, docID uuid.UUID) (money.Money, error) {
	doc, err := s.ledger.GetTransaction(ctx, docID)
	if err != nil {
		return money.Money{}, err
	}

	due := doc.Amount()
	payments, err := s.ledger.Store().ListApplied(ctx, docID)
	if err != nil {
		return money.Money{}, fmt.Errorf("listing payments for %s: %w", docID, err)
	}
	for _, p := range payments {
		if p.Status == model.StatusVoid {
			continue
		}
		if due, err = due.Sub(p.Amount()); err != nil {
			return money.Money{}, err
		}
	}
	return due, nil
}

// ReversePayment voids a payment and reopens the document it was applied
// to, both in the same unit of work.
func (s *Service) ReversePayment(ctx context.Context, paymentID uuid.UUID) (model.Transaction, error) {
	payment, err := s.loadDocument(ctx, paymentID, model.KindPayment)
	if err != nil {
		return model.Transaction{}, err
	}
	if payment.AppliesTo == uuid.Nil {
		return s.ledger.VoidTransaction(ctx, paymentID)
	}

	// Serialize on the paid document so the restored balance cannot race a
	// concurrent payment or second reversal.
	var tx model.Transaction
	err = s.withDocLock(payment.AppliesTo, func() error {
		var err error
		tx, err = s.reversePaymentLocked(ctx, paymentID)
		return err
	})
	return tx, err
}

func (s *Service) reversePaymentLocked(ctx context.Context, paymentID uuid.UUID) (model.Transaction, error) {
	payment, err := s.loadDocument(ctx, paymentID, model.KindPayment)
	if err != nil {
		return model.Transaction{}, err
	}

	doc, err := s.ledger.GetTransaction(ctx, payment.AppliesTo)
	if err != nil {
		return model.Transaction{}, err
	}
	due, err := s.BalanceDue(ctx, payment.AppliesTo)
	if err != nil {
		return model.Transaction{}, err
	}
	// After the reversal the payment no longer counts against the balance.
	restored, err := due.Add(payment.Amount())
	if err != nil {
		return model.Transaction{}, err
	}

	var status model.DocStatus
	if doc.Kind == model.KindInvoice {
		status = invoiceStatus(doc.Amount(), restored)
	} else {
		status = model.StatusUnpaid
		if !restored.Equal(doc.Amount()) {
			status = model.StatusPartiallyPaid
		}
	}
	return s.ledger.VoidTransaction(ctx, paymentID, store.StatusUpdate{
		TransactionID: doc.ID,
		Status:        status,
	})
}

func (s *Service) loadDocument(ctx context.Context, id uuid.UUID, kind model.TransactionKind) (model.Transaction, error) {
	doc, err := s.ledger.GetTransaction(ctx, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if doc.Kind != kind {
		return model.Transaction{}, fmt.Errorf("%w: %s is a %s, expected %s", ErrWrongKind, id, doc.Kind, kind)
	}
	if doc.Status == model.StatusVoid {
		return model.Transaction{}, fmt.Errorf("%w: %s", ErrVoidDocument, id)
	}
	return doc, nil
}

// invoiceStatus derives the lifecycle state from the remaining balance.
func invoiceStatus(original, due money.Money) model.DocStatus {
	switch {
	case due.IsZero() || due.IsNegative():
		return model.StatusPaid
	case !due.Equal(original):
		return model.StatusPartiallyPaid
	default:
		return model.StatusOpen
	}
}

// counterAccount finds the account posted on the given side of a two-sided
// document (the AP account of a bill, the AR account of an invoice).
func counterAccount(doc model.Transaction, side model.Side) (int, error) {
	for _, p := range doc.Postings {
		if p.Side == side {
			return p.AccountID, nil
		}
	}
	return 0, fmt.Errorf("docflow: document %s has no %s posting", doc.ID, side)
}
