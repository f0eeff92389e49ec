package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/money"
)

// Side is the accounting position of a posting.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// TransactionKind identifies the document a transaction records.
type TransactionKind string

const (
	KindBill         TransactionKind = "bill"
	KindInvoice      TransactionKind = "invoice"
	KindCheck        TransactionKind = "check"
	KindDeposit      TransactionKind = "deposit"
	KindPayment      TransactionKind = "payment"
	KindJournalEntry TransactionKind = "journal_entry"
	KindTransfer     TransactionKind = "transfer"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindBill, KindInvoice, KindCheck, KindDeposit, KindPayment, KindJournalEntry, KindTransfer:
		return true
	}
	return false
}

// InitialStatus returns the document status a freshly posted transaction
// of this kind carries.
func (k TransactionKind) InitialStatus() DocStatus {
	switch k {
	case KindBill:
		return StatusUnpaid
	case KindInvoice:
		return StatusOpen
	case KindCheck:
		return StatusPending
	default:
		return StatusPosted
	}
}

// DocStatus is the lifecycle state of a transaction's document.
type DocStatus string

const (
	StatusPosted        DocStatus = "posted"
	StatusUnpaid        DocStatus = "unpaid"
	StatusPartiallyPaid DocStatus = "partially_paid"
	StatusPaid          DocStatus = "paid"
	StatusOpen          DocStatus = "open"
	StatusPending       DocStatus = "pending"
	StatusSaved         DocStatus = "saved"
	StatusVoid          DocStatus = "void"
)

// Posting is one signed line inside a transaction. Amount is strictly
// positive; Side carries the direction.
type Posting struct {
	AccountID int
	Amount    money.Money
	Side      Side
}

// Signed returns the posting's raw signed effect: +amount for a debit,
// -amount for a credit.
func (p Posting) Signed() money.Money {
	if p.Side == SideDebit {
		return p.Amount
	}
	return p.Amount.Neg()
}

// Transaction is an atomic balanced set of postings. Postings never change
// after creation; amendments post a new reversing transaction instead.
type Transaction struct {
	ID          uuid.UUID
	Date        time.Time
	Memo        string
	Kind        TransactionKind
	Postings    []Posting
	Status      DocStatus
	CheckNumber int       // checks only
	Printed     bool      // checks only, orthogonal to status
	Cleared     bool      // confirmed present on a bank statement
	Reconciled  bool      // locked in by a committed reconciliation
	VoidOf      uuid.UUID // set on reversing entries: the voided transaction
	AppliesTo   uuid.UUID // set on payments: the bill or invoice being paid
}

// Amount returns the transaction's debit-side total.
func (t Transaction) Amount() money.Money {
	total := money.Money{}
	first := true
	for _, p := range t.Postings {
		if p.Side != SideDebit {
			continue
		}
		if first {
			total = p.Amount
			first = false
			continue
		}
		sum, err := total.Add(p.Amount)
		if err != nil {
			// Postings are scale-checked at creation; mixed scales
			// cannot appear in a stored transaction.
			return total
		}
		total = sum
	}
	return total
}

// PostingFor returns the posting touching the given account, if any.
func (t Transaction) PostingFor(accountID int) (Posting, bool) {
	for _, p := range t.Postings {
		if p.AccountID == accountID {
			return p, true
		}
	}
	return Posting{}, false
}
