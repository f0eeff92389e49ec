package model

import "github.com/genfin-dev/genfin/internal/money"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// NormalSide returns the side on which the account type increases.
// Assets and expenses are debit-normal; everything else is credit-normal.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// Account is a ledger account. Balance is mutated only through posted
// transactions; LastReconciledBalance only by a committed reconciliation.
type Account struct {
	ID                    int
	Name                  string
	Type                  AccountType
	Balance               money.Money
	LastReconciledBalance money.Money
	TaxLine               string
	Description           string
}
