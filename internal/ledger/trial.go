package ledger

import (
	"context"
	"fmt"

	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

// TrialBalanceRow is one account type's debit and credit column totals.
type TrialBalanceRow struct {
	Type   model.AccountType
	Debit  money.Money
	Credit money.Money
}

// TrialBalance is the classic closure check: when every transaction
// balances, TotalDebit equals TotalCredit.
type TrialBalance struct {
	Rows        []TrialBalanceRow
	TotalDebit  money.Money
	TotalCredit money.Money
}

// Balanced reports whether the books close.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// TrialBalance sums account balances by type. An account's balance lands in
// its type's normal-side column; a negative balance flips to the other side.
func (l *Ledger) TrialBalance(ctx context.Context) (TrialBalance, error) {
	accts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return TrialBalance{}, fmt.Errorf("listing accounts: %w", err)
	}

	scale := l.policy.Scale
	byType := make(map[model.AccountType]*TrialBalanceRow)
	order := []model.AccountType{
		model.AccountTypeAsset, model.AccountTypeLiability, model.AccountTypeEquity,
		model.AccountTypeIncome, model.AccountTypeExpense,
	}
	for _, t := range order {
		byType[t] = &TrialBalanceRow{Type: t, Debit: money.Zero(scale), Credit: money.Zero(scale)}
	}

	for _, a := range accts {
		row, ok := byType[a.Type]
		if !ok {
			return TrialBalance{}, fmt.Errorf("account %d has invalid type %q", a.ID, a.Type)
		}
		side := a.Type.NormalSide()
		amt := a.Balance
		if amt.IsNegative() {
			amt = amt.Abs()
			side = opposite(side)
		}
		if side == model.SideDebit {
			if row.Debit, err = row.Debit.Add(amt); err != nil {
				return TrialBalance{}, err
			}
		} else {
			if row.Credit, err = row.Credit.Add(amt); err != nil {
				return TrialBalance{}, err
			}
		}
	}

	tb := TrialBalance{TotalDebit: money.Zero(scale), TotalCredit: money.Zero(scale)}
	for _, t := range order {
		row := byType[t]
		tb.Rows = append(tb.Rows, *row)
		if tb.TotalDebit, err = tb.TotalDebit.Add(row.Debit); err != nil {
			return TrialBalance{}, err
		}
		if tb.TotalCredit, err = tb.TotalCredit.Add(row.Credit); err != nil {
			return TrialBalance{}, err
		}
	}
	return tb, nil
}
