package recon

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
	"github.com/genfin-dev/genfin/internal/store/memory"
)

const (
	acctBank    = 1010
	acctEquity  = 3020
	acctIncome  = 4010
	acctExpense = 5010
)

func usd(s string) money.Money {
	return money.MustParse(s, 2)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestEngine opens a bank account with a $1000 opening balance and
// reconciles it to a $1000 statement, so every test starts from a trusted
// baseline of last reconciled = $1000.00.
func newTestEngine(t *testing.T) (*Engine, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(memory.New(), nil, ledger.DefaultPolicy())
	ctx := context.Background()

	for _, a := range []struct {
		id   int
		name string
		typ  model.AccountType
	}{
		{acctEquity, "Opening Balances", model.AccountTypeEquity},
		{acctBank, "Farm Checking", model.AccountTypeAsset},
		{acctIncome, "Crop Sales", model.AccountTypeIncome},
		{acctExpense, "Feed", model.AccountTypeExpense},
	} {
		var opening money.Money = usd("0.00")
		if a.id == acctBank {
			opening = usd("1000.00")
		}
		_, err := l.OpenAccount(ctx, a.id, a.name, a.typ, opening)
		require.NoError(t, err)
	}

	e := NewEngine(l, nil)

	// Clear the opening entry against a matching statement.
	txs, err := l.Store().ListTransactions(ctx, acctBank)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	res, err := e.Reconcile(ctx, Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("1000.00"),
		AsOfDate:              date(2025, time.January, 31),
		ClearedTransactionIDs: []uuid.UUID{txs[0].ID},
	})
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	return e, l
}

func postDeposit(t *testing.T, l *ledger.Ledger, amount string) model.Transaction {
	t.Helper()
	tx, err := l.PostTransaction(context.Background(), ledger.PostParams{
		Kind: model.KindDeposit,
		Date: date(2025, time.February, 5),
		Memo: "Grain sale",
		Postings: []model.Posting{
			{AccountID: acctBank, Amount: usd(amount), Side: model.SideDebit},
			{AccountID: acctIncome, Amount: usd(amount), Side: model.SideCredit},
		},
	})
	require.NoError(t, err)
	return tx
}

func postCheck(t *testing.T, l *ledger.Ledger, amount string) model.Transaction {
	t.Helper()
	tx, err := l.PostTransaction(context.Background(), ledger.PostParams{
		Kind: model.KindCheck,
		Date: date(2025, time.February, 10),
		Memo: "Feed purchase",
		Postings: []model.Posting{
			{AccountID: acctExpense, Amount: usd(amount), Side: model.SideDebit},
			{AccountID: acctBank, Amount: usd(amount), Side: model.SideCredit},
		},
	})
	require.NoError(t, err)
	return tx
}

func TestReconcile_MismatchReportsDifference(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	deposit := postDeposit(t, l, "500.00") // cleared
	check := postCheck(t, l, "300.00")     // cleared
	postCheck(t, l, "50.00")               // not on the statement

	res, err := e.Reconcile(ctx, Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("1250.00"),
		AsOfDate:              date(2025, time.February, 28),
		ClearedTransactionIDs: []uuid.UUID{deposit.ID, check.ID},
	})
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	assert.Equal(t, "200.00", res.ClearedNet.String())
	assert.Equal(t, "1200.00", res.CalculatedBookBalance.String())
	assert.Equal(t, "50.00", res.OutstandingChecksTotal.String())
	assert.Equal(t, "0.00", res.DepositsInTransitTotal.String())
	assert.Equal(t, "1300.00", res.AdjustedStatementBalance.String())
	assert.Equal(t, "100.00", res.Difference.String())

	// No partial commit: baseline and flags untouched.
	acct, err := l.GetAccount(ctx, acctBank)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", acct.LastReconciledBalance.String())

	got, err := l.GetTransaction(ctx, deposit.ID)
	require.NoError(t, err)
	assert.False(t, got.Reconciled)

	history, err := e.History(ctx, acctBank)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the baseline commit is archived")
}

func TestReconcile_ZeroDifferenceCommits(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	deposit := postDeposit(t, l, "500.00")
	check := postCheck(t, l, "500.00")

	res, err := e.Reconcile(ctx, Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("1000.00"),
		AsOfDate:              date(2025, time.February, 28),
		ClearedTransactionIDs: []uuid.UUID{deposit.ID, check.ID},
	})
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	assert.Equal(t, "0.00", res.ClearedNet.String())
	assert.Equal(t, "0.00", res.Difference.String())
	assert.NotEqual(t, uuid.Nil, res.RecordID)

	acct, err := l.GetAccount(ctx, acctBank)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", acct.LastReconciledBalance.String())

	for _, id := range []uuid.UUID{deposit.ID, check.ID} {
		got, err := l.GetTransaction(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Reconciled, "cleared transaction %s must be locked in", id)
		assert.True(t, got.Cleared)
	}

	history, err := e.History(ctx, acctBank)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[1].Succeeded)
	assert.ElementsMatch(t, []uuid.UUID{deposit.ID, check.ID}, history[1].ClearedTransactionIDs)
}

func TestReconcile_NoActivity(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	// Nothing posted since the baseline: the difference is simply the
	// statement against the last reconciled balance.
	res, err := e.Reconcile(ctx, Statement{
		AccountID:     acctBank,
		EndingBalance: usd("1000.00"),
		AsOfDate:      date(2025, time.March, 31),
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, "0.00", res.Difference.String())

	res, err = e.Reconcile(ctx, Statement{
		AccountID:     acctBank,
		EndingBalance: usd("1040.00"),
		AsOfDate:      date(2025, time.April, 30),
	})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.Equal(t, "40.00", res.Difference.String())
}

func TestReconcile_Overdraft(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	// Spend past zero; negative balances go through the same arithmetic.
	check := postCheck(t, l, "1500.00")

	res, err := e.Reconcile(ctx, Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("-500.00"),
		AsOfDate:              date(2025, time.February, 28),
		ClearedTransactionIDs: []uuid.UUID{check.ID},
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, "-500.00", res.CalculatedBookBalance.String())

	acct, err := l.GetAccount(ctx, acctBank)
	require.NoError(t, err)
	assert.Equal(t, "-500.00", acct.LastReconciledBalance.String())
}

func TestReconcile_DepositsInTransit(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	// A deposit the bank has not processed yet surfaces in the breakdown
	// the operator inspects.
	postDeposit(t, l, "200.00")

	res, err := e.Reconcile(ctx, Statement{
		AccountID:     acctBank,
		EndingBalance: usd("1000.00"),
		AsOfDate:      date(2025, time.February, 28),
	})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.Equal(t, "200.00", res.DepositsInTransitTotal.String())
	assert.Equal(t, "800.00", res.AdjustedStatementBalance.String(), "1000 + 0 - 200")
	assert.Equal(t, "-200.00", res.Difference.String())
}

func TestReconcile_UnknownClearedID(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Reconcile(context.Background(), Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("1000.00"),
		AsOfDate:              date(2025, time.February, 28),
		ClearedTransactionIDs: []uuid.UUID{uuid.New()},
	})
	assert.ErrorIs(t, err, ErrUnknownCleared)
}

func TestReconcile_AlreadyReconciledID(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	txs, err := l.Store().ListTransactions(ctx, acctBank)
	require.NoError(t, err)

	_, err = e.Reconcile(ctx, Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("1000.00"),
		AsOfDate:              date(2025, time.February, 28),
		ClearedTransactionIDs: []uuid.UUID{txs[0].ID},
	})
	assert.ErrorIs(t, err, ErrAlreadyReconciled)
}

func TestPostServiceFee(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	fee, err := e.PostServiceFee(ctx, acctBank, acctExpense, usd("25.00"), date(2025, time.February, 28))
	require.NoError(t, err)
	assert.True(t, fee.Cleared, "statement items arrive cleared")

	bank, err := l.GetBalance(ctx, acctBank)
	require.NoError(t, err)
	assert.Equal(t, "975.00", bank.String())

	// The fee explains the statement: it cleared, so the books match.
	res, err := e.Reconcile(ctx, Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("975.00"),
		AsOfDate:              date(2025, time.February, 28),
		ClearedTransactionIDs: []uuid.UUID{fee.ID},
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
}

func TestPostInterest(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	interest, err := e.PostInterest(ctx, acctBank, acctIncome, usd("3.17"), date(2025, time.February, 28))
	require.NoError(t, err)

	res, err := e.Reconcile(ctx, Statement{
		AccountID:             acctBank,
		EndingBalance:         usd("1003.17"),
		AsOfDate:              date(2025, time.February, 28),
		ClearedTransactionIDs: []uuid.UUID{interest.ID},
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	acct, err := l.GetAccount(ctx, acctBank)
	require.NoError(t, err)
	assert.Equal(t, "1003.17", acct.LastReconciledBalance.String())
}

func TestReconcile_VoidPairCancelsOut(t *testing.T) {
	e, l := newTestEngine(t)
	ctx := context.Background()

	check := postCheck(t, l, "120.00")
	_, err := l.VoidTransaction(ctx, check.ID)
	require.NoError(t, err)

	// Neither the check nor its reversal reached the bank; the pair nets
	// to zero in the outstanding totals.
	res, err := e.Reconcile(ctx, Statement{
		AccountID:     acctBank,
		EndingBalance: usd("1000.00"),
		AsOfDate:      date(2025, time.February, 28),
	})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, "120.00", res.OutstandingChecksTotal.String())
	assert.Equal(t, "120.00", res.DepositsInTransitTotal.String())
}
