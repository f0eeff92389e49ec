package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
	"github.com/genfin-dev/genfin/internal/store"
)

func usd(s string) money.Money {
	return money.MustParse(s, 2)
}

func seedAccounts(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveAccount(ctx, model.Account{
		ID: 1010, Name: "Farm Checking", Type: model.AccountTypeAsset,
		Balance: usd("0.00"), LastReconciledBalance: usd("0.00"),
	}))
	require.NoError(t, s.SaveAccount(ctx, model.Account{
		ID: 5010, Name: "Feed", Type: model.AccountTypeExpense,
		Balance: usd("0.00"), LastReconciledBalance: usd("0.00"),
	}))
}

func feedPurchase(amount money.Money) model.Transaction {
	return model.Transaction{
		ID:   uuid.New(),
		Date: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		Memo: "Feed store",
		Kind: model.KindCheck,
		Postings: []model.Posting{
			{AccountID: 5010, Amount: amount, Side: model.SideDebit},
			{AccountID: 1010, Amount: amount, Side: model.SideCredit},
		},
		Status: model.StatusPending,
	}
}

func TestSaveAccount_Duplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	err := s.SaveAccount(ctx, model.Account{ID: 1010, Name: "Other", Type: model.AccountTypeAsset})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	err = s.SaveAccount(ctx, model.Account{ID: 1020, Name: "Farm Checking", Type: model.AccountTypeAsset})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestGetAccountByName(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	acct, err := s.GetAccountByName(ctx, "Feed")
	require.NoError(t, err)
	assert.Equal(t, 5010, acct.ID)

	_, err = s.GetAccountByName(ctx, "Vet")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyPostings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	tx := feedPurchase(usd("125.40"))
	balances := map[int]money.Money{1010: usd("-125.40"), 5010: usd("125.40")}
	require.NoError(t, s.ApplyPostings(ctx, tx, balances))

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.Memo, got.Memo)
	require.Len(t, got.Postings, 2)
	assert.Equal(t, "125.40", got.Postings[0].Amount.String())

	bank, err := s.GetAccount(ctx, 1010)
	require.NoError(t, err)
	assert.Equal(t, "-125.40", bank.Balance.String())

	// Duplicate transaction IDs are rejected.
	err = s.ApplyPostings(ctx, tx, balances)
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestApplyPostings_FailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	tx := feedPurchase(usd("50.00"))
	err := s.ApplyPostings(ctx, tx,
		map[int]money.Money{1010: usd("-50.00")},
		store.StatusUpdate{TransactionID: uuid.New(), Status: model.StatusPaid})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	bank, err := s.GetAccount(ctx, 1010)
	require.NoError(t, err)
	assert.True(t, bank.Balance.IsZero())
}

func TestApplyPostings_StatusUpdates(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	bill := feedPurchase(usd("200.00"))
	bill.Kind = model.KindBill
	bill.Status = model.StatusUnpaid
	require.NoError(t, s.ApplyPostings(ctx, bill, nil))

	payment := feedPurchase(usd("200.00"))
	payment.Kind = model.KindPayment
	payment.Status = model.StatusPosted
	payment.AppliesTo = bill.ID
	require.NoError(t, s.ApplyPostings(ctx, payment,
		map[int]money.Money{1010: usd("-200.00")},
		store.StatusUpdate{TransactionID: bill.ID, Status: model.StatusPaid}))

	got, err := s.GetTransaction(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, got.Status)

	applied, err := s.ListApplied(ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, payment.ID, applied[0].ID)
}

func TestListTransactions_FiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)
	require.NoError(t, s.SaveAccount(ctx, model.Account{
		ID: 4010, Name: "Crop Sales", Type: model.AccountTypeIncome,
		Balance: usd("0.00"), LastReconciledBalance: usd("0.00"),
	}))

	first := feedPurchase(usd("10.00"))
	second := feedPurchase(usd("20.00"))
	sale := model.Transaction{
		ID: uuid.New(), Date: time.Now(), Kind: model.KindDeposit, Status: model.StatusPosted,
		Postings: []model.Posting{
			{AccountID: 1010, Amount: usd("500.00"), Side: model.SideDebit},
			{AccountID: 4010, Amount: usd("500.00"), Side: model.SideCredit},
		},
	}
	require.NoError(t, s.ApplyPostings(ctx, first, nil))
	require.NoError(t, s.ApplyPostings(ctx, second, nil))
	require.NoError(t, s.ApplyPostings(ctx, sale, nil))

	bankTxs, err := s.ListTransactions(ctx, 1010)
	require.NoError(t, err)
	require.Len(t, bankTxs, 3)
	assert.Equal(t, first.ID, bankTxs[0].ID)
	assert.Equal(t, second.ID, bankTxs[1].ID)

	feedTxs, err := s.ListTransactions(ctx, 5010)
	require.NoError(t, err)
	assert.Len(t, feedTxs, 2)
}

func TestSetPrinted(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	check := feedPurchase(usd("75.00"))
	require.NoError(t, s.ApplyPostings(ctx, check, nil))

	// One unknown ID fails the whole batch.
	err := s.SetPrinted(ctx, []uuid.UUID{check.ID, uuid.New()})
	require.ErrorIs(t, err, store.ErrNotFound)
	got, err := s.GetTransaction(ctx, check.ID)
	require.NoError(t, err)
	assert.False(t, got.Printed)

	require.NoError(t, s.SetPrinted(ctx, []uuid.UUID{check.ID}))
	got, err = s.GetTransaction(ctx, check.ID)
	require.NoError(t, err)
	assert.True(t, got.Printed)
}

func TestCommitReconciliation(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	tx := feedPurchase(usd("100.00"))
	require.NoError(t, s.ApplyPostings(ctx, tx, nil))

	rec := model.ReconciliationRecord{
		ID:                     uuid.New(),
		AccountID:              1010,
		StatementDate:          time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		StatementEndingBalance: usd("-100.00"),
		ClearedNet:             usd("-100.00"),
		OutstandingChecksTotal: usd("0.00"),
		DepositsInTransitTotal: usd("0.00"),
		Difference:             usd("0.00"),
		ClearedTransactionIDs:  []uuid.UUID{tx.ID},
		Succeeded:              true,
		CreatedAt:              time.Now().UTC(),
	}
	require.NoError(t, s.CommitReconciliation(ctx, rec))

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Cleared)
	assert.True(t, got.Reconciled)

	bank, err := s.GetAccount(ctx, 1010)
	require.NoError(t, err)
	assert.Equal(t, "-100.00", bank.LastReconciledBalance.String())

	hist, err := s.ReconciliationHistory(ctx, 1010)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, rec.ID, hist[0].ID)
	assert.Equal(t, []uuid.UUID{tx.ID}, hist[0].ClearedTransactionIDs)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccounts(t, s)

	tx := feedPurchase(usd("30.00"))
	require.NoError(t, s.ApplyPostings(ctx, tx, nil))

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	got.Postings[0].AccountID = 9999
	got.Memo = "mutated"

	again, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 5010, again.Postings[0].AccountID)
	assert.Equal(t, "Feed store", again.Memo)
}
