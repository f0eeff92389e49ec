package report

import (
	"bytes"
	"context"
	"strings"
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

func usd(s string) money.Money {
	return money.MustParse(s, 2)
}

func TestWriteTrialBalance(t *testing.T) {
	ctx := context.Background()
	lg := ledger.New(memory.New(), nil, ledger.DefaultPolicy())

	_, err := lg.OpenAccount(ctx, 3020, "Opening Balances", model.AccountTypeEquity, usd("0.00"))
	require.NoError(t, err)
	_, err = lg.OpenAccount(ctx, 1010, "Farm Checking", model.AccountTypeAsset, usd("2500.00"))
	require.NoError(t, err)
	_, err = lg.OpenAccount(ctx, 5040, "Fuel & Oil", model.AccountTypeExpense, usd("0.00"))
	require.NoError(t, err)

	_, err = lg.PostTransaction(ctx, ledger.PostParams{
		Kind: model.KindCheck,
		Date: time.Now(),
		Memo: "Diesel delivery",
		Postings: []model.Posting{
			{AccountID: 5040, Amount: usd("300.00"), Side: model.SideDebit},
			{AccountID: 1010, Amount: usd("300.00"), Side: model.SideCredit},
		},
	})
	require.NoError(t, err)

	tb, err := lg.TrialBalance(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTrialBalance(&buf, tb))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, TrialBalanceHeader, lines[0])
	assert.Equal(t, "asset,2200.00,0.00", lines[1])
	assert.Equal(t, "equity,0.00,2500.00", lines[3])
	assert.Equal(t, "expense,300.00,0.00", lines[5])
	assert.Equal(t, "TOTAL,2500.00,2500.00", lines[6])
}

func TestWriteReconciliations(t *testing.T) {
	id := uuid.MustParse("7e6b7a9e-9f4d-4a43-9a3e-2f6f3a1b5c01")
	recs := []model.ReconciliationRecord{{
		ID:                     id,
		AccountID:              1010,
		StatementDate:          time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		StatementEndingBalance: usd("1200.00"),
		ClearedNet:             usd("200.00"),
		OutstandingChecksTotal: usd("50.00"),
		DepositsInTransitTotal: usd("0.00"),
		Difference:             usd("0.00"),
		ClearedTransactionIDs:  []uuid.UUID{uuid.New(), uuid.New()},
		Succeeded:              true,
		CreatedAt:              time.Date(2025, time.April, 1, 9, 30, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteReconciliations(&buf, recs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, ReconciliationHeader, lines[0])
	assert.Equal(t,
		id.String()+",1010,2025-03-31,1200.00,200.00,50.00,0.00,2,2025-04-01T09:30:00Z",
		lines[1])
}

func TestWriteReconciliations_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReconciliations(&buf, nil))
	assert.Equal(t, ReconciliationHeader+"\n", buf.String())
}
