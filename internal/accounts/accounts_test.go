package accounts

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/store/memory"
)

func TestDefaultChart_Sanity(t *testing.T) {
	chart := DefaultChart("farm_sole_proprietor")
	require.NotEmpty(t, chart)

	seen := make(map[int]bool)
	var hasOpeningEquity bool
	for _, entry := range chart {
		assert.False(t, seen[entry.ID], "duplicate account ID %d", entry.ID)
		seen[entry.ID] = true
		assert.True(t, entry.Type.Valid(), "account %d has invalid type", entry.ID)
		if entry.ID == ledger.DefaultPolicy().OpeningEquityAccountID {
			hasOpeningEquity = true
			assert.Equal(t, model.AccountTypeEquity, entry.Type)
		}
	}
	assert.True(t, hasOpeningEquity, "chart must include the opening-equity account")
}

func TestChartCSV_RoundTrip(t *testing.T) {
	chart := DefaultChart("farm_sole_proprietor")

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, chart))

	got, err := ReadChart(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, chart, got)
}

func TestReadChart_Empty(t *testing.T) {
	got, err := ReadChart(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
	}{
		{"wrong field count", []string{"1010", "Farm Checking"}},
		{"bad id", []string{"abc", "Farm Checking", "asset", "", ""}},
		{"bad type", []string{"1010", "Farm Checking", "widget", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.record)
			assert.Error(t, err)
		})
	}
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	lg := ledger.New(memory.New(), nil, ledger.DefaultPolicy())
	chart := DefaultChart("farm_sole_proprietor")

	require.NoError(t, Bootstrap(ctx, lg, chart, 2))

	acct, err := lg.GetAccount(ctx, 5010)
	require.NoError(t, err)
	assert.Equal(t, "Feed", acct.Name)
	assert.Equal(t, model.AccountTypeExpense, acct.Type)
	assert.Equal(t, "schedule_f_16", acct.TaxLine)
	assert.True(t, acct.Balance.IsZero())

	// Re-running skips accounts that already exist.
	require.NoError(t, Bootstrap(ctx, lg, chart, 2))

	tb, err := lg.TrialBalance(ctx)
	require.NoError(t, err)
	assert.True(t, tb.Balanced())
}
