// Package report renders ledger summaries as CSV for export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/genfin-dev/genfin/internal/ledger"
)

// TrialBalanceHeader is the CSV header for a trial balance export.
const TrialBalanceHeader = "account_type,debit,credit"

// WriteTrialBalance writes one row per account type plus a TOTAL row.
func WriteTrialBalance(w io.Writer, tb ledger.TrialBalance) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_type", "debit", "credit"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range tb.Rows {
		rec := []string{string(row.Type), row.Debit.String(), row.Credit.String()}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %s: %w", row.Type, err)
		}
	}

	total := []string{"TOTAL", tb.TotalDebit.String(), tb.TotalCredit.String()}
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("writing total row: %w", err)
	}
	return cw.Error()
}
