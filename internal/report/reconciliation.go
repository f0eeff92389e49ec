package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/genfin-dev/genfin/internal/model"
)

// ReconciliationHeader is the CSV header for a reconciliation history export.
const ReconciliationHeader = "id,account_id,statement_date,statement_ending_balance,cleared_net,outstanding_checks,deposits_in_transit,cleared_count,created_at"

const (
	dateFormat      = "2006-01-02"
	timestampFormat = "2006-01-02T15:04:05Z07:00"
)

// WriteReconciliations writes one row per committed reconciliation.
func WriteReconciliations(w io.Writer, recs []model.ReconciliationRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"id", "account_id", "statement_date", "statement_ending_balance",
		"cleared_net", "outstanding_checks", "deposits_in_transit",
		"cleared_count", "created_at",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range recs {
		row := []string{
			rec.ID.String(),
			strconv.Itoa(rec.AccountID),
			rec.StatementDate.Format(dateFormat),
			rec.StatementEndingBalance.String(),
			rec.ClearedNet.String(),
			rec.OutstandingChecksTotal.String(),
			rec.DepositsInTransitTotal.String(),
			strconv.Itoa(len(rec.ClearedTransactionIDs)),
			rec.CreatedAt.UTC().Format(timestampFormat),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}
