package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

const dateFormat = "2006-01-02"

func newPostCommand() *cobra.Command {
	var kind string
	var date string
	var memo string
	var checkNumber int
	var debits []string
	var credits []string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced transaction",
		Example: `  genfin post --memo "Diesel delivery" \
    --debit 5040:300.00 --credit 1010:300.00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			k := model.TransactionKind(kind)
			if !k.Valid() {
				return fmt.Errorf("unknown kind %q", kind)
			}

			when := time.Now()
			if date != "" {
				when, err = time.Parse(dateFormat, date)
				if err != nil {
					return fmt.Errorf("parsing date %q: %w", date, err)
				}
			}

			scale := e.cfg.Policy.Scale
			var postings []model.Posting
			for _, d := range debits {
				p, err := parsePosting(d, model.SideDebit, scale)
				if err != nil {
					return err
				}
				postings = append(postings, p)
			}
			for _, c := range credits {
				p, err := parsePosting(c, model.SideCredit, scale)
				if err != nil {
					return err
				}
				postings = append(postings, p)
			}

			tx, err := e.lg.PostTransaction(cmd.Context(), ledger.PostParams{
				Kind:        k,
				Date:        when,
				Memo:        memo,
				Postings:    postings,
				CheckNumber: checkNumber,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Posted %s %s (%s)\n", tx.Kind, tx.ID, tx.Amount().String())
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.KindJournalEntry), "transaction kind")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&memo, "memo", "", "memo line")
	cmd.Flags().IntVar(&checkNumber, "check-number", 0, "check number (checks only)")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit leg as ACCOUNT:AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit leg as ACCOUNT:AMOUNT (repeatable)")

	return cmd
}

// parsePosting parses an "ACCOUNT:AMOUNT" flag value, e.g. "1010:300.00".
func parsePosting(s string, side model.Side, scale int32) (model.Posting, error) {
	acctStr, amtStr, ok := strings.Cut(s, ":")
	if !ok {
		return model.Posting{}, fmt.Errorf("posting %q: want ACCOUNT:AMOUNT", s)
	}

	acctID, err := strconv.Atoi(acctStr)
	if err != nil {
		return model.Posting{}, fmt.Errorf("posting %q: parsing account: %w", s, err)
	}

	amt, err := money.FromString(amtStr, scale)
	if err != nil {
		return model.Posting{}, fmt.Errorf("posting %q: parsing amount: %w", s, err)
	}

	return model.Posting{AccountID: acctID, Amount: amt, Side: side}, nil
}
