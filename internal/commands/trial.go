package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/genfin-dev/genfin/internal/report"
)

func newTrialBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			tb, err := e.lg.TrialBalance(cmd.Context())
			if err != nil {
				return err
			}

			if err := report.WriteTrialBalance(os.Stdout, tb); err != nil {
				return err
			}
			if !tb.Balanced() {
				return fmt.Errorf("books do not balance: debits %s, credits %s",
					tb.TotalDebit, tb.TotalCredit)
			}
			return nil
		},
	}
}
