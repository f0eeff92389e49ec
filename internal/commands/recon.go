package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/genfin-dev/genfin/internal/report"
)

func newReconHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recon-history <account-id>",
		Short: "Print an account's reconciliation history as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parsing account ID %q: %w", args[0], err)
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			recs, err := e.lg.Store().ReconciliationHistory(cmd.Context(), accountID)
			if err != nil {
				return err
			}

			return report.WriteReconciliations(os.Stdout, recs)
		},
	}
}
