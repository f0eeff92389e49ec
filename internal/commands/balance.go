package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newBalanceCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account's balance",
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

			acct, err := e.lg.GetAccount(cmd.Context(), accountID)
			if err != nil {
				return err
			}

			bal := acct.Balance
			if asOf != "" {
				when, err := time.Parse(dateFormat, asOf)
				if err != nil {
					return fmt.Errorf("parsing as-of date %q: %w", asOf, err)
				}
				bal, err = e.lg.BalanceAsOf(cmd.Context(), accountID, when)
				if err != nil {
					return err
				}
			}

			fmt.Printf("%d %s: %s\n", acct.ID, acct.Name, bal.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "balance as of date (YYYY-MM-DD)")

	return cmd
}
