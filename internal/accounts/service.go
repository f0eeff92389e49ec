// Package accounts holds chart-of-accounts templates and the CSV codec for
// exchanging them.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/genfin-dev/genfin/internal/ledger"
	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

// Bootstrap opens every chart entry in the ledger at a zero balance. Entries
// that already exist are skipped, so running it twice is harmless.
func Bootstrap(ctx context.Context, lg *ledger.Ledger, entries []ChartEntry, scale int32) error {
	for _, entry := range entries {
		_, err := lg.CreateAccount(ctx, model.Account{
			ID:          entry.ID,
			Name:        entry.Name,
			Type:        entry.Type,
			TaxLine:     entry.TaxLine,
			Description: entry.Description,
		}, money.Zero(scale))
		if err != nil && !errors.Is(err, ledger.ErrDuplicateAccount) {
			return fmt.Errorf("bootstrapping account %d %q: %w", entry.ID, entry.Name, err)
		}
	}
	return nil
}
