package ledger

import (
	"errors"
	"fmt"

	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
)

var (
	// ErrEmptyPostings rejects a transaction with no postings.
	ErrEmptyPostings = errors.New("ledger: transaction has no postings")
	// ErrInvalidPosting rejects a posting with a non-positive amount or
	// unknown side.
	ErrInvalidPosting = errors.New("ledger: invalid posting")
	// ErrUnbalanced rejects a transaction whose debits and credits differ.
	ErrUnbalanced = errors.New("ledger: postings do not balance")
)

// validatePostings enforces the posting invariants that do not need account
// lookups: at least one posting, every amount strictly positive, a single
// scale throughout, and debits equal to credits exactly. Runs before any
// state is touched.
func validatePostings(postings []model.Posting) error {
	if len(postings) == 0 {
		return ErrEmptyPostings
	}

	scale := postings[0].Amount.Scale()
	totalDebit := money.Zero(scale)
	totalCredit := money.Zero(scale)
	for i, p := range postings {
		if p.Side != model.SideDebit && p.Side != model.SideCredit {
			return fmt.Errorf("%w: posting %d has side %q", ErrInvalidPosting, i, p.Side)
		}
		if !p.Amount.IsPositive() {
			return fmt.Errorf("%w: posting %d amount %s must be positive", ErrInvalidPosting, i, p.Amount)
		}
		if p.Amount.Scale() != scale {
			return fmt.Errorf("%w: posting %d has scale %d, expected %d",
				money.ErrScaleMismatch, i, p.Amount.Scale(), scale)
		}

		var err error
		if p.Side == model.SideDebit {
			totalDebit, err = totalDebit.Add(p.Amount)
		} else {
			totalCredit, err = totalCredit.Add(p.Amount)
		}
		if err != nil {
			return err
		}
	}

	if !totalDebit.Equal(totalCredit) {
		diff, err := totalDebit.Sub(totalCredit)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: debits (%s) != credits (%s), difference %s",
			ErrUnbalanced, totalDebit, totalCredit, diff)
	}
	return nil
}
