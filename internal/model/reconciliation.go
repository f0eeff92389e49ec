package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/genfin-dev/genfin/internal/money"
)

// ReconciliationRecord is the archived outcome of a reconciliation attempt.
// Only committed (zero-difference) attempts are persisted; failed attempts
// are returned to the caller and discarded.
type ReconciliationRecord struct {
	ID                     uuid.UUID
	AccountID              int
	StatementDate          time.Time
	StatementEndingBalance money.Money
	ClearedNet             money.Money
	OutstandingChecksTotal money.Money
	DepositsInTransitTotal money.Money
	Difference             money.Money
	ClearedTransactionIDs  []uuid.UUID
	Succeeded              bool
	CreatedAt              time.Time
}
