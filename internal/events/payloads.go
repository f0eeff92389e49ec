package events

import "time"

// TransactionPosted is published after a transaction commits.
type TransactionPosted struct {
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	Date          time.Time `json:"date"`
	Memo          string    `json:"memo"`
	Amount        string    `json:"amount"`
}

// ReconciliationCommitted is published after a zero-difference
// reconciliation advances an account's baseline.
type ReconciliationCommitted struct {
	AccountID     int       `json:"account_id"`
	StatementDate time.Time `json:"statement_date"`
	EndingBalance string    `json:"ending_balance"`
	ClearedCount  int       `json:"cleared_count"`
}
