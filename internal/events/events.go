// Package events publishes ledger activity for downstream consumers
// (reporting, bank-feed sync, audit).
package events

// Topics published by the ledger core.
const (
	TopicTransactionPosted       = "transaction.posted"
	TopicReconciliationCommitted = "reconciliation.committed"
)

// Publisher delivers an event payload to a topic.
type Publisher interface {
	Publish(topic string, event any) error
}

// Nop is a Publisher that discards everything. Used in tests and when no
// broker is configured.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }

var _ Publisher = Nop{}
