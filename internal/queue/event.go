// Package queue defines the messages exchanged over the broker and the
// background consumer that turns them into the audit log.
package queue

// Audit actions recorded for ledger writes.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// TransactionEvent is published after a ledger write succeeds. It carries
// enough for downstream consumers to build an audit trail without querying
// the primary database. Amounts only, never credentials or tokens.
type TransactionEvent struct {
	Action        string `json:"action"`
	UserID        string `json:"userId"`
	TransactionID string `json:"transactionId,omitempty"` // empty for batch imports
	Type          string `json:"type,omitempty"`
	AmountCents   int64  `json:"amountCents,omitempty"`
	Count         int    `json:"count,omitempty"` // rows in a batch import
	At            string `json:"at"`              // RFC3339 time of the write
}
