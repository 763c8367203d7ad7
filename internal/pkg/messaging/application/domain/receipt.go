package messaging

import "time"

// ReadReceipt records that a user has seen a message. Uniqueness over
// (MessageID, UserID); re-reading is idempotent at the store.
type ReadReceipt struct {
	MessageID string    `db:"message_id"`
	UserID    string    `db:"user_id"`
	ReadAt    time.Time `db:"read_at"`
}

// ReadResult is the outcome of a bulk mark-read: which messages gained a
// receipt for the reader, and which of those advanced to delivery status
// read under the conversation's completion rule. Both lists drive the
// follow-up broadcasts.
type ReadResult struct {
	ReceiptMessageIDs []string
	ReadMessageIDs    []string
}
