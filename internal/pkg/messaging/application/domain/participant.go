package messaging

import "time"

// Participant captures membership and the per-user read watermark.
// Primary key: (ConversationID, UserID)
type Participant struct {
	ConversationID string     `db:"conversation_id"`
	UserID         string     `db:"user_id"`
	JoinedAt       time.Time  `db:"joined_at"`
	LastReadAt     *time.Time `db:"last_read_at"`
}
