package messaging

import (
	"strings"
	"time"
)

// ConversationType distinguishes the three thread flavors.
type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
	ConversationTypeAI     ConversationType = "ai"
)

// Conversation is a container for an ordered message sequence among a fixed
// participant set. UpdatedAt is bumped on every appended message and drives
// inbox ordering.
type Conversation struct {
	ID        string           `db:"id"`
	Type      ConversationType `db:"conv_type"`
	Name      *string          `db:"name"`
	PairKey   *string          `db:"pair_key"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

// ConversationSummary is the inbox row: the conversation plus the pieces the
// client renders without a second fetch.
type ConversationSummary struct {
	ID             string           `json:"id"`
	Type           ConversationType `json:"type"`
	Name           *string          `json:"name"`
	UpdatedAt      time.Time        `json:"updated_at"`
	ParticipantIDs []string         `json:"participant_ids"`
	LastMessage    *Message         `json:"last_message"`
	UnreadCount    int64            `json:"unread_count"`
}

// DirectPairKey produces the canonical identity of a direct conversation:
// the two user ids in lexicographic order. Both argument orders map to the
// same key, which is what the uniqueness constraint enforces against.
func DirectPairKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
