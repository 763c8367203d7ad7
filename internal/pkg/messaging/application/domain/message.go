package messaging

import (
	"strings"
	"time"
)

// MessageType represents type of message content
// 0=text, 1=image, 2=file, 3=system
type MessageType int16

const (
	MessageTypeText   MessageType = 0
	MessageTypeImage  MessageType = 1
	MessageTypeFile   MessageType = 2
	MessageTypeSystem MessageType = 3
)

// DeliveryStatus tracks the sent -> delivered -> read progression.
// Transitions only ever advance; backward writes are no-ops at the store.
type DeliveryStatus int16

const (
	DeliverySent      DeliveryStatus = 0
	DeliveryDelivered DeliveryStatus = 1
	DeliveryRead      DeliveryStatus = 2
)

// AssistantMention is the token that routes a message to the assistant from
// inside a non-AI conversation. AI-typed conversations trigger on every
// human message without parsing the body.
const AssistantMention = "@assistant"

// Message is an immutable log entry in a conversation. Only DeliveryStatus
// and the timestamps it implies may change after creation; DeletedAt marks
// a soft delete.
type Message struct {
	ID             string         `db:"id"`
	ConversationID string         `db:"conversation_id"`
	SenderID       *string        `db:"sender_id"` // nil for assistant/system rows
	Body           *string        `db:"body"`
	MediaURL       *string        `db:"media_url"`
	MsgType        MessageType    `db:"msg_type"`
	ReplyToID      *string        `db:"reply_to_id"`
	IsAIMessage    bool           `db:"is_ai_message"`
	DeliveryStatus DeliveryStatus `db:"delivery_status"`
	CreatedAt      time.Time      `db:"created_at"`
	DeliveredAt    *time.Time     `db:"delivered_at"`
	ReadAt         *time.Time     `db:"read_at"`
	DeletedAt      *time.Time     `db:"deleted_at"`
}

// NewMessage validates and normalizes a candidate message before persistence.
// Human messages require a sender; assistant rows pass a nil sender with
// IsAIMessage set.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" {
		return nil, ErrInvalidConversation
	}
	if m.SenderID == nil && !m.IsAIMessage && m.MsgType != MessageTypeSystem {
		return nil, ErrInvalidConversation
	}

	if m.Body != nil {
		trimmed := strings.TrimSpace(*m.Body)
		if trimmed == "" {
			m.Body = nil
		} else {
			m.Body = &trimmed
		}
	}

	if m.Body == nil && m.MediaURL == nil {
		return nil, ErrEmptyMessage
	}

	m.DeliveryStatus = DeliverySent
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}

// MentionsAssistant reports whether the body carries the assistant token.
func (m *Message) MentionsAssistant() bool {
	if m == nil || m.Body == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*m.Body), AssistantMention)
}
