package repository

import (
	"context"

	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
)

// MessagingRepository defines persistence operations for conversations,
// messages and read receipts. All multi-row mutations execute as a single
// transaction inside the adapter.
type MessagingRepository interface {
	// FindDirectConversation returns the id of the direct conversation for
	// the pair key, or messaging.ErrNotFound.
	FindDirectConversation(ctx context.Context, pairKey string) (string, error)

	// CreateDirectConversation inserts the conversation plus both participant
	// rows atomically. A uniqueness conflict from a concurrent creator is not
	// an error: the adapter re-reads and returns the winner's id.
	CreateDirectConversation(ctx context.Context, userA, userB string) (string, error)

	// FindAIConversation returns the user's assistant conversation id, or
	// messaging.ErrNotFound.
	FindAIConversation(ctx context.Context, userID string) (string, error)

	// CreateAIConversation inserts the conversation, the single participant
	// row and the assistant session context atomically, with the same
	// conflict-re-read policy as CreateDirectConversation.
	CreateAIConversation(ctx context.Context, userID string) (string, error)

	GetConversation(ctx context.Context, conversationID string) (*messaging.Conversation, error)

	// ListConversationSummaries returns the user's inbox ordered by
	// updated_at descending, with participants, last-message preview and
	// per-conversation unread count.
	ListConversationSummaries(ctx context.Context, userID string) ([]messaging.ConversationSummary, error)

	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)

	// SaveMessage persists the message and bumps the conversation's
	// updated_at in the same transaction. The returned copy carries the
	// DB-generated id and timestamp.
	SaveMessage(ctx context.Context, m messaging.Message) (*messaging.Message, error)

	// GetMessagesByConversation returns the NEWEST non-deleted messages up
	// to limit, ordered oldest to newest. A long thread drops its oldest
	// messages from the page, never its most recent ones.
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]messaging.Message, error)

	GetMessage(ctx context.Context, messageID string) (*messaging.Message, error)

	// MarkDelivered advances delivery_status to delivered if it is still
	// sent. Returns false when the message was already delivered or read.
	MarkDelivered(ctx context.Context, messageID string) (bool, error)

	// MarkConversationRead inserts receipts for every message in the
	// conversation not authored by the reader and not yet receipted by them,
	// advances statuses per the completion rule, and updates the reader's
	// watermark, all in one transaction. Idempotent.
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (*messaging.ReadResult, error)

	// UnreadCount is read-only: messages across the user's conversations,
	// authored by someone else, not deleted and not receipted by the user.
	UnreadCount(ctx context.Context, userID string) (int64, error)

	// SoftDeleteMessage sets deleted_at when requesterID authored the
	// message. Receipts are kept.
	SoftDeleteMessage(ctx context.Context, messageID, requesterID string) error
}
