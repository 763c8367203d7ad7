package messaging

import "errors"

// Domain-level errors for messaging behaviors
var (
	// ErrNotConnected blocks direct-conversation creation between users the
	// social graph does not link.
	ErrNotConnected = errors.New("messaging: users are not connected")

	// ErrNotMember rejects a conversation operation by a non-participant.
	ErrNotMember = errors.New("messaging: user is not a participant in the conversation")

	// ErrEmptyMessage rejects a message with neither body nor media.
	ErrEmptyMessage = errors.New("messaging: empty message (no body or media)")

	// ErrNotFound signals a missing conversation or message.
	ErrNotFound = errors.New("messaging: not found")

	// ErrNotSender rejects a delete attempt by someone other than the author.
	ErrNotSender = errors.New("messaging: only the sender may delete a message")

	ErrInvalidConversation = errors.New("messaging: conversation/message mismatch")
)
