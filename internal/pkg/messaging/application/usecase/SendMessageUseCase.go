package usecase

import (
	"context"
	"errors"
	"fmt"

	cache "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

// SendMessageInput carries the data needed to append a new message. A nil
// SenderID is reserved for assistant/system rows and bypasses the
// participant check.
type SendMessageInput struct {
	ConversationID string
	SenderID       *string
	Body           *string
	MediaURL       *string
	MsgType        messaging.MessageType
	ReplyToID      *string
	IsAIMessage    bool
}

// SendMessageOutput bundles the persisted message with what the caller needs
// for fan-out and the optional assistant follow-up.
type SendMessageOutput struct {
	Message        *messaging.Message
	Conversation   *messaging.Conversation
	ParticipantIDs []string

	// TriggerAI is set when the assistant should produce a reply: every
	// human message in an ai-typed conversation, or an explicit mention
	// elsewhere. The caller runs that path asynchronously and best-effort.
	TriggerAI bool
}

// SendMessageUseCase validates, persists and prepares a message for
// broadcast. The human append is complete before any assistant work starts.
type SendMessageUseCase struct {
	Repo  repository.MessagingRepository
	Cache cache.Cache // optional; unread counters are invalidated through it
}

func NewSendMessageUseCase(repo repository.MessagingRepository, c cache.Cache) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Cache: c}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("conversationId is required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if errors.Is(err, messaging.ErrNotFound) {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if in.SenderID != nil {
		isParticipant, err := uc.Repo.IsParticipant(ctx, in.ConversationID, *in.SenderID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !isParticipant {
			return nil, messaging.ErrNotMember
		}
	}

	msg, err := messaging.NewMessage(messaging.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Body:           in.Body,
		MediaURL:       in.MediaURL,
		MsgType:        in.MsgType,
		ReplyToID:      in.ReplyToID,
		IsAIMessage:    in.IsAIMessage,
	})
	if err != nil {
		return nil, err
	}

	saved, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	participants, err := uc.Repo.ListParticipantIDs(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	uc.invalidateUnread(ctx, participants, in.SenderID)

	out := &SendMessageOutput{
		Message:        saved,
		Conversation:   conv,
		ParticipantIDs: participants,
	}
	if in.SenderID != nil && !in.IsAIMessage {
		// Type tag first, mention token only as the secondary trigger.
		out.TriggerAI = conv.Type == messaging.ConversationTypeAI || saved.MentionsAssistant()
	}
	return out, nil
}

// invalidateUnread drops cached unread counters for every recipient; the
// next read recomputes from the store.
func (uc *SendMessageUseCase) invalidateUnread(ctx context.Context, participants []string, senderID *string) {
	if uc.Cache == nil {
		return
	}
	keys := make([]string, 0, len(participants))
	for _, id := range participants {
		if senderID != nil && id == *senderID {
			continue
		}
		keys = append(keys, unreadCacheKey(id))
	}
	if len(keys) > 0 {
		_, _ = uc.Cache.Del(ctx, keys...)
	}
}
