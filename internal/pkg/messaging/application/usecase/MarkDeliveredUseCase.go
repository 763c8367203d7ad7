package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

type MarkDeliveredInput struct {
	MessageID string
	UserID    string // acting user; must be a participant of the message's conversation
}

// MarkDeliveredOutput reports whether the status moved and which conversation
// the message belongs to. Callers broadcast into that conversation, never into
// a client-supplied room.
type MarkDeliveredOutput struct {
	Advanced       bool
	ConversationID string
}

// MarkDeliveredUseCase advances a message to delivered on behalf of a
// participant. A message already delivered or read is left untouched and
// reported as not advanced, never as an error.
type MarkDeliveredUseCase struct {
	Repo repository.MessagingRepository
}

func NewMarkDeliveredUseCase(repo repository.MessagingRepository) *MarkDeliveredUseCase {
	return &MarkDeliveredUseCase{Repo: repo}
}

func (uc *MarkDeliveredUseCase) Execute(ctx context.Context, in MarkDeliveredInput) (*MarkDeliveredOutput, error) {
	if in.MessageID == "" || in.UserID == "" {
		return nil, fmt.Errorf("messageId and userId are required")
	}

	msg, err := uc.Repo.GetMessage(ctx, in.MessageID)
	if errors.Is(err, messaging.ErrNotFound) {
		return nil, messaging.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, msg.ConversationID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, messaging.ErrNotMember
	}

	advanced, err := uc.Repo.MarkDelivered(ctx, in.MessageID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &MarkDeliveredOutput{Advanced: advanced, ConversationID: msg.ConversationID}, nil
}
