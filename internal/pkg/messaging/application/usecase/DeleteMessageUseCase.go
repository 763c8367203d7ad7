package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

type DeleteMessageInput struct {
	MessageID   string
	RequesterID string
}

// DeleteMessageUseCase soft-deletes a message on behalf of its author.
// Receipts stay behind for audit.
type DeleteMessageUseCase struct {
	Repo repository.MessagingRepository
}

func NewDeleteMessageUseCase(repo repository.MessagingRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) error {
	if in.MessageID == "" || in.RequesterID == "" {
		return fmt.Errorf("messageId and requesterId are required")
	}
	err := uc.Repo.SoftDeleteMessage(ctx, in.MessageID, in.RequesterID)
	if err == nil || errors.Is(err, messaging.ErrNotFound) || errors.Is(err, messaging.ErrNotSender) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
