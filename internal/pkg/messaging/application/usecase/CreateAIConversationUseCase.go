package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

// CreateAIConversationInput names the owning user; each user holds at most
// one assistant conversation.
type CreateAIConversationInput struct {
	UserID string
}

// CreateAIConversationUseCase gets or creates the user's assistant
// conversation along with its session context record. No connection gate:
// the assistant is available to everyone.
type CreateAIConversationUseCase struct {
	Repo repository.MessagingRepository
}

func NewCreateAIConversationUseCase(repo repository.MessagingRepository) *CreateAIConversationUseCase {
	return &CreateAIConversationUseCase{Repo: repo}
}

func (uc *CreateAIConversationUseCase) Execute(ctx context.Context, in CreateAIConversationInput) (string, error) {
	if in.UserID == "" {
		return "", fmt.Errorf("userId is required")
	}

	id, err := uc.Repo.FindAIConversation(ctx, in.UserID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, messaging.ErrNotFound) {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	id, err = uc.Repo.CreateAIConversation(ctx, in.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return id, nil
}
