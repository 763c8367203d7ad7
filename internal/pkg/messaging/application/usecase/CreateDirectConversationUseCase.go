package usecase

import (
	"context"
	"errors"
	"fmt"

	connections "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/connections/port"
	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

// CreateDirectConversationInput carries the two ends of a direct thread.
type CreateDirectConversationInput struct {
	UserID string // acting user (verified identity)
	PeerID string
}

// CreateDirectConversationUseCase gets or creates the single direct
// conversation for a user pair. The gate is consulted only on the creation
// path; an existing conversation is returned without re-checking.
type CreateDirectConversationUseCase struct {
	Repo repository.MessagingRepository
	Gate connections.Gate
}

func NewCreateDirectConversationUseCase(repo repository.MessagingRepository, gate connections.Gate) *CreateDirectConversationUseCase {
	return &CreateDirectConversationUseCase{Repo: repo, Gate: gate}
}

// Execute returns the conversation id, creating it if needed. Idempotent
// under concurrent callers: the store resolves the creation race internally.
func (uc *CreateDirectConversationUseCase) Execute(ctx context.Context, in CreateDirectConversationInput) (string, error) {
	if in.UserID == "" || in.PeerID == "" {
		return "", fmt.Errorf("userId and peerId are required")
	}
	if in.UserID == in.PeerID {
		return "", fmt.Errorf("cannot open a conversation with yourself")
	}

	pairKey := messaging.DirectPairKey(in.UserID, in.PeerID)
	id, err := uc.Repo.FindDirectConversation(ctx, pairKey)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, messaging.ErrNotFound) {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	ok, err := uc.Gate.CanConverse(ctx, in.UserID, in.PeerID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return "", messaging.ErrNotConnected
	}

	id, err = uc.Repo.CreateDirectConversation(ctx, in.UserID, in.PeerID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return id, nil
}
