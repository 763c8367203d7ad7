package usecase

import (
	"context"
	"fmt"

	cache "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

type MarkReadInput struct {
	ConversationID string
	ReaderID       string
}

// MarkReadUseCase records the reader's receipts for a whole conversation and
// advances message statuses. Idempotent: a second call changes nothing and
// returns empty id lists.
type MarkReadUseCase struct {
	Repo  repository.MessagingRepository
	Cache cache.Cache // optional
}

func NewMarkReadUseCase(repo repository.MessagingRepository, c cache.Cache) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo, Cache: c}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (*messaging.ReadResult, error) {
	if in.ConversationID == "" || in.ReaderID == "" {
		return nil, fmt.Errorf("conversationId and readerId are required")
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.ConversationID, in.ReaderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, messaging.ErrNotMember
	}

	result, err := uc.Repo.MarkConversationRead(ctx, in.ConversationID, in.ReaderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil && len(result.ReceiptMessageIDs) > 0 {
		_, _ = uc.Cache.Del(ctx, unreadCacheKey(in.ReaderID))
	}
	return result, nil
}
