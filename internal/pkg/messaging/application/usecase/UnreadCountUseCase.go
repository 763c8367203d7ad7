package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	cache "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

// unreadCacheTTL bounds how stale a cached unread counter may get if an
// invalidation is lost. The counter is eventually consistent by design.
const unreadCacheTTL = 30 * time.Second

func unreadCacheKey(userID string) string {
	return "messaging:unread:" + userID
}

type UnreadCountInput struct {
	UserID string
}

// UnreadCountUseCase computes the user's total unread counter. Read-only on
// the store; a short-lived cache entry absorbs badge-polling traffic and is
// dropped whenever a message lands or a conversation is read.
type UnreadCountUseCase struct {
	Repo  repository.MessagingRepository
	Cache cache.Cache // optional
}

func NewUnreadCountUseCase(repo repository.MessagingRepository, c cache.Cache) *UnreadCountUseCase {
	return &UnreadCountUseCase{Repo: repo, Cache: c}
}

func (uc *UnreadCountUseCase) Execute(ctx context.Context, in UnreadCountInput) (int64, error) {
	if in.UserID == "" {
		return 0, fmt.Errorf("userId is required")
	}

	// Misses and cache trouble both fall through to the store; the badge
	// must never break because the cache did.
	key := unreadCacheKey(in.UserID)
	if uc.Cache != nil {
		if v, err := uc.Cache.Get(ctx, key); err == nil {
			if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				return n, nil
			}
		}
	}

	count, err := uc.Repo.UnreadCount(ctx, in.UserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		_ = uc.Cache.Set(ctx, key, strconv.FormatInt(count, 10), unreadCacheTTL)
	}
	return count, nil
}
