package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/realtime"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/adapter"
)

// ListConversationsController serves the caller's inbox: conversations by
// recency with previews, unread counts and which participants are online.
type ListConversationsController struct {
	UC  *usecase.ListConversationsUseCase
	Hub *realtime.Hub
}

func NewListConversationsController(pool *pgxpool.Pool, hub *realtime.Hub, logger *zap.Logger) *ListConversationsController {
	repo := repoAdapter.NewPgMessagingRepository(pool, logger)
	return &ListConversationsController{UC: usecase.NewListConversationsUseCase(repo), Hub: hub}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		summaries, err := h.UC.Execute(ctx, usecase.ListConversationsInput{UserID: identityFrom(c)})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := make([]gin.H, 0, len(summaries))
		for _, s := range summaries {
			out = append(out, gin.H{
				"id":              s.ID,
				"type":            s.Type,
				"name":            s.Name,
				"updated_at":      s.UpdatedAt,
				"participant_ids": s.ParticipantIDs,
				"last_message":    s.LastMessage,
				"unread_count":    s.UnreadCount,
				"online":          h.Hub.OnlineAmong(s.ParticipantIDs),
			})
		}
		c.JSON(http.StatusOK, gin.H{"conversations": out, "count": len(out)})
	}
}
