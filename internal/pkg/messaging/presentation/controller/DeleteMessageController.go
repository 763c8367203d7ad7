package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/adapter"
)

// DeleteMessageController soft-deletes a message for its author. Deleted
// messages drop out of history; their receipts are kept.
type DeleteMessageController struct {
	UC *usecase.DeleteMessageUseCase
}

func NewDeleteMessageController(pool *pgxpool.Pool, logger *zap.Logger) *DeleteMessageController {
	repo := repoAdapter.NewPgMessagingRepository(pool, logger)
	return &DeleteMessageController{UC: usecase.NewDeleteMessageUseCase(repo)}
}

func (h *DeleteMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID := c.Param("messageId")
		if messageID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.DeleteMessageInput{
			MessageID:   messageID,
			RequesterID: identityFrom(c),
		}); err != nil {
			respondUseCaseError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
