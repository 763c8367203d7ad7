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

// CreateAIConversationController handles the get-or-create endpoint for the
// caller's assistant conversation.
type CreateAIConversationController struct {
	UC *usecase.CreateAIConversationUseCase
}

func NewCreateAIConversationController(pool *pgxpool.Pool, logger *zap.Logger) *CreateAIConversationController {
	repo := repoAdapter.NewPgMessagingRepository(pool, logger)
	return &CreateAIConversationController{UC: usecase.NewCreateAIConversationUseCase(repo)}
}

func (h *CreateAIConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		id, err := h.UC.Execute(ctx, usecase.CreateAIConversationInput{UserID: identityFrom(c)})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}
