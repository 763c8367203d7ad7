package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	gateAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/connections/adapter"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/adapter"
)

// CreateDirectConversationController handles the get-or-create endpoint for
// direct conversations (one controller per endpoint).
type CreateDirectConversationController struct {
	UC *usecase.CreateDirectConversationUseCase
}

func NewCreateDirectConversationController(pool *pgxpool.Pool, logger *zap.Logger) *CreateDirectConversationController {
	repo := repoAdapter.NewPgMessagingRepository(pool, logger)
	gate := gateAdapter.NewPgConnectionGate(pool)
	return &CreateDirectConversationController{UC: usecase.NewCreateDirectConversationUseCase(repo, gate)}
}

type createDirectRequest struct {
	PeerID string `json:"peer_id" binding:"required"`
}

func (h *CreateDirectConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createDirectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		id, err := h.UC.Execute(ctx, usecase.CreateDirectConversationInput{
			UserID: identityFrom(c),
			PeerID: req.PeerID,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		// Idempotent: the same pair always resolves to the same id.
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}
