package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cacheport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	qport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/queue/port"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/realtime"
	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/task"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/adapter"
)

// SendMessageController appends a message synchronously, fans it out to the
// conversation room, and enqueues the assistant follow-up when the message
// asks for one. The human append never waits on the assistant.
type SendMessageController struct {
	UC     *usecase.SendMessageUseCase
	Hub    *realtime.Hub
	Queue  qport.Client // nil disables the assistant path
	logger *zap.Logger
}

func NewSendMessageController(pool *pgxpool.Pool, c cacheport.Cache, hub *realtime.Hub, queue qport.Client, logger *zap.Logger) *SendMessageController {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := repoAdapter.NewPgMessagingRepository(pool, logger)
	return &SendMessageController{
		UC:     usecase.NewSendMessageUseCase(repo, c),
		Hub:    hub,
		Queue:  queue,
		logger: logger,
	}
}

type sendMessageRequest struct {
	Body      *string `json:"body"`
	MediaURL  *string `json:"media_url"`
	MsgType   *int16  `json:"msg_type"`
	ReplyToID *string `json:"reply_to_id"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		msgType := messaging.MessageTypeText
		if req.MsgType != nil {
			msgType = messaging.MessageType(*req.MsgType)
		}

		userID := identityFrom(c)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.SendMessageInput{
			ConversationID: conversationID,
			SenderID:       &userID,
			Body:           req.Body,
			MediaURL:       req.MediaURL,
			MsgType:        msgType,
			ReplyToID:      req.ReplyToID,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		h.Hub.Broadcast(conversationID, realtime.Encode(realtime.EventMessageNew, out.Message), "")

		if out.TriggerAI {
			h.enqueueAIReply(ctx, out.Message)
		}

		c.JSON(http.StatusCreated, out.Message)
	}
}

// enqueueAIReply schedules exactly one generation attempt. Failures here are
// logged and dropped: the human message is already durable and broadcast.
func (h *SendMessageController) enqueueAIReply(ctx context.Context, msg *messaging.Message) {
	if h.Queue == nil || msg.Body == nil {
		return
	}
	payload, err := json.Marshal(task.AIReplyTaskPayload{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		Prompt:         *msg.Body,
	})
	if err != nil {
		h.logger.Warn("ai reply enqueue: encode payload", zap.Error(err))
		return
	}
	_, err = h.Queue.Enqueue(ctx,
		qport.Task{Type: task.AIReplyTaskType, Payload: payload},
		qport.EnqueueOption{Queue: "messaging", MaxRetry: 0, Retention: time.Hour},
	)
	if err != nil {
		h.logger.Warn("ai reply enqueue failed",
			zap.String("conversation_id", msg.ConversationID), zap.Error(err))
	}
}
