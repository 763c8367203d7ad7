package task

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/ai"
	cacheport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	qport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/queue/port"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/realtime"
	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/usecase"
	repository "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/port"
)

// AIReplyTaskType is the queue task name for producing an assistant reply.
const AIReplyTaskType = "messaging:ai_reply"

// historyWindow bounds how much conversation context the generation call
// carries: the most recent turns, not the conversation's start.
const historyWindow = 20

// AIReplyTaskPayload is the JSON payload transported via the queue.
// MessageID names the triggering message so the handler can keep it out of
// the history (it travels separately as the prompt).
type AIReplyTaskPayload struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	Prompt         string `json:"prompt"`
}

// RegisterAIReplyTask binds the assistant-reply handler to the queue server.
// The handler is strictly best-effort: every failure is logged and swallowed
// so the human conversation never sees it, and the task is enqueued with
// zero retries so at most one attempt runs per triggering message.
func RegisterAIReplyTask(srv qport.Server, repo repository.MessagingRepository, cache cacheport.Cache, hub *realtime.Hub, client *ai.Client, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv.Register(AIReplyTaskType, func(ctx context.Context, t qport.Task) error {
		var p AIReplyTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			logger.Warn("ai reply: malformed payload", zap.Error(err))
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
		defer cancel()

		// One extra row so the window stays full after the triggering
		// message is dropped from it.
		history, err := repo.GetMessagesByConversation(ctx, p.ConversationID, historyWindow+1)
		if err != nil {
			logger.Warn("ai reply: history fetch failed",
				zap.String("conversation_id", p.ConversationID), zap.Error(err))
			return nil
		}

		turns := make([]ai.Turn, 0, len(history))
		for _, m := range history {
			if m.Body == nil || m.ID == p.MessageID {
				continue
			}
			role := "user"
			if m.IsAIMessage {
				role = "assistant"
			}
			turns = append(turns, ai.Turn{Role: role, Content: *m.Body})
		}
		if len(turns) > historyWindow {
			turns = turns[len(turns)-historyWindow:]
		}

		reply, err := client.Complete(ctx, turns, p.Prompt)
		if err != nil {
			logger.Warn("ai reply: generation failed",
				zap.String("conversation_id", p.ConversationID), zap.Error(err))
			return nil
		}

		// Same path as a human append, cache invalidation included, so
		// assistant replies bump unread badges just as eagerly.
		sendUC := usecase.NewSendMessageUseCase(repo, cache)
		out, err := sendUC.Execute(ctx, usecase.SendMessageInput{
			ConversationID: p.ConversationID,
			SenderID:       nil,
			Body:           &reply,
			MsgType:        messaging.MessageTypeText,
			IsAIMessage:    true,
		})
		if err != nil {
			logger.Warn("ai reply: persist failed",
				zap.String("conversation_id", p.ConversationID), zap.Error(err))
			return nil
		}

		hub.Broadcast(p.ConversationID, realtime.Encode(realtime.EventMessageNew, out.Message), "")
		return nil
	})
}
