package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cacheport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/realtime"
	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/usecase"
	repoAdapter "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/persistence/repository/adapter"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/typing"
)

// MessagingSocketController handles the websocket endpoint for realtime
// messaging traffic: presence registration, conversation rooms, typing
// signals and read/delivery receipts.
type MessagingSocketController struct {
	hub             *realtime.Hub
	typing          *typing.Tracker
	joinUC          *usecase.JoinConversationUseCase
	markReadUC      *usecase.MarkReadUseCase
	markDeliveredUC *usecase.MarkDeliveredUseCase
	logger          *zap.Logger
	inflightTimeout time.Duration
}

func NewMessagingSocketController(pool *pgxpool.Pool, c cacheport.Cache, hub *realtime.Hub, tracker *typing.Tracker, logger *zap.Logger) *MessagingSocketController {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := repoAdapter.NewPgMessagingRepository(pool, logger)
	return &MessagingSocketController{
		hub:             hub,
		typing:          tracker,
		joinUC:          usecase.NewJoinConversationUseCase(repo),
		markReadUC:      usecase.NewMarkReadUseCase(repo, c),
		markDeliveredUC: usecase.NewMarkDeliveredUseCase(repo),
		logger:          logger,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The gateway in front of this service enforces origins.
		return true
	},
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
}

type typingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type readPayload struct {
	ConversationID string   `json:"conversation_id"`
	UserID         string   `json:"user_id"`
	MessageIDs     []string `json:"message_ids"`
}

type deliveredPayload struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
}

type joinAck struct {
	ConversationID string   `json:"conversation_id"`
	Online         []string `json:"online"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const socketReadTimeout = 60 * time.Second

// Handle upgrades the connection and processes frames until the client
// disconnects. Presence is registered on connect; missing cleanup on an
// ungraceful disconnect is bounded by the typing TTL and the read deadline.
func (ctl *MessagingSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id is required"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(userID, ws)
		ctl.hub.Attach(conn)
		defer func() {
			ctl.cleanupTyping(conn)
			ctl.hub.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
		})

		_ = conn.Send(realtime.Encode(realtime.EventConnected, gin.H{"session_id": conn.ID}))

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					ctl.logger.Debug("socket read ended", zap.String("user_id", userID), zap.Error(err))
				}
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "join":
				ctl.handleJoin(c, conn, frame)
			case "leave":
				ctl.handleLeave(conn, frame)
			case "typing_start":
				ctl.handleTyping(conn, frame, true)
			case "typing_stop":
				ctl.handleTyping(conn, frame, false)
			case "message_read":
				ctl.handleRead(c, conn, frame)
			case "mark_delivered":
				ctl.handleDelivered(c, conn, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

func (ctl *MessagingSocketController) handleJoin(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	participants, err := ctl.joinUC.Execute(ctx, usecase.JoinConversationInput{
		ConversationID: frame.ConversationID,
		UserID:         conn.UserID,
	})
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}

	ctl.hub.JoinConversation(frame.ConversationID, conn)

	_ = conn.Send(realtime.Encode(realtime.EventJoined, joinAck{
		ConversationID: frame.ConversationID,
		Online:         ctl.hub.OnlineAmong(participants),
	}))
}

func (ctl *MessagingSocketController) handleLeave(conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}
	ctl.typing.StopTyping(frame.ConversationID, conn.UserID)
	ctl.hub.LeaveConversation(frame.ConversationID, conn)
	_ = conn.Send(realtime.Encode(realtime.EventLeft, gin.H{"conversation_id": frame.ConversationID}))
}

// handleTyping relays start/stop to the room, excluding the sender's own
// session. State is advisory and lossy; the tracker TTL and the client-side
// timeout cover lost stops.
func (ctl *MessagingSocketController) handleTyping(conn *realtime.Connection, frame inboundFrame, start bool) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	payload := typingPayload{ConversationID: frame.ConversationID, UserID: conn.UserID}
	if start {
		ctl.typing.Start(frame.ConversationID, conn.UserID)
		ctl.hub.Broadcast(frame.ConversationID, realtime.Encode(realtime.EventTypingStart, payload), conn.ID)
		return
	}
	if ctl.typing.StopTyping(frame.ConversationID, conn.UserID) {
		ctl.hub.Broadcast(frame.ConversationID, realtime.Encode(realtime.EventTypingStop, payload), conn.ID)
	}
}

// handleRead runs the bulk mark-read and emits one batched message:read
// event listing every message that advanced for this reader.
func (ctl *MessagingSocketController) handleRead(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		ctl.replyError(conn, "bad_request", "conversation_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	result, err := ctl.markReadUC.Execute(ctx, usecase.MarkReadInput{
		ConversationID: frame.ConversationID,
		ReaderID:       conn.UserID,
	})
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}
	if len(result.ReadMessageIDs) == 0 {
		return
	}

	ctl.hub.Broadcast(frame.ConversationID, realtime.Encode(realtime.EventMessageRead, readPayload{
		ConversationID: frame.ConversationID,
		UserID:         conn.UserID,
		MessageIDs:     result.ReadMessageIDs,
	}), "")
}

// handleDelivered advances the status on behalf of the session's user. The
// broadcast room comes from the stored message, not from the frame.
func (ctl *MessagingSocketController) handleDelivered(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.MessageID == "" {
		ctl.replyError(conn, "bad_request", "message_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	out, err := ctl.markDeliveredUC.Execute(ctx, usecase.MarkDeliveredInput{
		MessageID: frame.MessageID,
		UserID:    conn.UserID,
	})
	if err != nil {
		ctl.replyUseCaseError(conn, err)
		return
	}
	if !out.Advanced {
		return // already delivered or read; nothing to announce
	}

	ctl.hub.Broadcast(out.ConversationID, realtime.Encode(realtime.EventMessageDelivered, deliveredPayload{
		MessageID:      frame.MessageID,
		ConversationID: out.ConversationID,
	}), "")
}

// cleanupTyping clears any typing entries the session's user left behind and
// tells the affected rooms.
func (ctl *MessagingSocketController) cleanupTyping(conn *realtime.Connection) {
	for _, conversationID := range ctl.typing.StopAllFor(conn.UserID) {
		ctl.hub.Broadcast(conversationID, realtime.Encode(realtime.EventTypingStop, typingPayload{
			ConversationID: conversationID,
			UserID:         conn.UserID,
		}), conn.ID)
	}
}

func (ctl *MessagingSocketController) replyUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, messaging.ErrNotMember):
		ctl.replyError(conn, "forbidden", "user is not a participant in this conversation")
	case errors.Is(err, messaging.ErrNotFound):
		ctl.replyError(conn, "not_found", "no such conversation or message")
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "unavailable", "store unavailable, retry later")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *MessagingSocketController) replyError(conn *realtime.Connection, code string, message string) {
	_ = conn.Send(realtime.Encode(realtime.EventError, errorPayload{Code: code, Message: message}))
}
