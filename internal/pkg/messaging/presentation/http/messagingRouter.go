package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cacheport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/cache/port"
	qport "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/queue/port"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/infrastructure/realtime"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/presentation/controller"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/typing"
)

// Deps bundles the shared infrastructure handed down to the messaging
// endpoints.
type Deps struct {
	Pool   *pgxpool.Pool
	Cache  cacheport.Cache
	Queue  qport.Client
	Hub    *realtime.Hub
	Typing *typing.Tracker
	Logger *zap.Logger
}

// RegisterRoutes registers messaging endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	createDirectCtl := controller.NewCreateDirectConversationController(d.Pool, d.Logger)
	createAICtl := controller.NewCreateAIConversationController(d.Pool, d.Logger)
	listCtl := controller.NewListConversationsController(d.Pool, d.Hub, d.Logger)
	sendCtl := controller.NewSendMessageController(d.Pool, d.Cache, d.Hub, d.Queue, d.Logger)
	getCtl := controller.NewGetMessagesController(d.Pool, d.Logger)
	unreadCtl := controller.NewUnreadCountController(d.Pool, d.Cache, d.Logger)
	deleteCtl := controller.NewDeleteMessageController(d.Pool, d.Logger)
	socketCtl := controller.NewMessagingSocketController(d.Pool, d.Cache, d.Hub, d.Typing, d.Logger)

	// The socket authenticates via its own query parameter; everything else
	// requires the identity header.
	g.GET("/ws", socketCtl.Handle())

	authed := g.Group("", RequireIdentity())
	authed.POST("/conversations/direct", createDirectCtl.Handle())
	authed.POST("/conversations/ai", createAICtl.Handle())
	authed.GET("/conversations", listCtl.Handle())
	authed.GET("/conversations/:conversationId/messages", getCtl.Handle())
	authed.POST("/conversations/:conversationId/messages", sendCtl.Handle())
	authed.GET("/messages/unread-count", unreadCtl.Handle())
	authed.DELETE("/messages/:messageId", deleteCtl.Handle())
}
