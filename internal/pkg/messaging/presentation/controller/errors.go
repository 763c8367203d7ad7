package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	messaging "github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/domain"
	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/messaging/application/usecase"
)

// respondUseCaseError maps use case failures onto HTTP statuses. Access and
// validation errors are final; persistence trouble is reported retryable.
func respondUseCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messaging.ErrNotConnected):
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not connected"})
	case errors.Is(err, messaging.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "user is not a participant in this conversation"})
	case errors.Is(err, messaging.ErrNotSender):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender may delete a message"})
	case errors.Is(err, messaging.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must contain either body or media"})
	case errors.Is(err, messaging.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, retry later"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// identityFrom pulls the verified caller identity installed by the identity
// middleware.
func identityFrom(c *gin.Context) string {
	return c.GetString("user_id")
}
