package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireIdentity installs the verified caller identity for downstream
// handlers. Authentication happens upstream (gateway); this service trusts
// the X-User-ID header it is handed and rejects requests without one.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}
