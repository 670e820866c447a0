package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WorkspaceValidationMiddleware requires every request to name the workspace
// whose account pool it operates on.
func WorkspaceValidationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspace := c.GetHeader("X-WORKSPACE-ID")
		if workspace == "" {
			workspace = c.GetHeader("WorkspaceId")
		}

		if workspace == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "workspace header is required"})
			c.Abort()
			return
		}

		// Store in gin context for later use
		c.Set("WorkspaceId", workspace)
		c.Next()
	}
}
