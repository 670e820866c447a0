package middleware

import (
	"github.com/gin-gonic/gin"
)

var userIdHeaders = []string{"X-USER-ID", "UserId", "User-Id"}

func UserIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := ""
		for _, header := range userIdHeaders {
			if value := c.GetHeader(header); value != "" {
				userId = value
				break
			}
		}

		// Store in gin context for later use
		c.Set("UserId", userId)
		c.Next()
	}
}
