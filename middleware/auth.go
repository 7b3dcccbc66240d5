package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
	FulfillerRole  = "fulfillment"
)

// RequireUser trusts the identity headers injected by the api-gateway.
// The service is never exposed publicly.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")

		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}
