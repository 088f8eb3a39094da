package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rtchat/internal/auth"
)

// RequireAuth verifies the bearer token and attaches the caller's identity to
// the request context.
func RequireAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		identity, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDContextKey, identity.UserID)
		c.Set(usernameContextKey, identity.Username)
		c.Next()
	}
}
