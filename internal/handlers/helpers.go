package handlers

import (
	"github.com/gin-gonic/gin"

	"rtchat/internal/models"
	"rtchat/internal/telemetry"
)

const userIDContextKey = "userID"
const usernameContextKey = "username"

// broadcaster is the slice of the websocket hub the REST layer needs to
// announce side effects of HTTP mutations.
type broadcaster interface {
	SendToRoom(roomKey string, event models.OutEvent)
	SendToAll(event models.OutEvent)
}

func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, level, text string) {
	if emitter == nil {
		return
	}
	userID := c.GetInt(userIDContextKey)
	var idPtr *int
	if userID != 0 {
		idPtr = &userID
	}
	emitter.Emit(c.Request.Context(), level, text, idPtr)
}
