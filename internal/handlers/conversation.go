package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rtchat/internal/repositories"
)

// ConversationHandler serves the 1:1 conversation read endpoints. Writes go
// over the websocket; HTTP only loads history and the conversation list.
type ConversationHandler struct {
	directs repositories.DirectMessageRepository
}

// NewConversationHandler constructs a ConversationHandler.
func NewConversationHandler(directs repositories.DirectMessageRepository) *ConversationHandler {
	return &ConversationHandler{directs: directs}
}

// ListConversations handles GET /conversations.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt(userIDContextKey)

	conversations, err := h.directs.ListConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetConversationMessages handles GET /conversations/:partner_id/messages.
func (h *ConversationHandler) GetConversationMessages(c *gin.Context) {
	partnerID, err := strconv.Atoi(c.Param("partner_id"))
	if err != nil || partnerID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partner id"})
		return
	}

	userID := c.GetInt(userIDContextKey)
	if partnerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a conversation with yourself"})
		return
	}

	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	msgs, err := h.directs.ListBetween(c.Request.Context(), userID, partnerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
