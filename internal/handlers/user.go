package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rtchat/internal/delivery"
	"rtchat/internal/models"
	"rtchat/internal/repositories"
	"rtchat/internal/telemetry"
)

// UserHandler serves profile endpoints.
type UserHandler struct {
	users repositories.UserRepository
	rooms repositories.RoomRepository
	bcast broadcaster
	audit *telemetry.AuditEmitter
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users repositories.UserRepository, rooms repositories.RoomRepository, bcast broadcaster, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: users, rooms: rooms, bcast: bcast, audit: audit}
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.GetInt(userIDContextKey)

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me. Profile changes are announced to every
// room the user holds a membership in.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := c.GetInt(userIDContextKey)

	var req struct {
		Username  string  `json:"username" binding:"required,min=3,max=32"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, strings.TrimSpace(req.Username), req.AvatarURL)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "profile update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}

	roomIDs, err := h.rooms.MemberRoomIDs(c.Request.Context(), userID)
	if err == nil {
		event := models.OutEvent{
			Name: models.EventUserProfileUpdated,
			Data: models.UserProfilePayload{UserID: user.ID, Username: user.Username, AvatarURL: user.AvatarURL},
		}
		for _, roomID := range roomIDs {
			h.bcast.SendToRoom(delivery.RoomKey(roomID), event)
		}
	}

	emitAudit(c, h.audit, "INFO", "profile updated")
	c.JSON(http.StatusOK, user)
}
