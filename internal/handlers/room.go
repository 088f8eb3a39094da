package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rtchat/internal/models"
	"rtchat/internal/repositories"
	"rtchat/internal/telemetry"
)

const defaultMessageLimit = 50

// RoomHandler manages room endpoints.
type RoomHandler struct {
	rooms    repositories.RoomRepository
	messages repositories.MessageRepository
	bcast    broadcaster
	audit    *telemetry.AuditEmitter
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(rooms repositories.RoomRepository, messages repositories.MessageRepository, bcast broadcaster, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, messages: messages, bcast: bcast, audit: audit}
}

// ListRooms returns public rooms plus the caller's own memberships.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := c.GetInt(userIDContextKey)

	public, err := h.rooms.ListPublicRooms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}
	mine, err := h.rooms.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	seen := make(map[int]struct{}, len(public))
	rooms := make([]models.Room, 0, len(public)+len(mine))
	for _, room := range public {
		seen[room.ID] = struct{}{}
		rooms = append(rooms, room)
	}
	for _, room := range mine {
		if _, ok := seen[room.ID]; !ok {
			rooms = append(rooms, room)
		}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CreateRoom handles POST /rooms. New public rooms are announced to every
// connected client so room lists refresh without polling.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.GetInt(userIDContextKey)

	var req struct {
		Name        string  `json:"name" binding:"required,min=1,max=64"`
		Description *string `json:"description"`
		IsPrivate   bool    `json:"is_private"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), userID, req.Name, req.Description, req.IsPrivate)
	if errors.Is(err, repositories.ErrRoomNameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "room name already taken"})
		return
	}
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "room creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	if !room.IsPrivate {
		h.bcast.SendToAll(models.OutEvent{Name: models.EventRoomCreated, Data: room})
	}
	emitAudit(c, h.audit, "INFO", "room created")
	c.JSON(http.StatusCreated, room)
}

// JoinRoom handles POST /rooms/:room_id/join.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt(userIDContextKey)

	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if errors.Is(err, repositories.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}
	if room.IsPrivate && room.CreatorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "room is private"})
		return
	}

	membership, err := h.rooms.JoinRoom(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join room"})
		return
	}

	emitAudit(c, h.audit, "INFO", "room joined")
	c.JSON(http.StatusOK, membership)
}

// LeaveRoom handles POST /rooms/:room_id/leave.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt(userIDContextKey)

	err := h.rooms.LeaveRoom(c.Request.Context(), roomID, userID)
	switch {
	case errors.Is(err, repositories.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	case errors.Is(err, repositories.ErrCreatorCannotLeave):
		c.JSON(http.StatusConflict, gin.H{"error": "creator cannot leave while other members remain"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave room"})
		return
	}

	emitAudit(c, h.audit, "INFO", "room left")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListMembers handles GET /rooms/:room_id/members.
func (h *RoomHandler) ListMembers(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	if !h.requireMembership(c, roomID) {
		return
	}

	members, err := h.rooms.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// GetRoomMessages handles GET /rooms/:room_id/messages. A q parameter turns
// the listing into a content search; deleted rows carry the placeholder text
// in plain listings and are excluded from search results.
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	if !h.requireMembership(c, roomID) {
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

	var msgs []models.Message
	var err error
	if query := c.Query("q"); query != "" {
		msgs, err = h.messages.SearchMessages(c.Request.Context(), roomID, query, limit)
	} else {
		msgs, err = h.messages.ListRoomMessages(c.Request.Context(), roomID, limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	// Reading the room marks it read.
	userID := c.GetInt(userIDContextKey)
	if err := h.rooms.UpdateLastRead(c.Request.Context(), roomID, userID); err != nil {
		emitAudit(c, h.audit, "ERROR", "failed to update last read")
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetMessageHistory handles GET /rooms/:room_id/messages/:message_id/history.
func (h *RoomHandler) GetMessageHistory(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	if !h.requireMembership(c, roomID) {
		return
	}

	edits, err := h.messages.EditHistory(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"edits": edits})
}

func (h *RoomHandler) requireMembership(c *gin.Context, roomID int) bool {
	userID := c.GetInt(userIDContextKey)
	member, err := h.rooms.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return false
	}
	return true
}

func roomIDParam(c *gin.Context) (int, bool) {
	roomID, err := strconv.Atoi(c.Param("room_id"))
	if err != nil || roomID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return 0, false
	}
	return roomID, true
}
