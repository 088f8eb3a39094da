package delivery

import (
	"context"
	"errors"
	"log"

	"rtchat/internal/authz"
	"rtchat/internal/models"
	"rtchat/internal/observability"
	"rtchat/internal/repositories"
)

func (r *Router) handleJoinRoom(ctx context.Context, sess *Session, event models.Event) {
	var payload models.RoomPayload
	if !bind(event, &payload) || payload.RoomID == 0 {
		r.sendError(sess, event.Name, models.CodeRoomAccessDenied, "room id is required")
		return
	}

	// Transport join requires a persisted membership; presence without
	// membership is disallowed.
	member, err := r.rooms.IsMember(ctx, payload.RoomID, sess.Identity.UserID)
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to verify membership")
		return
	}
	if !member {
		r.sendError(sess, event.Name, models.CodeRoomAccessDenied, "not a room member")
		return
	}

	roomKey := RoomKey(payload.RoomID)
	if err := r.presence.AddUserToRoom(ctx, sess.ConnID, roomKey); err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to record presence")
		return
	}
	r.bcast.JoinRoom(sess.ConnID, roomKey)

	// Others learn of the join; the joining user does not hear about itself.
	r.bcast.SendToRoomExcept(roomKey, sess.ConnID, models.OutEvent{
		Name: models.EventUserJoined,
		Data: models.RoomPresencePayload{
			UserID:   sess.Identity.UserID,
			Username: sess.Identity.Username,
			RoomID:   payload.RoomID,
		},
	})
	observability.IncDeliveryEvent(event.Name, "ok")
}

func (r *Router) handleLeaveRoom(ctx context.Context, sess *Session, event models.Event) {
	var payload models.RoomPayload
	if !bind(event, &payload) || payload.RoomID == 0 {
		r.sendError(sess, event.Name, models.CodeRoomAccessDenied, "room id is required")
		return
	}

	roomKey := RoomKey(payload.RoomID)
	if err := r.presence.RemoveUserFromRoom(ctx, sess.ConnID, roomKey); err != nil {
		log.Printf("presence leave room user=%d room=%d: %v", sess.Identity.UserID, payload.RoomID, err)
	}
	if err := r.presence.RemoveTyping(ctx, sess.Identity.UserID, roomKey); err != nil {
		log.Printf("presence clear typing user=%d room=%d: %v", sess.Identity.UserID, payload.RoomID, err)
	}
	r.bcast.LeaveRoom(sess.ConnID, roomKey)

	r.bcast.SendToRoomExcept(roomKey, sess.ConnID, models.OutEvent{
		Name: models.EventUserLeft,
		Data: models.RoomPresencePayload{
			UserID:   sess.Identity.UserID,
			Username: sess.Identity.Username,
			RoomID:   payload.RoomID,
		},
	})
	observability.IncDeliveryEvent(event.Name, "ok")
}

func (r *Router) handleSendMessage(ctx context.Context, sess *Session, event models.Event) {
	var payload models.SendMessagePayload
	if !bind(event, &payload) || payload.RoomID == 0 {
		r.sendError(sess, event.Name, models.CodeMessageValidationError, "room id is required")
		return
	}

	content, ok := r.validateContent(sess, event.Name, payload.Content)
	if !ok {
		return
	}

	member, err := r.rooms.IsMember(ctx, payload.RoomID, sess.Identity.UserID)
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to verify membership")
		return
	}
	if !member {
		r.sendError(sess, event.Name, models.CodeRoomAccessDenied, "not a room member")
		return
	}

	msg, err := r.messages.CreateMessage(ctx, payload.RoomID, sess.Identity.UserID, content)
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to store message")
		return
	}

	roomKey := RoomKey(payload.RoomID)
	// Sending implies the author stopped typing.
	if err := r.presence.RemoveTyping(ctx, sess.Identity.UserID, roomKey); err != nil {
		log.Printf("presence clear typing user=%d room=%d: %v", sess.Identity.UserID, payload.RoomID, err)
	}

	out := models.OutEvent{Name: models.EventMessageReceived, Data: msg}
	r.bcast.SendToRoomExcept(roomKey, sess.ConnID, out)
	r.bcast.SendToConnection(sess.ConnID, out)
	observability.IncDeliveryEvent(event.Name, "ok")
	r.emitAudit(ctx, "INFO", "room message sent", sess.Identity.UserID)
}

func (r *Router) handleEditMessage(ctx context.Context, sess *Session, event models.Event) {
	var payload models.EditMessagePayload
	if !bind(event, &payload) || payload.MessageID == 0 {
		r.sendError(sess, event.Name, models.CodeMissingMessageID, "message id is required")
		return
	}

	msg, err := r.messages.GetActiveMessage(ctx, payload.MessageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
		return
	}
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to load message")
		return
	}

	switch err := authz.AuthorizeEdit(msg.AuthorID, msg.CreatedAt, sess.Identity.UserID, r.now()); {
	case errors.Is(err, authz.ErrNotOwner):
		r.sendError(sess, event.Name, models.CodeUnauthorizedEdit, "only the author may edit")
		return
	case errors.Is(err, authz.ErrTooOld):
		r.sendError(sess, event.Name, models.CodeMessageTooOld, "message is too old to edit")
		return
	}

	content, ok := r.validateContent(sess, event.Name, payload.Content)
	if !ok {
		return
	}

	updated, err := r.messages.EditMessage(ctx, payload.MessageID, content, r.now())
	if errors.Is(err, repositories.ErrMessageNotFound) {
		r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
		return
	}
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to edit message")
		return
	}

	// All room members see the edit, not just the author's counterpart.
	out := models.OutEvent{Name: models.EventMessageEdited, Data: updated}
	roomKey := RoomKey(updated.RoomID)
	r.bcast.SendToRoomExcept(roomKey, sess.ConnID, out)
	r.bcast.SendToConnection(sess.ConnID, out)
	observability.IncDeliveryEvent(event.Name, "ok")
	r.emitAudit(ctx, "INFO", "room message edited", sess.Identity.UserID)
}

func (r *Router) handleDeleteMessage(ctx context.Context, sess *Session, event models.Event) {
	var payload models.DeleteMessagePayload
	if !bind(event, &payload) || payload.MessageID == 0 {
		r.sendError(sess, event.Name, models.CodeMissingMessageID, "message id is required")
		return
	}

	msg, err := r.messages.GetActiveMessage(ctx, payload.MessageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
		return
	}
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to load message")
		return
	}

	if err := authz.AuthorizeDelete(msg.AuthorID, sess.Identity.UserID); err != nil {
		r.sendError(sess, event.Name, models.CodeUnauthorizedDelete, "only the author may delete")
		return
	}

	if err := r.messages.SoftDeleteMessage(ctx, payload.MessageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
			return
		}
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to delete message")
		return
	}

	out := models.OutEvent{
		Name: models.EventMessageDeleted,
		Data: models.MessageDeletedPayload{MessageID: msg.ID, RoomID: msg.RoomID},
	}
	roomKey := RoomKey(msg.RoomID)
	r.bcast.SendToRoomExcept(roomKey, sess.ConnID, out)
	r.bcast.SendToConnection(sess.ConnID, out)
	observability.IncDeliveryEvent(event.Name, "ok")
	r.emitAudit(ctx, "INFO", "room message deleted", sess.Identity.UserID)
}

// validateContent maps validation failures onto their error codes and reports
// them to the requester. No persistence has happened when it fails.
func (r *Router) validateContent(sess *Session, event, content string) (string, bool) {
	sanitized, err := r.validator.ValidateContent(content)
	switch {
	case errors.Is(err, authz.ErrEmptyContent):
		r.sendError(sess, event, models.CodeInvalidMessageContent, "message content is empty")
		return "", false
	case errors.Is(err, authz.ErrContentTooLong):
		r.sendError(sess, event, models.CodeMessageTooLong, "message content exceeds 1000 characters")
		return "", false
	case err != nil:
		r.sendError(sess, event, models.CodeMessageValidationError, "invalid message content")
		return "", false
	}
	return sanitized, true
}
