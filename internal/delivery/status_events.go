package delivery

import (
	"context"
	"log"

	"rtchat/internal/models"
	"rtchat/internal/observability"
	"rtchat/internal/presence"
)

// handleTyping serves typing_start and typing_stop. Typing is best-effort: a
// user without membership is silently ignored rather than told off, and the
// presence entry expires on its own if the stop event never arrives.
func (r *Router) handleTyping(ctx context.Context, sess *Session, event models.Event, isTyping bool) {
	var payload models.RoomPayload
	if !bind(event, &payload) || payload.RoomID == 0 {
		return
	}

	member, err := r.rooms.IsMember(ctx, payload.RoomID, sess.Identity.UserID)
	if err != nil || !member {
		return
	}

	roomKey := RoomKey(payload.RoomID)
	if isTyping {
		if err := r.presence.SetTyping(ctx, sess.Identity.UserID, roomKey, presence.TypingTTL); err != nil {
			log.Printf("presence set typing user=%d room=%d: %v", sess.Identity.UserID, payload.RoomID, err)
			return
		}
	} else {
		if err := r.presence.RemoveTyping(ctx, sess.Identity.UserID, roomKey); err != nil {
			log.Printf("presence remove typing user=%d room=%d: %v", sess.Identity.UserID, payload.RoomID, err)
			return
		}
	}

	r.bcast.SendToRoomExcept(roomKey, sess.ConnID, models.OutEvent{
		Name: models.EventTypingIndicator,
		Data: models.TypingIndicatorPayload{
			UserID:   sess.Identity.UserID,
			Username: sess.Identity.Username,
			RoomID:   payload.RoomID,
			IsTyping: isTyping,
		},
	})
	observability.IncDeliveryEvent(event.Name, "ok")
}

// handleUpdateStatus validates the requested status, persists it, mirrors it
// into presence, and announces it to every room the user holds a membership
// in, not just transport-present rooms, so disconnected friends see the flip
// on their next view.
func (r *Router) handleUpdateStatus(ctx context.Context, sess *Session, event models.Event) {
	var payload models.StatusPayload
	if !bind(event, &payload) || !models.ValidStatus(payload.Status) {
		r.sendError(sess, event.Name, models.CodeInvalidStatus, "status must be online, away or offline")
		return
	}

	if err := r.users.UpdateStatus(ctx, sess.Identity.UserID, payload.Status, r.now()); err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to update status")
		return
	}
	if err := r.presence.SetStatus(ctx, sess.Identity.UserID, payload.Status); err != nil {
		log.Printf("presence mirror status user=%d: %v", sess.Identity.UserID, err)
	}

	r.broadcastStatusToMemberRooms(ctx, sess.Identity.UserID, payload.Status)
	observability.IncDeliveryEvent(event.Name, "ok")
}
