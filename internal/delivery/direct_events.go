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

func (r *Router) handleSendDirectMessage(ctx context.Context, sess *Session, event models.Event) {
	var payload models.SendDirectMessagePayload
	if !bind(event, &payload) || payload.ReceiverID == 0 {
		r.sendError(sess, event.Name, models.CodeMissingReceiverID, "receiver id is required")
		return
	}

	content, ok := r.validateContent(sess, event.Name, payload.Content)
	if !ok {
		return
	}

	// Rejected before any persistence or presence call.
	if payload.ReceiverID == sess.Identity.UserID {
		r.sendError(sess, event.Name, models.CodeSelfMessageNotAllowed, "cannot message yourself")
		return
	}

	if _, err := r.users.GetUser(ctx, payload.ReceiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			r.sendError(sess, event.Name, models.CodeMessageValidationError, "receiver does not exist")
			return
		}
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to verify receiver")
		return
	}

	msg, err := r.directs.CreateDirectMessage(ctx, sess.Identity.UserID, payload.ReceiverID, content)
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to store message")
		return
	}

	r.deliverToUser(ctx, payload.ReceiverID, models.OutEvent{Name: models.EventDirectMessageReceived, Data: msg})
	for _, recv := range r.sessions.ForUser(payload.ReceiverID) {
		recv.Unread.Increment(sess.Identity.UserID)
	}

	r.bcast.SendToConnection(sess.ConnID, models.OutEvent{Name: models.EventDirectMessageSent, Data: msg})
	observability.IncDeliveryEvent(event.Name, "ok")
	r.emitAudit(ctx, "INFO", "direct message sent", sess.Identity.UserID)
}

func (r *Router) handleEditDirectMessage(ctx context.Context, sess *Session, event models.Event) {
	var payload models.EditMessagePayload
	if !bind(event, &payload) || payload.MessageID == 0 {
		r.sendError(sess, event.Name, models.CodeMissingMessageID, "message id is required")
		return
	}

	msg, err := r.directs.GetActiveDirectMessage(ctx, payload.MessageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
		return
	}
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to load message")
		return
	}

	switch err := authz.AuthorizeEdit(msg.SenderID, msg.CreatedAt, sess.Identity.UserID, r.now()); {
	case errors.Is(err, authz.ErrNotOwner):
		r.sendError(sess, event.Name, models.CodeUnauthorizedEdit, "only the sender may edit")
		return
	case errors.Is(err, authz.ErrTooOld):
		r.sendError(sess, event.Name, models.CodeMessageTooOld, "message is too old to edit")
		return
	}

	content, ok := r.validateContent(sess, event.Name, payload.Content)
	if !ok {
		return
	}

	updated, err := r.directs.EditDirectMessage(ctx, payload.MessageID, content, r.now())
	if errors.Is(err, repositories.ErrMessageNotFound) {
		r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
		return
	}
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to edit message")
		return
	}

	out := models.OutEvent{Name: models.EventDirectMessageEdited, Data: updated}
	r.deliverToUser(ctx, otherParticipant(updated.SenderID, updated.ReceiverID, sess.Identity.UserID), out)
	r.bcast.SendToConnection(sess.ConnID, out)
	observability.IncDeliveryEvent(event.Name, "ok")
	r.emitAudit(ctx, "INFO", "direct message edited", sess.Identity.UserID)
}

func (r *Router) handleDeleteDirectMessage(ctx context.Context, sess *Session, event models.Event) {
	var payload models.DeleteMessagePayload
	if !bind(event, &payload) || payload.MessageID == 0 {
		r.sendError(sess, event.Name, models.CodeMissingMessageID, "message id is required")
		return
	}

	msg, err := r.directs.GetActiveDirectMessage(ctx, payload.MessageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
		return
	}
	if err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to load message")
		return
	}

	if err := authz.AuthorizeDelete(msg.SenderID, sess.Identity.UserID); err != nil {
		r.sendError(sess, event.Name, models.CodeUnauthorizedDelete, "only the sender may delete")
		return
	}

	if err := r.directs.SoftDeleteDirectMessage(ctx, payload.MessageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			r.sendError(sess, event.Name, models.CodeMessageNotFound, "message not found")
			return
		}
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to delete message")
		return
	}

	out := models.OutEvent{
		Name: models.EventDirectMessageDeleted,
		Data: models.DirectMessageDeletedPayload{
			MessageID:  msg.ID,
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
		},
	}
	r.deliverToUser(ctx, otherParticipant(msg.SenderID, msg.ReceiverID, sess.Identity.UserID), out)
	r.bcast.SendToConnection(sess.ConnID, out)
	observability.IncDeliveryEvent(event.Name, "ok")
	r.emitAudit(ctx, "INFO", "direct message deleted", sess.Identity.UserID)
}

func (r *Router) handleJoinDirectConversation(ctx context.Context, sess *Session, event models.Event) {
	var payload models.PartnerPayload
	if !bind(event, &payload) || payload.PartnerID == 0 {
		r.sendError(sess, event.Name, models.CodeMissingPartnerID, "partner id is required")
		return
	}
	if payload.PartnerID == sess.Identity.UserID {
		r.sendError(sess, event.Name, models.CodeSelfConversationDenied, "cannot open a conversation with yourself")
		return
	}

	key := PairKey(sess.Identity.UserID, payload.PartnerID)
	if err := r.presence.AddUserToRoom(ctx, sess.ConnID, key); err != nil {
		r.sendError(sess, event.Name, models.CodeInternalError, "failed to record presence")
		return
	}
	r.bcast.JoinRoom(sess.ConnID, key)

	// Opening the conversation marks it read.
	sess.Unread.Activate(payload.PartnerID)
	observability.IncDeliveryEvent(event.Name, "ok")
}

func (r *Router) handleLeaveDirectConversation(ctx context.Context, sess *Session, event models.Event) {
	var payload models.PartnerPayload
	if !bind(event, &payload) || payload.PartnerID == 0 {
		r.sendError(sess, event.Name, models.CodeMissingPartnerID, "partner id is required")
		return
	}

	key := PairKey(sess.Identity.UserID, payload.PartnerID)
	if err := r.presence.RemoveUserFromRoom(ctx, sess.ConnID, key); err != nil {
		log.Printf("presence leave conversation user=%d partner=%d: %v", sess.Identity.UserID, payload.PartnerID, err)
	}
	r.bcast.LeaveRoom(sess.ConnID, key)

	sess.Unread.Deactivate(payload.PartnerID)
	observability.IncDeliveryEvent(event.Name, "ok")
}

// deliverToUser targets every active connection the user holds. A user with
// no live connection simply receives nothing; the message waits in the store
// for the next conversation load.
func (r *Router) deliverToUser(ctx context.Context, userID int, event models.OutEvent) {
	connIDs, err := r.presence.ConnectionIDs(ctx, userID)
	if err != nil {
		log.Printf("presence connections for delivery user=%d: %v", userID, err)
		return
	}
	for _, connID := range connIDs {
		r.bcast.SendToConnection(connID, event)
	}
}

func otherParticipant(senderID, receiverID, requesterID int) int {
	if senderID == requesterID {
		return receiverID
	}
	return senderID
}
