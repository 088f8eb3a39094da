// Package delivery maps each inbound client event onto its persistence
// mutation, presence mutation, and recipient set, and emits the outbound
// event to exactly those recipients plus the originator.
package delivery

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"rtchat/internal/authz"
	"rtchat/internal/models"
	"rtchat/internal/observability"
	"rtchat/internal/presence"
	"rtchat/internal/repositories"
	"rtchat/internal/telemetry"
)

// Router is the real-time core. All collaborators are injected; it holds no
// global connection state of its own.
type Router struct {
	users     repositories.UserRepository
	rooms     repositories.RoomRepository
	messages  repositories.MessageRepository
	directs   repositories.DirectMessageRepository
	presence  presence.Store
	validator *authz.Validator
	bcast     Broadcaster
	sessions  *SessionRegistry
	audit     *telemetry.AuditEmitter
	now       func() time.Time
}

// NewRouter constructs a Router. audit may be nil.
func NewRouter(
	users repositories.UserRepository,
	rooms repositories.RoomRepository,
	messages repositories.MessageRepository,
	directs repositories.DirectMessageRepository,
	store presence.Store,
	validator *authz.Validator,
	bcast Broadcaster,
	sessions *SessionRegistry,
	audit *telemetry.AuditEmitter,
) *Router {
	return &Router{
		users:     users,
		rooms:     rooms,
		messages:  messages,
		directs:   directs,
		presence:  store,
		validator: validator,
		bcast:     bcast,
		sessions:  sessions,
		audit:     audit,
		now:       time.Now,
	}
}

// Dispatch routes one inbound event to its handler. A handler failure never
// escapes to the connection loop: unexpected panics become a generic error
// event to the requester.
func (r *Router) Dispatch(ctx context.Context, sess *Session, event models.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("delivery panic event=%s user=%d: %v", event.Name, sess.Identity.UserID, rec)
			r.sendError(sess, event.Name, models.CodeInternalError, "internal error")
		}
	}()

	switch event.Name {
	case models.EventJoinRoom:
		r.handleJoinRoom(ctx, sess, event)
	case models.EventLeaveRoom:
		r.handleLeaveRoom(ctx, sess, event)
	case models.EventSendMessage:
		r.handleSendMessage(ctx, sess, event)
	case models.EventEditMessage:
		r.handleEditMessage(ctx, sess, event)
	case models.EventDeleteMessage:
		r.handleDeleteMessage(ctx, sess, event)
	case models.EventSendDirectMessage:
		r.handleSendDirectMessage(ctx, sess, event)
	case models.EventEditDirectMessage:
		r.handleEditDirectMessage(ctx, sess, event)
	case models.EventDeleteDirectMessage:
		r.handleDeleteDirectMessage(ctx, sess, event)
	case models.EventJoinDirectConversation:
		r.handleJoinDirectConversation(ctx, sess, event)
	case models.EventLeaveDirectConversation:
		r.handleLeaveDirectConversation(ctx, sess, event)
	case models.EventTypingStart:
		r.handleTyping(ctx, sess, event, true)
	case models.EventTypingStop:
		r.handleTyping(ctx, sess, event, false)
	case models.EventUpdateUserStatus:
		r.handleUpdateStatus(ctx, sess, event)
	case models.EventPing:
		r.bcast.SendToConnection(sess.ConnID, models.OutEvent{Name: models.EventPong})
		observability.IncDeliveryEvent(event.Name, "ok")
	default:
		r.sendError(sess, event.Name, models.CodeMessageValidationError, "unknown event")
	}
}

// HandleConnect marks the user online and announces the status flip to every
// room the user holds a membership in.
func (r *Router) HandleConnect(ctx context.Context, sess *Session) {
	userID := sess.Identity.UserID
	r.sessions.Register(sess)

	if err := r.presence.SetOnline(ctx, userID, sess.ConnID); err != nil {
		log.Printf("presence set online user=%d: %v", userID, err)
	}
	if err := r.users.UpdateStatus(ctx, userID, models.StatusOnline, r.now()); err != nil {
		log.Printf("persist online status user=%d: %v", userID, err)
	}

	r.broadcastStatusToMemberRooms(ctx, userID, models.StatusOnline)
	r.emitAudit(ctx, "INFO", "connection established", userID)
}

// HandleDisconnect tears down one connection's presence. It is idempotent:
// presence state that is already gone is not an error, and duplicate
// disconnects find nothing left to do.
func (r *Router) HandleDisconnect(ctx context.Context, sess *Session) {
	userID := sess.Identity.UserID
	r.sessions.Unregister(sess)

	rooms, err := r.presence.RoomsForUser(ctx, userID)
	if err != nil {
		log.Printf("presence rooms on disconnect user=%d: %v", userID, err)
	}

	if err := r.presence.PurgeConnection(ctx, userID, sess.ConnID); err != nil {
		log.Printf("presence purge user=%d conn=%s: %v", userID, sess.ConnID, err)
	}

	remaining, err := r.presence.ConnectionIDs(ctx, userID)
	if err != nil {
		log.Printf("presence connections on disconnect user=%d: %v", userID, err)
	}
	if len(remaining) > 0 {
		// Another device still holds a connection; the user stays online.
		return
	}

	if err := r.presence.SetOffline(ctx, userID); err != nil {
		log.Printf("presence set offline user=%d: %v", userID, err)
	}
	if err := r.users.UpdateStatus(ctx, userID, models.StatusOffline, r.now()); err != nil {
		log.Printf("persist offline status user=%d: %v", userID, err)
	}

	payload := models.UserStatusPayload{UserID: userID, Status: models.StatusOffline}
	for _, roomKey := range rooms {
		if err := r.presence.RemoveTyping(ctx, userID, roomKey); err != nil {
			log.Printf("presence clear typing user=%d room=%s: %v", userID, roomKey, err)
		}
		r.bcast.SendToRoom(roomKey, models.OutEvent{Name: models.EventUserStatusChanged, Data: payload})
	}
	r.emitAudit(ctx, "INFO", "connection closed", userID)
}

func (r *Router) broadcastStatusToMemberRooms(ctx context.Context, userID int, status string) {
	roomIDs, err := r.rooms.MemberRoomIDs(ctx, userID)
	if err != nil {
		log.Printf("member rooms for status broadcast user=%d: %v", userID, err)
		return
	}
	payload := models.UserStatusPayload{UserID: userID, Status: status}
	for _, roomID := range roomIDs {
		r.bcast.SendToRoom(RoomKey(roomID), models.OutEvent{Name: models.EventUserStatusChanged, Data: payload})
	}
}

// sendError reports a failure to the originating connection only. Other
// participants never see another user's failed action.
func (r *Router) sendError(sess *Session, event, code, message string) {
	observability.IncDeliveryEvent(event, code)
	r.bcast.SendToConnection(sess.ConnID, models.OutEvent{
		Name: models.EventError,
		Data: models.ErrorPayload{Message: message, Code: code},
	})
}

func (r *Router) emitAudit(ctx context.Context, level, text string, userID int) {
	if r.audit == nil {
		return
	}
	r.audit.Emit(ctx, level, text, &userID)
}

func bind(event models.Event, dest any) bool {
	if len(event.Data) == 0 {
		return false
	}
	return json.Unmarshal(event.Data, dest) == nil
}
