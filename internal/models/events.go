package models

import "encoding/json"

// Inbound event names (client -> server).
const (
	EventJoinRoom                = "join_room"
	EventLeaveRoom               = "leave_room"
	EventSendMessage             = "send_message"
	EventEditMessage             = "edit_message"
	EventDeleteMessage           = "delete_message"
	EventSendDirectMessage       = "send_direct_message"
	EventEditDirectMessage       = "edit_direct_message"
	EventDeleteDirectMessage     = "delete_direct_message"
	EventJoinDirectConversation  = "join_direct_conversation"
	EventLeaveDirectConversation = "leave_direct_conversation"
	EventTypingStart             = "typing_start"
	EventTypingStop              = "typing_stop"
	EventUpdateUserStatus        = "update_user_status"
	EventPing                    = "ping"
)

// Outbound event names (server -> client).
const (
	EventMessageReceived       = "message_received"
	EventMessageEdited         = "message_edited"
	EventMessageDeleted        = "message_deleted"
	EventDirectMessageSent     = "direct_message_sent"
	EventDirectMessageReceived = "direct_message_received"
	EventDirectMessageEdited   = "direct_message_edited"
	EventDirectMessageDeleted  = "direct_message_deleted"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventTypingIndicator       = "typing_indicator"
	EventUserStatusChanged     = "user_status_changed"
	EventUserProfileUpdated    = "user_profile_updated"
	EventRoomCreated           = "room_created"
	EventError                 = "error"
	EventPong                  = "pong"
)

// Error codes sent with EventError.
const (
	CodeRoomAccessDenied        = "ROOM_ACCESS_DENIED"
	CodeMessageNotFound         = "MESSAGE_NOT_FOUND"
	CodeUnauthorizedEdit        = "UNAUTHORIZED_MESSAGE_EDIT"
	CodeUnauthorizedDelete      = "UNAUTHORIZED_MESSAGE_DELETE"
	CodeMessageTooOld           = "MESSAGE_TOO_OLD"
	CodeMessageValidationError  = "MESSAGE_VALIDATION_ERROR"
	CodeMessageTooLong          = "MESSAGE_TOO_LONG"
	CodeInvalidMessageContent   = "INVALID_MESSAGE_CONTENT"
	CodeSelfMessageNotAllowed   = "SELF_MESSAGE_NOT_ALLOWED"
	CodeSelfConversationDenied  = "SELF_CONVERSATION_NOT_ALLOWED"
	CodeMissingReceiverID       = "MISSING_RECEIVER_ID"
	CodeMissingPartnerID        = "MISSING_PARTNER_ID"
	CodeMissingMessageID        = "MISSING_MESSAGE_ID"
	CodeInvalidStatus           = "INVALID_STATUS"
	CodeInternalError           = "INTERNAL_ERROR"
)

// Event is the wire envelope for every websocket frame in both directions.
// Data is left raw inbound so each handler binds its own payload type.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutEvent is the outbound counterpart; Data is marshalled as-is.
type OutEvent struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// ErrorPayload is the body of an EventError frame.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Inbound payloads.
type (
	RoomPayload struct {
		RoomID int `json:"room_id"`
	}

	SendMessagePayload struct {
		RoomID  int    `json:"room_id"`
		Content string `json:"content"`
	}

	EditMessagePayload struct {
		MessageID int    `json:"message_id"`
		Content   string `json:"content"`
	}

	DeleteMessagePayload struct {
		MessageID int `json:"message_id"`
	}

	SendDirectMessagePayload struct {
		ReceiverID int    `json:"receiver_id"`
		Content    string `json:"content"`
	}

	PartnerPayload struct {
		PartnerID int `json:"partner_id"`
	}

	StatusPayload struct {
		Status string `json:"status"`
	}
)

// Outbound payloads.
type (
	MessageDeletedPayload struct {
		MessageID int `json:"message_id"`
		RoomID    int `json:"room_id"`
	}

	DirectMessageDeletedPayload struct {
		MessageID  int `json:"message_id"`
		SenderID   int `json:"sender_id"`
		ReceiverID int `json:"receiver_id"`
	}

	RoomPresencePayload struct {
		UserID   int    `json:"user_id"`
		Username string `json:"username"`
		RoomID   int    `json:"room_id"`
	}

	TypingIndicatorPayload struct {
		UserID   int    `json:"user_id"`
		Username string `json:"username"`
		RoomID   int    `json:"room_id"`
		IsTyping bool   `json:"is_typing"`
	}

	UserStatusPayload struct {
		UserID int    `json:"user_id"`
		Status string `json:"status"`
	}

	UserProfilePayload struct {
		UserID    int     `json:"user_id"`
		Username  string  `json:"username"`
		AvatarURL *string `json:"avatar_url,omitempty"`
	}
)
