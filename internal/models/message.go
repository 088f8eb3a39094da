package models

import "time"

// DeletedPlaceholder replaces the content of soft-deleted messages.
const DeletedPlaceholder = "This message has been deleted"

// Message is a room-scoped chat message.
type Message struct {
	ID        int        `db:"id" json:"id"`
	RoomID    int        `db:"room_id" json:"room_id"`
	AuthorID  int        `db:"author_id" json:"author_id"`
	Content   string     `db:"content" json:"content"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	EditedAt  *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	IsDeleted bool       `db:"is_deleted" json:"is_deleted"`
}

// MessageEdit is one pre-edit snapshot in a message's edit history. EditedAt
// is the timestamp the snapshot content had been visible since, not the time
// of the edit that displaced it.
type MessageEdit struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	Content   string    `db:"content" json:"content"`
	EditedAt  time.Time `db:"edited_at" json:"edited_at"`
}
