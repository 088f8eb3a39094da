package models

import "time"

// Room is a named topic channel. Room names are unique case-insensitively.
type Room struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsPrivate   bool      `db:"is_private" json:"is_private"`
	CreatorID   int       `db:"creator_id" json:"creator_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Membership is the persisted fact that a user belongs to a room. It is
// distinct from transport presence: a member can be disconnected, but a
// connection may only join a room's transport group with a membership row.
type Membership struct {
	UserID     int        `db:"user_id" json:"user_id"`
	RoomID     int        `db:"room_id" json:"room_id"`
	JoinedAt   time.Time  `db:"joined_at" json:"joined_at"`
	LastReadAt *time.Time `db:"last_read_at" json:"last_read_at,omitempty"`
}

// RoomMember is a membership joined with user display fields for listings.
type RoomMember struct {
	UserID   int       `db:"user_id" json:"user_id"`
	Username string    `db:"username" json:"username"`
	Status   string    `db:"status" json:"status"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}
